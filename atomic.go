// atomic.go -- safe write-then-rename wrapper around Writer
//
// Grounded on opencoff-go-chd/dbwriter.go's NewDBWriter/Freeze/Abort:
// build into a temp file beside the destination, then atomically rename
// over it; clean up the temp file on any failure or abandonment.
//
// (c) Sudhi Herle 2018
//
// Author: Sudhi Herle <sudhi@herle.net>
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdb

import (
	"crypto/subtle"
	"fmt"
	"os"
)

// AtomicWriter wraps a filesystem-backed Writer with rename-on-success
// semantics: the database is built in a temp file beside the
// destination, and only becomes visible at dest once Finish succeeds.
//
// Rename is atomic only within a single filesystem; dest and the temp
// file must be co-located (the default temp path is, always).
type AtomicWriter struct {
	w    *Writer
	fd   *os.File
	dest string
	temp string
	done bool
}

// Create creates a fresh temp file at dest+".tmp.<random>" and opens a
// Writer over it.
func Create(dest string) (*AtomicWriter, error) {
	temp := fmt.Sprintf("%s.tmp.%d", dest, rand32())
	return CreateWithTemp(dest, temp)
}

// CreateWithTemp is like Create but with an explicit temp path. temp
// must share a filesystem with dest for the final rename to be atomic.
func CreateWithTemp(dest, temp string) (*AtomicWriter, error) {
	fd, err := os.OpenFile(temp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}

	w, err := NewWriter(fd)
	if err != nil {
		fd.Close()
		os.Remove(temp)
		return nil, err
	}

	return &AtomicWriter{w: w, fd: fd, dest: dest, temp: temp}, nil
}

// SetPermissions applies perm to the temp file. Must be called before
// Finish: the destination path may not exist yet (so it can't be
// chmod'd directly), and the temp path is gone once Finish returns.
func (a *AtomicWriter) SetPermissions(perm os.FileMode) error {
	return a.fd.Chmod(perm)
}

// Add delegates to the underlying Writer.
func (a *AtomicWriter) Add(key, data []byte) error {
	return a.w.Add(key, data)
}

// Finish finalizes the underlying Writer and atomically renames the
// temp file over dest. On any failure the temp file is removed.
func (a *AtomicWriter) Finish() (BuildSummary, error) {
	if a.done {
		return BuildSummary{}, ErrClosed
	}
	a.done = true

	sum, err := a.w.Finish()
	if err != nil {
		a.fd.Close()
		os.Remove(a.temp)
		return BuildSummary{}, err
	}

	if err := a.fd.Sync(); err != nil {
		a.fd.Close()
		os.Remove(a.temp)
		return BuildSummary{}, err
	}
	if err := a.fd.Close(); err != nil {
		os.Remove(a.temp)
		return BuildSummary{}, err
	}

	if err := os.Rename(a.temp, a.dest); err != nil {
		os.Remove(a.temp)
		return BuildSummary{}, err
	}

	return sum, nil
}

// Abort discards the build: the temp file is closed and removed on a
// best-effort basis (I/O failures during cleanup are suppressed). dest
// is left untouched. Nothing removes the temp file of an AtomicWriter
// that is neither finished nor aborted; it stays on disk.
func (a *AtomicWriter) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.fd.Close()
	os.Remove(a.temp)
}

// VerifyChecksum recomputes, for the file at path, the SHA512-256 digest
// Finish reports and compares it against want using a constant-time
// comparison. The digest covers the secondary hash tables followed by
// the header; the record bytes of the data region are not part of it,
// so a change confined to record contents is not detected. It is meant for
// callers who retained a BuildSummary from Finish and want to confirm a
// file in the wild matches it; Reader never calls this itself, since the
// digest lives outside the bit-exact CDB wire format.
func VerifyChecksum(path string, want [32]byte) (bool, error) {
	img, err := OpenFile(path)
	if err != nil {
		return false, err
	}
	defer img.Close()

	b, ok := img.Slice(0, img.Len())
	if !ok {
		return false, fmt.Errorf("cdb: can't read %s", path)
	}

	got := checksumBuild(b)
	return subtle.ConstantTimeCompare(got[:], want[:]) == 1, nil
}
