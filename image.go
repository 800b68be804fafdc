// image.go -- a bounds-checked, random-access view of a CDB file's bytes
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
	"fmt"
	"os"
	"syscall"
)

// ByteImage is a contiguous, immutable, random-access view of a CDB
// file's bytes. It is the capability Reader depends on: "contiguous
// bounded-length byte slice whose lifetime encloses the reader's."
//
// Implementations may be memory-mapped, a heap copy, or adopted from an
// externally opened descriptor; all three are provided below and behave
// identically from Reader's point of view.
type ByteImage interface {
	// Len returns the number of bytes in the image.
	Len() int

	// Slice returns image[start:end], or (nil, false) if the range is
	// out of bounds. This is the only way Reader touches image bytes;
	// every access goes through here so a truncated or adversarial file
	// can never cause an out-of-bounds read.
	Slice(start, end int) ([]byte, bool)

	// Close releases any resources (e.g. unmaps a memory map). It is
	// safe to call Close more than once.
	Close() error
}

// boundsCheck reports whether [start, end) is a valid, non-inverted
// range within length n.
func boundsCheck(start, end, n int) bool {
	return start >= 0 && end >= start && end <= n
}

// mmapImage is a ByteImage backed by an OS memory map.
type mmapImage struct {
	data   []byte
	fd     *os.File
	closed bool
}

// OpenFile memory-maps the file at path for reading and returns a
// ByteImage over its contents. The mapping remains valid until Close.
func OpenFile(path string) (ByteImage, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	img, err := FromDescriptor(fd)
	if err != nil {
		fd.Close()
		return nil, err
	}
	return img, nil
}

// FromDescriptor adopts an already-open file descriptor and memory-maps
// it for reading. The returned ByteImage takes ownership of fd: closing
// the image closes fd.
func FromDescriptor(fd *os.File) (ByteImage, error) {
	st, err := fd.Stat()
	if err != nil {
		return nil, fmt.Errorf("cdb: can't stat %s: %w", fd.Name(), err)
	}

	sz := st.Size()
	if sz == 0 {
		return &mmapImage{fd: fd}, nil
	}

	data, err := syscall.Mmap(int(fd.Fd()), 0, int(sz), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("cdb: can't mmap %s: %w", fd.Name(), err)
	}

	return &mmapImage{data: data, fd: fd}, nil
}

func (m *mmapImage) Len() int { return len(m.data) }

func (m *mmapImage) Slice(start, end int) ([]byte, bool) {
	if !boundsCheck(start, end, len(m.data)) {
		return nil, false
	}
	return m.data[start:end], true
}

func (m *mmapImage) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	var err error
	if m.data != nil {
		err = syscall.Munmap(m.data)
		m.data = nil
	}
	if m.fd != nil {
		if cerr := m.fd.Close(); err == nil {
			err = cerr
		}
		m.fd = nil
	}
	return err
}

// heapImage is a ByteImage backed by a plain heap-allocated copy. It
// behaves identically to mmapImage except Close is a no-op.
type heapImage struct {
	data []byte
}

// FromBytes copies b into an owned, heap-backed ByteImage. Useful for
// tests and for callers who already hold the file contents in memory.
func FromBytes(b []byte) ByteImage {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &heapImage{data: cp}
}

func (h *heapImage) Len() int { return len(h.data) }

func (h *heapImage) Slice(start, end int) ([]byte, bool) {
	if !boundsCheck(start, end, len(h.data)) {
		return nil, false
	}
	return h.data[start:end], true
}

func (h *heapImage) Close() error { return nil }
