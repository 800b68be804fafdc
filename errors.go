// errors.go -- error sentinels for the cdb package
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
	"errors"
	"fmt"
	"io"
)

var (
	// ErrBadFormat is returned when a file image is too small, too large,
	// or otherwise fails the structural checks Reader.Open performs, or
	// when full iteration finds a self-inconsistent record.
	ErrBadFormat = errors.New("cdb: bad format")

	// ErrRecordTooLarge is returned by Writer.Add when a key or value is
	// 2^32-1 bytes or longer.
	ErrRecordTooLarge = errors.New("cdb: key or value too large")

	// ErrFileTooBig is returned when the writer's running offset or the
	// total secondary-table size would overflow 32 bits.
	ErrFileTooBig = errors.New("cdb: file too big")

	// ErrClosed is returned by operations attempted against a Writer that
	// has already been finished, or by Finish on an AtomicWriter that has
	// already been finished or aborted.
	ErrClosed = errors.New("cdb: already closed")
)

func errShortWrite(exp, n int) error {
	return fmt.Errorf("cdb: incomplete write; exp %d, saw %d", exp, n)
}

func writeAll(w io.Writer, buf []byte) (int, error) {
	n, err := w.Write(buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, errShortWrite(len(buf), n)
	}
	return n, nil
}
