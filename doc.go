// doc.go -- package overview
//
// (c) Sudhi Herle 2018
//
// Author: Sudhi Herle <sudhi@herle.net>
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// Package cdb reads and writes D. J. Bernstein's Constant Database
// (CDB) format: an immutable, on-disk associative array mapping byte
// string keys to byte string values, with O(1) average-case lookup and
// support for multiple values per key.
//
// A CDB is built once with Writer (or the atomic-replace wrapper,
// AtomicWriter) and thereafter only read, via Reader, from a ByteImage
// -- a memory-mapped or heap-resident view of the file's bytes. There
// is no in-place update or deletion; a new database replaces the old
// one wholesale.
package cdb
