// codec.go -- little-endian 32-bit word codec
//
// (c) Sudhi Herle 2018
//
// Author: Sudhi Herle <sudhi@herle.net>
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdb

import "encoding/binary"

// unpackU32 decodes a little-endian uint32 from the first 4 bytes of buf.
// It reports false if buf is too short to hold one.
func unpackU32(buf []byte) (uint32, bool) {
	if len(buf) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf), true
}

// unpackU32Pair decodes two consecutive little-endian uint32s from the
// first 8 bytes of buf.
func unpackU32Pair(buf []byte) (a, b uint32, ok bool) {
	if len(buf) < 8 {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint32(buf), binary.LittleEndian.Uint32(buf[4:]), true
}

// packU32 encodes v as little-endian into the first 4 bytes of out.
func packU32(out []byte, v uint32) {
	binary.LittleEndian.PutUint32(out, v)
}

// packU32Pair encodes a, b as consecutive little-endian uint32s into the
// first 8 bytes of out.
func packU32Pair(out []byte, a, b uint32) {
	binary.LittleEndian.PutUint32(out, a)
	binary.LittleEndian.PutUint32(out[4:], b)
}
