// hash.go -- the CDB hash function
//
// See http://cr.yp.to/cdb/cdb.txt for the original specification.
//
// (c) Sudhi Herle 2018
//
// Author: Sudhi Herle <sudhi@herle.net>
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdb

// hash computes the classic djb CDB hash of b. This is fixed by the
// on-disk format -- it is not a pluggable hash function.
//
//	h = 5381
//	for each byte c of b: h = ((h << 5) + h) ^ c
func hash(b []byte) uint32 {
	var h uint32 = 5381
	for _, c := range b {
		h = ((h << 5) + h) ^ uint32(c)
	}
	return h
}
