// cache.go -- optional opportunistic cache for Reader.Get
//
// Grounded on opencoff-go-chd/dbreader.go's `cache *lru.ARCCache` /
// NewDBReader(fn, cache) pattern.
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
	lru "github.com/opencoff/golang-lru"
)

// keyCache memoizes Reader.Get results keyed by the raw key bytes.
type keyCache struct {
	arc *lru.ARCCache
}

func newKeyCache(n int) *keyCache {
	arc, err := lru.NewARC(n)
	if err != nil {
		// n <= 0 is the only failure mode and WithCache already
		// filters that out before calling here.
		panic(err)
	}
	return &keyCache{arc: arc}
}

func (c *keyCache) get(key []byte) ([]byte, bool) {
	v, ok := c.arc.Get(string(key))
	if !ok {
		return nil, false
	}
	// a cached "absent" lookup is stored as a nil []byte, distinguished
	// from a cache miss by the found bool.
	return v.([]byte), true
}

func (c *keyCache) put(key []byte, val []byte) {
	c.arc.Add(string(key), val)
}
