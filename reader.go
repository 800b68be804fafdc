// reader.go -- lookup and iteration over an existing CDB image
//
// (c) Sudhi Herle 2018
//
// Author: Sudhi Herle <sudhi@herle.net>
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package cdb

import "fmt"

const (
	headerSize  = 2048
	numTables   = 256
	minFileSize = headerSize + 8 + 8
)

// Reader is the query interface over a previously built CDB. It borrows
// a ByteImage for its lifetime and is stateless across queries: multiple
// goroutines may share one Reader (and the ValueIterator/RecordIterator
// it hands out) so long as each iterator is only driven by one goroutine
// at a time, because the image underneath is immutable.
type Reader struct {
	img   ByteImage
	cache *keyCache // nil unless WithCache was given
}

// ReaderOption configures optional Reader behavior.
type ReaderOption func(*Reader)

// WithCache bounds Reader.Get's opportunistic read cache to n entries.
// Only Get benefits from the cache; Find and Iter always walk the image,
// so duplicate-key ordering and full-iteration semantics are unaffected.
// n <= 0 disables caching (the default).
func WithCache(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.cache = newKeyCache(n)
		}
	}
}

// Open validates img's size and prepares it for querying. No further
// validation happens at this stage: bounds checks occur defensively on
// every lookup and on full iteration.
func Open(img ByteImage, opts ...ReaderOption) (*Reader, error) {
	n := img.Len()
	if n < minFileSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrBadFormat, n)
	}
	// keep offsets representable in a uint32 arithmetic pipeline
	if n >= 1<<32 {
		return nil, fmt.Errorf("%w: file too large (%d bytes)", ErrBadFormat, n)
	}

	r := &Reader{img: img}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Len returns the length in bytes of the underlying image.
func (r *Reader) Len() int { return r.img.Len() }

// slot reads the primary header entry for table i (0 <= i < 256),
// returning (hpos, hslots).
func (r *Reader) slot(i uint32) (uint32, uint32, bool) {
	b, ok := r.img.Slice(int(i)*8, int(i)*8+8)
	if !ok {
		return 0, 0, false
	}
	hpos, hslots, ok := unpackU32Pair(b)
	return hpos, hslots, ok
}

// Get returns the first value associated with key, or (nil, false) if
// there is none.
func (r *Reader) Get(key []byte) ([]byte, bool) {
	if r.cache != nil {
		if v, ok := r.cache.get(key); ok {
			if v == nil {
				return nil, false
			}
			return v, true
		}
	}

	v, ok := r.Find(key).Next()

	if r.cache != nil {
		if ok {
			r.cache.put(key, v)
		} else {
			r.cache.put(key, nil)
		}
	}
	return v, ok
}

// ValueIterator yields each value associated with a key, in the order
// those records were added to the database. It is a resumable
// finite-state machine: each call to Next resumes the linear probe
// where the previous call left off.
type ValueIterator struct {
	r      *Reader
	key    []byte
	khash  uint32
	hpos   uint32
	hslots uint32
	kpos   uint32
	probes uint32
	done   bool
}

// Find returns a lazy iterator over every value stored under key, in
// insertion order.
func (r *Reader) Find(key []byte) *ValueIterator {
	it := &ValueIterator{r: r, key: key}

	h := hash(key)
	i := h & 0xff

	hpos, hslots, ok := r.slot(i)
	if !ok || hslots == 0 {
		it.done = true
		return it
	}

	it.khash = h
	it.hpos = hpos
	it.hslots = hslots
	it.kpos = hpos + ((h>>8)%hslots)*8
	return it
}

// Next advances the probe chain and returns the next matching value, or
// (nil, false) once the chain is exhausted. Any out-of-bounds access
// mid-probe terminates the iteration rather than raising: a corrupt or
// truncated file simply behaves as one that doesn't contain the key.
func (it *ValueIterator) Next() ([]byte, bool) {
	if it.done {
		return nil, false
	}

	img := it.r.img
	tableEnd := it.hpos + it.hslots*8

	for it.probes < it.hslots {
		b, ok := img.Slice(int(it.kpos), int(it.kpos)+8)
		if !ok {
			it.done = true
			return nil, false
		}
		slotHash, rpos, ok := unpackU32Pair(b)
		if !ok {
			it.done = true
			return nil, false
		}

		if rpos == 0 {
			it.done = true
			return nil, false
		}

		it.probes++
		it.kpos += 8
		if it.kpos == tableEnd {
			it.kpos = it.hpos
		}

		if slotHash != it.khash {
			continue
		}

		lb, ok := img.Slice(int(rpos), int(rpos)+8)
		if !ok {
			it.done = true
			return nil, false
		}
		klen, dlen, ok := unpackU32Pair(lb)
		if !ok {
			it.done = true
			return nil, false
		}

		if int(klen) != len(it.key) {
			continue
		}

		kstart := rpos + 8
		kb, ok := img.Slice(int(kstart), int(kstart)+int(klen))
		if !ok {
			it.done = true
			return nil, false
		}
		if !bytesEqual(kb, it.key) {
			continue
		}

		dstart := kstart + klen
		db, ok := img.Slice(int(dstart), int(dstart)+int(dlen))
		if !ok {
			it.done = true
			return nil, false
		}
		return db, true
	}

	it.done = true
	return nil, false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Record is a single (key, value) pair returned by RecordIterator, in
// data-region (insertion) order. Both slices are owned copies, safe to
// retain past the next call to Next.
type Record struct {
	Key   []byte
	Value []byte
}

// RecordIterator walks every record in the data region, in the order
// they were written.
type RecordIterator struct {
	r       *Reader
	pos     uint32
	dataEnd uint32
	done    bool
	err     error
}

// Iter returns a lazy iterator over every (key, value) pair in the
// database, in insertion order.
func (r *Reader) Iter() *RecordIterator {
	it := &RecordIterator{r: r, pos: headerSize}

	hpos, _, ok := r.slot(0)
	if !ok {
		it.dataEnd = headerSize
		return it
	}

	dataEnd := hpos
	if n := uint32(r.img.Len()); dataEnd > n {
		dataEnd = n
	}
	it.dataEnd = dataEnd
	return it
}

// Next returns the next record, or (nil, nil) once the data region is
// exhausted. If a record's declared lengths run past the data region,
// Next returns a wrapped ErrBadFormat and ends the iteration -- this is
// the one place full iteration must surface an error rather than simply
// stopping, since otherwise it couldn't decide whether to advance.
func (it *RecordIterator) Next() (*Record, error) {
	if it.done {
		return nil, nil
	}

	if it.pos+8 >= it.dataEnd {
		it.done = true
		return nil, nil
	}

	lb, ok := it.r.img.Slice(int(it.pos), int(it.pos)+8)
	if !ok {
		it.done = true
		it.err = fmt.Errorf("%w: truncated record header at offset %d", ErrBadFormat, it.pos)
		return nil, it.err
	}
	klen, dlen, ok := unpackU32Pair(lb)
	if !ok {
		it.done = true
		it.err = fmt.Errorf("%w: truncated record header at offset %d", ErrBadFormat, it.pos)
		return nil, it.err
	}

	end := it.pos + 8 + klen + dlen
	if end < it.pos || end > it.dataEnd {
		it.done = true
		it.err = fmt.Errorf("%w: record at offset %d overruns data region", ErrBadFormat, it.pos)
		return nil, it.err
	}

	kb, ok := it.r.img.Slice(int(it.pos)+8, int(it.pos)+8+int(klen))
	if !ok {
		it.done = true
		it.err = fmt.Errorf("%w: truncated key at offset %d", ErrBadFormat, it.pos)
		return nil, it.err
	}
	db, ok := it.r.img.Slice(int(it.pos)+8+int(klen), int(end))
	if !ok {
		it.done = true
		it.err = fmt.Errorf("%w: truncated value at offset %d", ErrBadFormat, it.pos)
		return nil, it.err
	}

	rec := &Record{
		Key:   append([]byte(nil), kb...),
		Value: append([]byte(nil), db...),
	}
	it.pos = end
	return rec, nil
}
