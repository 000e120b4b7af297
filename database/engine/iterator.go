package engine

import (
	"github.com/syndtr/goleveldb/leveldb/errors"
)

// Iterator walks a Snapshot's key/value pairs in key order, the shape
// mempool/cache's entry scans (Open, at startup, and Wipe) need. Backed directly by the underlying
// engine's own iterator (leveldb.Iterator, pebble.Iterator), not a
// database/index-style abstraction with its own merge/comparator layer,
// since mempool/cache only ever walks a single engine at a time.
type Iterator interface {
	// First moves the iterator to the first key/value pair. If the iterator
	// only contains one key/value pair then First and Last would moves
	// to the same key/value pair.
	// It returns whether such pair exist.
	First() bool

	// Last moves the iterator to the last key/value pair. If the iterator
	// only contains one key/value pair then First and Last would moves
	// to the same key/value pair.
	// It returns whether such pair exist.
	Last() bool

	// Seek moves the iterator to the first key/value pair whose key is greater
	// than or equal to the given key.
	// It returns whether such pair exist.
	//
	// It is safe to modify the contents of the argument after Seek returns.
	Seek(key []byte) bool

	// Next moves the iterator to the next key/value pair.
	// It returns false if the iterator is exhausted.
	Next() bool

	// Prev moves the iterator to the previous key/value pair.
	// It returns false if the iterator is exhausted.
	Prev() bool

	Valid() bool

	// Error returns any accumulated error. Exhausting all the key/value pairs
	// is not considered to be an error.
	Error() error

	// Key returns the key of the current key/value pair, or nil if done.
	// The caller should not modify the contents of the returned slice, and
	// its contents may change on the next call to any 'seeks method'.
	Key() []byte

	// Value returns the value of the current key/value pair, or nil if done.
	// The caller should not modify the contents of the returned slice, and
	// its contents may change on the next call to any 'seeks method'.
	Value() []byte

	Releaser
}

// ErrIterReleased is returned by a released Iterator's positioning methods,
// surfaced by pebbledb's Iterator wrapper once its underlying pebble.Iterator
// has been closed.
var ErrIterReleased = errors.New("iterator: iterator released")

// Range is a key range: [Start, Limit). Used by mempool/cache's key-prefix
// scans over the entry key space.
type Range struct {
	// Start of the key range, include in the range.
	Start []byte

	// Limit of the key range, not include in the range.
	Limit []byte
}

// BytesPrefix returns the key range matching every key with the given
// prefix, the only Range constructor mempool/cache uses (its entryPfx
// prefix scans).
func BytesPrefix(prefix []byte) *Range {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			break
		}
	}
	return &Range{prefix, limit}
}
