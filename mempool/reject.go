// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/lru"
)

// RollingFilter is the approximate, bounded-memory set of recently-rejected
// transaction hashes spec §3/§8 calls `rejects`: false positives are
// tolerable (a legitimate retransmission may occasionally be dropped), but
// no false negatives are required beyond what the underlying cache's
// eviction naturally produces. Grounded on the teacher's
// peer/p2pdowngrader.go, which wraps the same decred/dcrd/lru.Cache for an
// identical bounded set: a hash is reported only if it was added, but an
// added hash may be forgotten once evicted.
type RollingFilter struct {
	mu    sync.Mutex
	size  uint
	cache lru.Cache
}

// NewRollingFilter returns a filter capped at size recently-added hashes.
func NewRollingFilter(size uint) *RollingFilter {
	return &RollingFilter{size: size, cache: lru.NewCache(size)}
}

// Add records hash as rejected.
func (f *RollingFilter) Add(hash chainhash.Hash) {
	f.mu.Lock()
	f.cache.Add(hash)
	f.mu.Unlock()
}

// Contains reports whether hash was recently rejected. May return false
// negatives once the cache has rolled the entry out.
func (f *RollingFilter) Contains(hash chainhash.Hash) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cache.Contains(hash)
}

// Reset clears the filter, called on every block connection (spec §4.6) so
// a transaction rejected only because it conflicted with the previous tip
// gets a fresh chance once the chain has moved on.
func (f *RollingFilter) Reset() {
	f.mu.Lock()
	f.cache = lru.NewCache(f.size)
	f.mu.Unlock()
}
