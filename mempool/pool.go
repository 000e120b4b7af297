// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements the unconfirmed-transaction pool described in
// the project's mempool specification: admission, orphan resolution,
// spent-output bookkeeping, ancestor/descendant accounting, capacity-bounded
// eviction, and block-connection/disconnection/reorg reconciliation for a
// UTXO-based chain. Full script/signature verification, the blockchain
// database, and wire-protocol parsing are external collaborators injected
// through the chain package's interfaces.
package mempool

import (
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/CjMapope/wmcc-core/chain"
)

// chainOutpoint builds the 36-byte-key outpoint used by the spent map from
// a transaction hash and output index.
func chainOutpoint(hash chainhash.Hash, index uint32) chain.Outpoint {
	return chain.Outpoint{Hash: hash, Index: index}
}

// Pool is the mempool engine (spec §3), split across the two lock modes
// spec §5 describes: mu.RLock covers the read-only bulk of an admission
// (steps 1-10 of insertTx, spec §4.1) so distinct-hash admissions verify
// concurrently with each other, including the blocking calls into Chain
// and WorkerPool; mu.Lock is taken only for the final commit (steps 11-12)
// and for block/reorg handling, which must see and mutate a consistent
// snapshot excluding every in-flight admission. The per-hash mutex set
// (hashMu) serializes co-admission of the *same* hash on top of that,
// since two goroutines racing insertTx for an identical transaction would
// otherwise both pass validation before either commits. orphans and
// rejects guard their own internals so they may be touched from either
// lock mode; freeMu separately guards the free-relay throttle counters so
// verify (running under mu.RLock) can still update them safely.
type Pool struct {
	cfg Config

	mu sync.RWMutex

	byHash  map[chainhash.Hash]*Entry
	spent   map[chain.Outpoint]*Entry
	orphans *orphanPool
	rejects *RollingFilter

	size uint64
	tip  chainhash.Hash

	pending map[chainhash.Hash]bool // hashes with an AddTx waiting on the per-hash lock.
	hashMu  map[chainhash.Hash]*sync.Mutex
	hashMuL sync.Mutex

	freeMu       sync.Mutex
	freeCount    float64
	lastFreeTime int64

	lastFlushTime time.Time

	notifier

	index AddrIndexer
}

// New constructs a Pool from cfg. Chain is the only mandatory collaborator;
// WorkerPool, FeeEstimator, Cache, and AddrIndex may all be nil to disable
// the functionality they back (spec §5: "the fee estimator may be absent").
func New(cfg Config) (*Pool, error) {
	if cfg.Chain == nil {
		return nil, fmt.Errorf("mempool: Config.Chain is required")
	}
	if cfg.Policy.MaxAncestors <= 0 {
		cfg.Policy.MaxAncestors = DefaultPolicy().MaxAncestors
	}
	if cfg.Policy.MaxSize == 0 {
		cfg.Policy.MaxSize = DefaultPolicy().MaxSize
	}
	if cfg.Policy.MaxOrphans == 0 {
		cfg.Policy.MaxOrphans = cfg.Policy.MaxOrphanTxs
	}
	if cfg.Policy.MaxOrphanTxs == 0 {
		cfg.Policy.MaxOrphanTxs = cfg.Policy.MaxOrphans
	}

	p := &Pool{
		cfg:     cfg,
		byHash:  make(map[chainhash.Hash]*Entry),
		spent:   make(map[chain.Outpoint]*Entry),
		orphans: newOrphanPool(),
		rejects: NewRollingFilter(50000),
		pending: make(map[chainhash.Hash]bool),
		hashMu:  make(map[chainhash.Hash]*sync.Mutex),
		tip:     cfg.Chain.Tip(),
	}
	if cfg.Policy.IndexAddress {
		p.index = cfg.AddrIndex
	}

	if cfg.Cache != nil {
		if err := p.loadCache(); err != nil {
			return nil, fmt.Errorf("mempool: loading cache: %w", err)
		}
	}

	return p, nil
}

// lockHash acquires the per-hash mutex for hash, serializing co-admission
// of the same transaction id (spec §5) without blocking admission of any
// other hash. Callers must also hold mu.RLock while running the admission
// pipeline, so a global lock (mu.Lock, used by block/reorg handling)
// excludes every in-flight admission.
func (p *Pool) lockHash(hash chainhash.Hash) func() {
	p.hashMuL.Lock()
	m, ok := p.hashMu[hash]
	if !ok {
		m = &sync.Mutex{}
		p.hashMu[hash] = m
	}
	p.hashMuL.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		p.hashMuL.Lock()
		delete(p.hashMu, hash)
		p.hashMuL.Unlock()
	}
}

// Size returns the pool's current byte budget consumption (spec §3, `size`).
func (p *Pool) Size() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.size
}

// Count returns the number of entries resident in the pool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byHash)
}

// Tip returns the block hash the pool's state is currently valid against.
func (p *Pool) Tip() chainhash.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tip
}

// HaveTransaction reports whether hash is resident in the pool proper.
func (p *Pool) HaveTransaction(hash chainhash.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byHash[hash]
	return ok
}

// HaveOrphan reports whether hash is buffered in the orphan pool.
func (p *Pool) HaveOrphan(hash chainhash.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.orphans.has(hash)
}

// Entry returns the pool's tracked entry for hash, or nil.
func (p *Pool) Entry(hash chainhash.Hash) *Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byHash[hash]
}

// exists implements spec §4.1 step 6's "known-ness" test: in the main map,
// queued by AddTx on the per-hash lock, or buffered as an orphan. Callers must hold
// at least mu.RLock.
func (p *Pool) exists(hash chainhash.Hash) bool {
	if _, ok := p.byHash[hash]; ok {
		return true
	}
	if p.pending[hash] {
		return true
	}
	return p.orphans.has(hash)
}

// isDoubleSpend reports whether any input of tx conflicts with an
// already-tracked entry (spec §4.1 step 7, §4.2). Callers must hold at
// least mu.RLock.
func (p *Pool) isDoubleSpend(tx *chain.Tx) (*Entry, bool) {
	for _, in := range tx.MsgTx().TxIn {
		if e, ok := p.spent[in.PreviousOutPoint]; ok {
			return e, true
		}
	}
	return nil, false
}

// trackEntry records entry into every primary structure: by_hash, spent,
// size, and the secondary address index if enabled (spec §4.1 step 11,
// `track_entry`). Callers must hold mu (write).
func (p *Pool) trackEntry(entry *Entry, view chain.CoinView) {
	hash := entry.Hash()
	p.byHash[hash] = entry
	for _, in := range entry.Tx.MsgTx().TxIn {
		p.spent[in.PreviousOutPoint] = entry
	}
	p.size += entry.MemUsage()

	if p.index != nil {
		p.index.AddUnconfirmedTx(entry, view)
	}
}

// untrackEntry is the inverse of trackEntry, called from removeEntry and
// evictEntry (spec §4.1, `untrack_entry`). Callers must hold mu (write).
func (p *Pool) untrackEntry(entry *Entry, view chain.CoinView) {
	hash := entry.Hash()
	delete(p.byHash, hash)
	for _, in := range entry.Tx.MsgTx().TxIn {
		if p.spent[in.PreviousOutPoint] == entry {
			delete(p.spent, in.PreviousOutPoint)
		}
	}
	p.size -= entry.MemUsage()

	if p.index != nil {
		p.index.RemoveUnconfirmedTx(entry, view)
	}

	if p.cfg.Cache != nil {
		if err := p.cfg.Cache.DeleteEntry(hash); err != nil {
			log.Warnf("mempool: cache delete %v: %v", hash, err)
		}
	}
	if p.cfg.FeeEstimator != nil {
		p.cfg.FeeEstimator.ObserveRemove(hash)
	}
}

// removeEntry removes entry because it was confirmed in a block: its
// descendant rollups are unwound from every ancestor, it is untracked, and
// a `confirmed` event is emitted (spec §4.6).
func (p *Pool) removeEntry(entry *Entry) {
	p.updateAncestors(entry, removeFee)
	p.untrackEntry(entry, nil)
	p.emit(&Event{Type: EventConfirmed, Tx: entry.Tx, Entry: entry})
}

// evictEntry removes entry for any reason other than confirmation
// (eviction, conflict, reorg): every in-pool spender of its outputs is
// evicted first so no dangling `spent` reference survives, then its
// descendant rollups are unwound and it is untracked (spec §4.2, §4.4,
// §4.6, `evict_entry`).
func (p *Pool) evictEntry(entry *Entry, reason EventType) {
	if _, ok := p.byHash[entry.Hash()]; !ok {
		return
	}

	hash := entry.Hash()
	for i := range entry.Tx.MsgTx().TxOut {
		if child, ok := p.spent[chainOutpoint(hash, uint32(i))]; ok && child != entry {
			p.evictEntry(child, reason)
		}
	}

	p.updateAncestors(entry, removeFee)
	p.untrackEntry(entry, nil)
	p.emit(&Event{Type: reason, Tx: entry.Tx, Entry: entry})
}

// removeDoubleSpends evicts every in-pool spender of any input tx consumes,
// other than tx itself, recursively (spec §4.2, §4.6, `remove_double_spends`).
func (p *Pool) removeDoubleSpends(tx *chain.Tx) {
	hash := tx.Hash()
	for _, in := range tx.MsgTx().TxIn {
		if entry, ok := p.spent[in.PreviousOutPoint]; ok && entry.Hash() != hash {
			p.evictEntry(entry, EventRemoveEntry)
		}
	}
}

// Prioritise adjusts entry's manual fee delta by delta, unwinding
// (`pre_prioritise`) and rebuilding (`post_prioritise`) every ancestor's
// descendant rollup around the change so the fee-rollup invariant (spec §8,
// I7) is preserved. This operation is infallible (spec §7).
func (p *Pool) Prioritise(hash chainhash.Hash, delta btcutil.Amount) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.byHash[hash]
	if !ok {
		return
	}

	p.updateAncestors(entry, func(parent, child *Entry) { parent.DescFee -= child.DeltaFee })
	entry.DeltaFee += delta
	entry.DescFee += delta
	p.updateAncestors(entry, func(parent, child *Entry) { parent.DescFee += child.DeltaFee })
}

// TxHashes returns every transaction hash currently resident in the pool.
func (p *Pool) TxHashes() []chainhash.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]chainhash.Hash, 0, len(p.byHash))
	for h := range p.byHash {
		out = append(out, h)
	}
	return out
}
