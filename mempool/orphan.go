// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/CjMapope/wmcc-core/chain"
)

// Tag identifies who relayed an orphan, most commonly a peer id, so every
// orphan one peer contributed can be purged together (orphanPool.removeByTag)
// without waiting for TTL expiry. Pool does not export that purge. Grounded
// on the teacher's mempool.Tag.
type Tag int64

// orphan is a transaction buffered because one or more of its inputs'
// parent outputs are not yet visible (spec §3). The transaction itself is
// kept as serialized bytes, not a parsed structure, to bound memory and
// defer re-parsing cost until (if ever) its parents arrive (spec §9:
// "orphan storage as raw bytes"); only the previous-outpoint hashes needed
// to unwind the waiting index on removal are cached alongside it.
type orphan struct {
	raw        []byte
	prevHashes []chainhash.Hash
	origPeer   int64
	tag        Tag
	missing    int
	expiration time.Time
}

// parse reconstructs the buffered transaction, called only when the orphan
// is about to be replayed through admission.
func (o *orphan) parse() (*chain.Tx, error) {
	msgTx := &wire.MsgTx{}
	if err := msgTx.Deserialize(bytes.NewReader(o.raw)); err != nil {
		return nil, err
	}
	return chain.NewTx(msgTx), nil
}

// orphanPool is the buffer of transactions with unresolved parents (spec
// §3, §4.5). It guards its own fields with a dedicated mutex, the same way
// RollingFilter self-guards its cache, so it can be called from admission
// (running under Pool's read lock, spec §5) and from block/reorg handling
// (running under Pool's write lock) without either caller needing to
// reason about orphanPool's internals.
type orphanPool struct {
	mu sync.Mutex

	orphans map[chainhash.Hash]*orphan
	waiting map[chainhash.Hash]map[chainhash.Hash]bool

	nextExpireScan time.Time
}

func newOrphanPool() *orphanPool {
	return &orphanPool{
		orphans: make(map[chainhash.Hash]*orphan),
		waiting: make(map[chainhash.Hash]map[chainhash.Hash]bool),
	}
}

// has reports whether hash is buffered as an orphan.
func (o *orphanPool) has(hash chainhash.Hash) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.orphans[hash]
	return ok
}

// add enrolls tx as an orphan waiting on missing, recording tag so a
// rejection later can be attributed to the correct peer (spec §4.1 step 9,
// §4.5).
func (o *orphanPool) add(tx *chain.Tx, tag Tag, originPeer int64, missing []chainhash.Hash, ttl time.Duration) {
	var buf bytes.Buffer
	if err := tx.MsgTx().Serialize(&buf); err != nil {
		// Serialization of an already-decoded transaction cannot
		// realistically fail; if it does there's nothing useful to
		// buffer.
		return
	}

	prevHashes := make([]chainhash.Hash, 0, len(tx.MsgTx().TxIn))
	for _, in := range tx.MsgTx().TxIn {
		prevHashes = append(prevHashes, in.PreviousOutPoint.Hash)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	hash := tx.Hash()
	o.orphans[hash] = &orphan{
		raw:        buf.Bytes(),
		prevHashes: prevHashes,
		origPeer:   originPeer,
		tag:        tag,
		missing:    len(missing),
		expiration: time.Now().Add(ttl),
	}
	for _, parent := range missing {
		set, ok := o.waiting[parent]
		if !ok {
			set = make(map[chainhash.Hash]bool)
			o.waiting[parent] = set
		}
		set[hash] = true
	}
}

// remove deletes hash from the orphan pool and every waiting[parent] set it
// belongs to, per spec §4.5's `remove_orphan`.
func (o *orphanPool) remove(hash chainhash.Hash) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.removeLocked(hash)
}

func (o *orphanPool) removeLocked(hash chainhash.Hash) {
	otx, ok := o.orphans[hash]
	if !ok {
		return
	}
	delete(o.orphans, hash)

	for _, parent := range otx.prevHashes {
		set, ok := o.waiting[parent]
		if !ok {
			continue
		}
		delete(set, hash)
		if len(set) == 0 {
			delete(o.waiting, parent)
		}
	}
}

// removeByTag removes every orphan tagged with tag, for use when a peer
// disconnects (supplemented feature, grounded on the teacher's
// RemoveOrphansByTag).
func (o *orphanPool) removeByTag(tag Tag) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	var removed int
	for hash, otx := range o.orphans {
		if otx.tag == tag {
			o.removeLocked(hash)
			removed++
		}
	}
	return removed
}

// expireScan evicts every orphan past its TTL, throttled to run at most
// once per interval (supplemented feature: orphan TTL alongside spec
// §4.5's capacity-triggered random eviction, grounded on the teacher's
// orphanTTL/orphanExpireScanInterval).
func (o *orphanPool) expireScan(interval time.Duration) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.expireScanLocked(interval)
}

func (o *orphanPool) expireScanLocked(interval time.Duration) int {
	now := time.Now()
	if now.Before(o.nextExpireScan) {
		return 0
	}
	o.nextExpireScan = now.Add(interval)

	var expired int
	for hash, otx := range o.orphans {
		if now.After(otx.expiration) {
			o.removeLocked(hash)
			expired++
		}
	}
	return expired
}

// limit enforces maxOrphans by uniformly-random deletion once the pool is
// at capacity (spec §4.5, `limit_orphans`). Go's map iteration order is
// randomized per-run, which is sufficient here: an adversary would need a
// hash preimage to target a specific victim.
func (o *orphanPool) limit(maxOrphans int, ttl, scanInterval time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.expireScanLocked(scanInterval)

	for len(o.orphans) > 0 && len(o.orphans) >= maxOrphans {
		for hash := range o.orphans {
			o.removeLocked(hash)
			break
		}
	}
}

// resolve looks up every orphan waiting on parent, decrements its missing
// count, and returns those that have reached zero (spec §4.5,
// `resolve_orphans`). The waiting[parent] entry is deleted regardless of
// outcome, mirroring the spec's exact wording.
func (o *orphanPool) resolve(parent chainhash.Hash) []*orphan {
	o.mu.Lock()
	defer o.mu.Unlock()

	set, ok := o.waiting[parent]
	if !ok {
		return nil
	}
	delete(o.waiting, parent)

	var ready []*orphan
	for hash := range set {
		otx, ok := o.orphans[hash]
		if !ok {
			continue
		}
		otx.missing--
		if otx.missing <= 0 {
			ready = append(ready, otx)
		}
	}
	return ready
}

// count returns the number of buffered orphans.
func (o *orphanPool) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.orphans)
}
