// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/CjMapope/wmcc-core/chain"
)

// AddBlock reconciles the pool against a newly connected block (spec
// §4.6). It holds the global write lock for its entire duration, excluding
// every concurrent admission.
func (p *Pool) AddBlock(block *chain.BlockHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var confirmed []chainhash.Hash
	for i := len(block.Txs) - 1; i >= 0; i-- {
		tx := block.Txs[i]
		hash := tx.Hash()

		if entry, ok := p.byHash[hash]; ok {
			p.removeEntry(entry)
			confirmed = append(confirmed, hash)
			continue
		}

		p.orphans.remove(hash)
		p.removeDoubleSpends(tx)

		if _, waiting := p.orphans.waiting[hash]; waiting {
			p.handleOrphans(hash, -1)
		}
	}

	p.rejects.Reset()
	if p.cfg.FeeEstimator != nil {
		p.cfg.FeeEstimator.ObserveBlock(block.Height, confirmed)
	}
	p.tip = block.Hash
	p.flushCache()
}

// RemoveBlock reinstates a disconnected block's non-coinbase transactions
// as unconfirmed (spec §4.6). Per-tx errors are emitted as `error` events
// and do not abort the batch.
func (p *Pool) RemoveBlock(block *chain.BlockHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, tx := range block.Txs {
		hash := tx.Hash()
		if _, ok := p.byHash[hash]; ok {
			continue
		}

		if _, err := p.insertTxLocked(context.Background(), tx, -1, -1, false); err != nil {
			p.emit(&Event{Type: EventError, Tx: tx, Err: err})
			continue
		}
		p.emit(&Event{Type: EventUnconfirmed, Tx: tx})
	}

	p.rejects.Reset()
	p.tip = block.PrevHash
	p.flushCache()
}

// HandleReorg scans every resident entry and evicts any that are no longer
// valid at the reorganized chain's new tip: non-final, subject to
// unsatisfied sequence locks, or (impossibly, but checked defensively)
// coinbase (spec §4.6, `handle_reorg`).
func (p *Pool) HandleReorg() {
	p.mu.Lock()
	defer p.mu.Unlock()

	view := chain.NewMapCoinView()

	var evict []*Entry
	for _, entry := range p.byHash {
		if entry.Tx.IsCoinBase() {
			evict = append(evict, entry)
			continue
		}
		if !p.cfg.Chain.VerifyFinal(p.tip, entry.Tx, chain.StandardLocktimeVerifyFlags) {
			evict = append(evict, entry)
			continue
		}
		if err := p.cfg.Chain.VerifyLocks(p.tip, entry.Tx, view, chain.StandardLocktimeVerifyFlags); err != nil {
			evict = append(evict, entry)
			continue
		}
	}

	for _, entry := range evict {
		p.evictEntry(entry, EventRemoveEntry)
	}
}

// Reset empties every pool structure and, if a Cache is configured, wipes
// its on-disk contents (spec §4.6, `reset`).
func (p *Pool) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.byHash = make(map[chainhash.Hash]*Entry)
	p.spent = make(map[chain.Outpoint]*Entry)
	p.orphans = newOrphanPool()
	p.rejects.Reset()
	p.size = 0
	p.freeCount = 0
	p.lastFreeTime = 0
	p.tip = p.cfg.Chain.Tip()

	if p.cfg.Cache != nil {
		return p.cfg.Cache.Wipe()
	}
	return nil
}
