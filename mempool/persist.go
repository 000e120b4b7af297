// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/CjMapope/wmcc-core/chain"
	"github.com/CjMapope/wmcc-core/mempool/feeestimator"
)

// cacheFlushThrottle bounds how often an individual admission may trigger a
// cache write, per spec §4.7: "throttle (>= 10s between admissions)".
const cacheFlushThrottle = 10 * time.Second

// loadCache reconstructs pool state from Config.Cache at startup (spec
// §4.7). Entries are tracked in a first pass, then a second pass runs
// update_ancestors(add_fee) over every one of them so descendant sums are
// correct without depending on load order.
func (p *Pool) loadCache() error {
	entries, err := p.cfg.Cache.Open(func() [32]byte { return p.cfg.Chain.Tip() })
	if err != nil {
		return err
	}

	p.tip = p.cfg.Chain.Tip()

	view := chain.NewMapCoinView()
	for _, entry := range entries {
		p.trackEntry(entry, view)
	}
	for _, entry := range entries {
		p.updateAncestors(entry, addFee)
	}

	if p.cfg.FeeEstimator != nil {
		if blob, err := p.cfg.Cache.FeeEstimatorBlob(); err == nil && len(blob) > 0 {
			if est, err := feeestimator.Load(blob); err == nil {
				p.cfg.FeeEstimator.LoadFrom(est)
			}
		}
	}

	return nil
}

// persistEntry writes entry through to the cache, throttled so a burst of
// admissions does not turn every one into a disk write (spec §4.7).
func (p *Pool) persistEntry(entry *Entry) {
	if p.cfg.Cache == nil {
		return
	}
	if err := p.cfg.Cache.PutEntry(entry); err != nil {
		log.Warnf("mempool: cache put %v: %v", entry.Hash(), err)
		return
	}

	if !p.lastFlushTime.IsZero() && time.Since(p.lastFlushTime) < cacheFlushThrottle {
		return
	}
	p.flushCache()
}

// flushCache forces the cache batch out and updates the tip pointer,
// called unconditionally at every block boundary (spec §4.6, §4.7) and,
// throttle permitting, from persistEntry.
func (p *Pool) flushCache() {
	p.lastFlushTime = time.Now()

	if p.cfg.Cache == nil {
		return
	}
	if err := p.cfg.Cache.SetTip(p.tip); err != nil {
		log.Warnf("mempool: cache set tip: %v", err)
	}
	if p.cfg.FeeEstimator != nil {
		if err := p.cfg.Cache.PutFeeEstimator(p.cfg.FeeEstimator.Serialize()); err != nil {
			log.Warnf("mempool: cache put fee estimator: %v", err)
		}
	}
	if err := p.cfg.Cache.Flush(); err != nil {
		log.Warnf("mempool: cache flush: %v", err)
	}
}
