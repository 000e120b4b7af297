// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"container/heap"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// cmpRate is the eviction comparator spec §4.4 names: it picks the lesser
// of an entry's own fee rate and its descendant-package fee rate, so a
// cheap transaction cannot hide behind an expensive descendant; an
// expensive transaction with a cheap child ranks at the package rate. Ties
// break toward the older entry.
func cmpRate(a, b *Entry) bool {
	ra := effectiveRate(a)
	rb := effectiveRate(b)
	if ra != rb {
		return ra < rb
	}
	return a.Time.Before(b.Time)
}

// effectiveRate returns the lesser of e's own fee rate and its
// descendant-package fee rate. The cross-multiplied test descFee*size >
// deltaFee*descSize (package rate above own rate) picks the own rate
// without a division; otherwise the smaller of the two float64 rates wins.
func effectiveRate(e *Entry) float64 {
	own := e.FeeRate()
	desc := e.DescFeeRate()
	// descFee*size > deltaFee*descSize  <=>  desc-rate > own-rate.
	if float64(e.DescFee)*float64(e.Size) > float64(e.DeltaFee)*float64(e.DescSize) {
		return own
	}
	if desc < own {
		return desc
	}
	return own
}

// feeHeap is a min-heap of pool entries ordered by cmpRate, backing
// limit_size's eviction candidate selection (spec §4.4).
type feeHeap []*Entry

func (h feeHeap) Len() int            { return len(h) }
func (h feeHeap) Less(i, j int) bool  { return cmpRate(h[i], h[j]) }
func (h feeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *feeHeap) Push(x interface{}) { *h = append(*h, x.(*Entry)) }
func (h *feeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// limitSize enforces MaxSize by first expiring dependency-free entries past
// their TTL, then evicting lowest-rate entries until the pool has room to
// spare (spec §4.4). It reports whether the just-admitted entry (identified
// by hash) is no longer present, so the caller can report a "mempool full"
// admission failure instead of a false success.
func (p *Pool) limitSize(justAdded chainhash.Hash) bool {
	if p.size <= p.cfg.Policy.MaxSize {
		return false
	}

	now := time.Now()
	target := p.cfg.Policy.MaxSize - p.cfg.Policy.MaxSize/10

	var candidates feeHeap
	for _, entry := range p.byHash {
		if !p.hasDepends(entry) && now.Sub(entry.Time) >= p.cfg.Policy.ExpiryTime {
			p.evictEntry(entry, EventRemoveEntry)
			continue
		}
		candidates = append(candidates, entry)
	}
	heap.Init(&candidates)

	for p.size > target && candidates.Len() > 0 {
		victim := heap.Pop(&candidates).(*Entry)
		if _, ok := p.byHash[victim.Hash()]; !ok {
			// Already gone (evicted as a spender of an earlier
			// victim in this same pass).
			continue
		}
		p.evictEntry(victim, EventRemoveEntry)
	}

	_, stillPresent := p.byHash[justAdded]
	return !stillPresent
}
