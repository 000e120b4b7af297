// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// feeCallback is applied to every (ancestor, originating-child) pair a
// descendant-sum traversal visits (spec §4.3). child is always the entry
// the walk started from, never the immediate predecessor in the walk, so a
// single call correctly folds a multi-hop ancestor's contribution exactly
// once per originating entry.
type feeCallback func(ancestor, child *Entry)

// addFee is the ancestor-update callback used on admission (spec §4.3):
// every ancestor's descendant-rollup absorbs the newly admitted child's
// delta fee and size.
func addFee(ancestor, child *Entry) {
	ancestor.DescFee += child.DeltaFee
	ancestor.DescSize += child.Size
}

// removeFee is the ancestor-update callback used when an entry (and
// everything it has already rolled up) leaves the pool (spec §4.3).
func removeFee(ancestor, child *Entry) {
	ancestor.DescFee -= child.DescFee
	ancestor.DescSize -= child.DescSize
}

// ancestors returns every in-pool parent transaction of entry, direct or
// transitive, by walking spent-map ownership backwards through inputs.
// visited bounds the walk so a given ancestor is never processed twice.
func (p *Pool) ancestors(entry *Entry, visited map[chainhash.Hash]bool) []*Entry {
	var out []*Entry
	p.walkAncestors(entry, visited, func(a *Entry) {
		out = append(out, a)
	})
	return out
}

func (p *Pool) walkAncestors(entry *Entry, visited map[chainhash.Hash]bool, visit func(*Entry)) {
	for _, in := range entry.Tx.MsgTx().TxIn {
		parent, ok := p.byHash[in.PreviousOutPoint.Hash]
		if !ok {
			continue
		}
		if visited[parent.Hash()] {
			continue
		}
		visited[parent.Hash()] = true
		visit(parent)
		p.walkAncestors(parent, visited, visit)
	}
}

// countAncestors returns the number of distinct in-pool ancestors of entry
// (spec §4.3, `count_ancestors`).
func (p *Pool) countAncestors(entry *Entry) int {
	visited := make(map[chainhash.Hash]bool)
	return len(p.ancestors(entry, visited))
}

// updateAncestors walks every in-pool ancestor of entry and applies f,
// bounded by MaxAncestors so a pathological chain cannot make admission
// unbounded (spec §4.3, `update_ancestors`). child is always entry itself,
// matching the spec's note that the callback's second argument is the
// originating entry, not the immediate descendant encountered mid-walk.
func (p *Pool) updateAncestors(entry *Entry, f feeCallback) {
	visited := make(map[chainhash.Hash]bool)
	count := 0
	p.walkAncestors(entry, visited, func(a *Entry) {
		if count >= p.cfg.Policy.MaxAncestors {
			return
		}
		count++
		f(a, entry)
	})
}

// descendants returns every in-pool transaction that (directly or
// transitively) spends an output of entry, discovered via the spent map
// (spec §4.3, `get_descendants`).
func (p *Pool) descendants(entry *Entry, visited map[chainhash.Hash]bool) []*Entry {
	var out []*Entry
	p.walkDescendants(entry, visited, func(d *Entry) {
		out = append(out, d)
	})
	return out
}

func (p *Pool) walkDescendants(entry *Entry, visited map[chainhash.Hash]bool, visit func(*Entry)) {
	hash := entry.Hash()
	for i := range entry.Tx.MsgTx().TxOut {
		op := chainOutpoint(hash, uint32(i))
		child, ok := p.spent[op]
		if !ok {
			continue
		}
		if visited[child.Hash()] {
			continue
		}
		visited[child.Hash()] = true
		visit(child)
		p.walkDescendants(child, visited, visit)
	}
}

// countDescendants returns the number of distinct in-pool descendants of
// entry (spec §4.3, `count_descendants`).
func (p *Pool) countDescendants(entry *Entry) int {
	visited := make(map[chainhash.Hash]bool)
	return len(p.descendants(entry, visited))
}

// hasDepends reports whether any in-pool transaction spends one of entry's
// outputs, used by limit_size's expiry pass (spec §4.4: `has_depends`).
func (p *Pool) hasDepends(entry *Entry) bool {
	hash := entry.Hash()
	for i := range entry.Tx.MsgTx().TxOut {
		if _, ok := p.spent[chainOutpoint(hash, uint32(i))]; ok {
			return true
		}
	}
	return false
}
