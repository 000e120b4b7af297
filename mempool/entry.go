// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/CjMapope/wmcc-core/chain"
)

// Entry wraps a pool-resident transaction with the bookkeeping the
// admission pipeline, ancestor/descendant walks, and eviction comparator
// all need (spec §3, MempoolEntry).
type Entry struct {
	Tx *chain.Tx

	// Time is the wall-clock moment the transaction was admitted.
	Time time.Time

	// Height is the chain height at admission time, or -1 for
	// transactions reinstated by a block disconnection (spec §4.6).
	Height int32

	// Fee is the transaction's own fee in satoshis.
	Fee btcutil.Amount

	// Size is the transaction's serialized size in bytes.
	Size int64

	// SigOpCost is the transaction's own weighted signature operation
	// cost.
	SigOpCost int

	// Priority is the coin-age priority computed at admission time, used
	// by the free-relay gate (is_free).
	Priority float64

	// DeltaFee is the manually adjusted fee used for descendant rollups
	// and eviction ranking; starts out equal to Fee and is only changed
	// by Prioritise.
	DeltaFee btcutil.Amount

	// DescFee is the descendant-updated fee: DeltaFee plus every
	// in-pool descendant's DeltaFee, refreshed by update_ancestors.
	DescFee btcutil.Amount

	// DescSize is the descendant-updated size: Size plus every in-pool
	// descendant's Size.
	DescSize int64

	// OriginPeer identifies who relayed this transaction (or -1 if it
	// originated locally), carried along so that an orphan promoted
	// through handle_orphans can still be attributed correctly.
	OriginPeer int64
}

// NewEntry builds an Entry for a freshly-admitted transaction. Ancestor
// rollups are seeded to the transaction's own fee/size and corrected by
// update_ancestors once the entry is tracked.
func NewEntry(tx *chain.Tx, height int32, fee btcutil.Amount, sigOpCost int,
	priority float64, originPeer int64) *Entry {

	size := int64(tx.SerializeSize())
	return &Entry{
		Tx:         tx,
		Time:       time.Now(),
		Height:     height,
		Fee:        fee,
		Size:       size,
		SigOpCost:  sigOpCost,
		Priority:   priority,
		DeltaFee:   fee,
		DescFee:    fee,
		DescSize:   size,
		OriginPeer: originPeer,
	}
}

// Hash returns the entry's transaction hash.
func (e *Entry) Hash() chainhash.Hash { return e.Tx.Hash() }

// FeeRate returns the entry's own fee rate in satoshis per byte.
func (e *Entry) FeeRate() float64 {
	if e.Size == 0 {
		return 0
	}
	return float64(e.DeltaFee) / float64(e.Size)
}

// DescFeeRate returns the descendant-package fee rate in satoshis per byte.
func (e *Entry) DescFeeRate() float64 {
	if e.DescSize == 0 {
		return 0
	}
	return float64(e.DescFee) / float64(e.DescSize)
}

// freePriorityThreshold is the coin-age priority an entry must clear to
// qualify for free relay, matching Bitcoin Core's AllowFree heuristic:
// one COIN aged one day (144 blocks) in a 250-byte transaction,
// COIN * 144 / 250.
const freePriorityThreshold = float64(btcutil.SatoshiPerBitcoin) * 144 / 250

// IsFree reports whether the entry qualifies for free relay, per the
// classic coin-age-priority rule.
func (e *Entry) IsFree(height int32) bool {
	return e.Priority > freePriorityThreshold
}

// mempoolEntrySize is the approximate static size, in bytes, charged for an
// Entry's own bookkeeping overhead on top of the transaction it wraps, used
// by MemUsage as a floor so accounting never reports a degenerate zero.
const mempoolEntrySize = 200
