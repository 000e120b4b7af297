// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "github.com/CjMapope/wmcc-core/chain"

// EventType names one of the observable notifications spec §5 requires the
// engine to emit, in program order, on the goroutine that produced it.
type EventType int

const (
	// EventTx fires once per successfully-admitted transaction, before
	// EventAddEntry.
	EventTx EventType = iota

	// EventAddEntry fires when an Entry is tracked into the pool.
	EventAddEntry

	// EventAddOrphan fires when a transaction is enrolled in the orphan
	// pool for missing parents.
	EventAddOrphan

	// EventConfirmed fires for each pool entry pruned by a connecting
	// block.
	EventConfirmed

	// EventRemoveEntry fires whenever an entry leaves the pool for any
	// reason other than confirmation (eviction, conflict, reorg).
	EventRemoveEntry

	// EventRemoveOrphan names the orphan-removal notification. No code
	// path in this package emits it: orphans leave the orphan pool
	// (promotion, block inclusion, TTL or capacity eviction) silently.
	EventRemoveOrphan

	// EventDoubleSpend names the double-spend notification. No code path
	// in this package emits it; a double-spend rejection emits
	// EventConflict.
	EventDoubleSpend

	// EventConflict fires when an admission is rejected because one of its
	// inputs is already spent by a pool entry; Entry is that conflicting
	// entry, for a host node's peer-scoring layer.
	EventConflict

	// EventBadOrphan fires when a promoted orphan fails verification.
	EventBadOrphan

	// EventUnconfirmed fires when a block disconnection reinstates a
	// transaction as unconfirmed.
	EventUnconfirmed

	// EventError fires for a swallowed per-tx error in a batch operation
	// (remove_block) that must not abort the batch. A promoted orphan that
	// fails in handle_orphans is reported with EventBadOrphan instead.
	EventError
)

// Event is a single notification handed to every subscriber, in the order
// it was produced. Entry and CoinView are populated only when the
// EventType names an operation that has them; no event this package emits
// sets Block.
type Event struct {
	Type       EventType
	Tx         *chain.Tx
	Entry      *Entry
	View       chain.CoinView
	Block      *chain.BlockHandle
	OriginPeer int64
	Err        error
}

// NotificationCallback receives every Event the pool emits, in program
// order, on the same logical thread that produced it. Grounded on the
// teacher's notifications.go callback-registration pattern, generalized to
// the event vocabulary spec §5 names.
type NotificationCallback func(*Event)

// notifier is embedded in Pool to fan events out to every subscriber.
type notifier struct {
	subscribers []NotificationCallback
}

// Subscribe registers cb to receive every future event. Not safe to call
// concurrently with event emission; subscribe before starting admission.
func (n *notifier) Subscribe(cb NotificationCallback) {
	n.subscribers = append(n.subscribers, cb)
}

func (n *notifier) emit(ev *Event) {
	for _, cb := range n.subscribers {
		cb(ev)
	}
}
