package chain

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Chain is the external blockchain collaborator the mempool consults during
// admission. A host node supplies a concrete implementation; this package
// never touches a database directly (spec §1, §6).
type Chain interface {
	// Tip returns the hash of the block the mempool's view is currently
	// valid against.
	Tip() chainhash.Hash

	// Height returns the height of Tip.
	Height() int32

	// HasCSV reports whether BIP68/112/113 (CSV) consensus rules are
	// active at the current tip.
	HasCSV() bool

	// HasWitness reports whether segwit is active at the current tip.
	HasWitness() bool

	// Synced reports whether the node believes it has finished initial
	// block download. Some policy gates (e.g. free-relay throttling) are
	// relaxed in this state by some host nodes; the mempool itself never
	// calls it.
	Synced() bool

	// MedianTimePast returns the median time past for the block
	// identified by tip, used for BIP113 locktime evaluation.
	MedianTimePast(tip chainhash.Hash) time.Time

	// HasCoins reports whether the chain already has unspent outputs
	// recorded for hash, i.e. whether tx is already confirmed (spec §4.1
	// step 6).
	HasCoins(hash chainhash.Hash) (bool, error)

	// ReadCoin fetches a single unspent output from the confirmed chain.
	// Returns (nil, nil) if the outpoint does not exist or is spent.
	ReadCoin(op Outpoint) (*Coin, error)

	// VerifyLocks checks a transaction's BIP68 sequence locks against the
	// given view under the supplied flags.
	VerifyLocks(tip chainhash.Hash, tx *Tx, view CoinView, flags LockTimeFlags) error

	// VerifyFinal checks a transaction's absolute locktime/finality
	// against the given flags.
	VerifyFinal(tip chainhash.Hash, tx *Tx, flags LockTimeFlags) bool
}

// CoinView is the per-admission working set of coins an input resolves to,
// built by layering in-mempool outputs over the confirmed chain (spec §6).
type CoinView interface {
	// HasEntry reports whether op has already been resolved in this view.
	HasEntry(op Outpoint) bool

	// Entry returns the coin resolved for op, or nil if unresolved.
	Entry(op Outpoint) *Coin

	// AddCoin records a resolved coin in the view.
	AddCoin(c *Coin)

	// AddEntry is an alias historically used for chain-sourced coins;
	// behaves identically to AddCoin.
	AddEntry(op Outpoint, c *Coin)

	// AddIndex records that output index i of tx was spent/created at
	// height, used by optional secondary indices when resolving
	// input-side addresses.
	AddIndex(tx *Tx, i int, height int32)
}

// WorkerPool performs the expensive, CPU-bound cryptographic verification
// the admission pipeline delegates away from its own goroutine (spec §5,
// §6). Implementations are expected to run inputs' scripts concurrently and
// return as soon as one fails or all succeed.
type WorkerPool interface {
	// VerifyAsync verifies every input script of tx against view under
	// flags, fanning the work out across the pool's workers.
	VerifyAsync(ctx context.Context, tx *Tx, view CoinView, flags uint32) (bool, error)
}

// Standard script verification flag sets, named the way spec §4.1 step 10
// and §6 refer to them. The concrete bit layout is owned by the verification
// worker pool; the mempool only needs to request "standard" vs.
// "standard minus witness/cleanstack" semantics, represented here as two
// opaque flag values a WorkerPool implementation interprets.
const (
	StandardVerifyFlags        uint32 = 0xFFFFFFFF
	FlagVerifyWitness          uint32 = 1 << 0
	FlagVerifyCleanStack       uint32 = 1 << 1
	NonWitnessCleanStackMask          = FlagVerifyWitness | FlagVerifyCleanStack
)
