// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain defines the contracts the mempool engine uses to talk to its
// external collaborators: the UTXO-backed blockchain database, the
// script/signature verification worker pool, and the wire-level transaction
// representation. None of those are implemented here; this package only
// describes the boundary so the mempool can be built, and tested, against
// fakes.
package chain

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Outpoint is the 36-byte {tx-hash, output-index} lookup key shared by the
// spent map, the coin view, and the on-disk cache's entry keys.
type Outpoint = wire.OutPoint

// OutpointKey returns the fixed 36-byte serialization of op: the 32-byte
// hash followed by the 4-byte little-endian output index.
func OutpointKey(op Outpoint) [36]byte {
	var key [36]byte
	copy(key[:32], op.Hash[:])
	key[32] = byte(op.Index)
	key[33] = byte(op.Index >> 8)
	key[34] = byte(op.Index >> 16)
	key[35] = byte(op.Index >> 24)
	return key
}

// Tx wraps a wire-level transaction with the derived attributes the
// admission pipeline repeatedly needs. It is immutable once constructed.
type Tx struct {
	tx *btcutil.Tx

	hasWitness bool
	isCoinBase bool
	hasRBF     bool
}

// NewTx builds a Tx around msgTx, computing its derived attributes once.
func NewTx(msgTx *wire.MsgTx) *Tx {
	t := &Tx{tx: btcutil.NewTx(msgTx)}
	t.hasWitness = msgTx.HasWitness()
	t.isCoinBase = IsCoinBase(msgTx)
	for _, in := range msgTx.TxIn {
		if in.Sequence < wire.MaxTxInSequenceNum-1 {
			t.hasRBF = true
			break
		}
	}
	return t
}

// NewTxFromUtil adapts an already-wrapped btcutil.Tx, as produced by a
// wire-protocol decoder upstream of this package.
func NewTxFromUtil(tx *btcutil.Tx) *Tx {
	return NewTx(tx.MsgTx())
}

// MsgTx returns the underlying wire transaction.
func (t *Tx) MsgTx() *wire.MsgTx { return t.tx.MsgTx() }

// Hash returns the transaction's double-SHA256 identifier.
func (t *Tx) Hash() chainhash.Hash { return *t.tx.Hash() }

// WitnessHash returns the witness transaction id (wtxid).
func (t *Tx) WitnessHash() chainhash.Hash { return *t.tx.WitnessHash() }

// SerializeSize returns the on-wire size of the transaction in bytes.
func (t *Tx) SerializeSize() int { return t.tx.MsgTx().SerializeSize() }

// HasWitness reports whether any input carries witness data.
func (t *Tx) HasWitness() bool { return t.hasWitness }

// IsCoinBase reports whether this is a block's first, reward-creating
// transaction. Coinbases may never enter the mempool (spec §4.1 step 2).
func (t *Tx) IsCoinBase() bool { return t.isCoinBase }

// SignalsRBF reports whether any input's sequence number is below
// 0xfffffffe, i.e. the transaction opts in to replacement.
func (t *Tx) SignalsRBF() bool { return t.hasRBF }

// IsCoinBase reports whether msgTx is a coinbase transaction: exactly one
// input, with a null previous outpoint.
func IsCoinBase(msgTx *wire.MsgTx) bool {
	if len(msgTx.TxIn) != 1 {
		return false
	}
	prevOut := &msgTx.TxIn[0].PreviousOutPoint
	return prevOut.Index == wire.MaxPrevOutIndex &&
		prevOut.Hash == chainhash.Hash{}
}

// StandardLocktimeVerifyFlags is the locktime verification mode the
// admission pipeline requires (spec §4.1 step 5 and §6): both BIP113
// median-time-past locktime and BIP68 relative locktime semantics.
const StandardLocktimeVerifyFlags = LockTimeMedianTimePast | LockTimeVerifySequence

// LockTimeFlags mirror the flags a Chain implementation's VerifyFinal and
// VerifyLocks use to interpret a transaction's locktime/sequence fields.
type LockTimeFlags uint32

const (
	// LockTimeMedianTimePast instructs the chain to use the median time
	// past of the previous block, rather than the block's own timestamp,
	// when the locktime is time-based.
	LockTimeMedianTimePast LockTimeFlags = 1 << iota

	// LockTimeVerifySequence instructs the chain to honor BIP68 relative
	// locktimes encoded in each input's sequence number.
	LockTimeVerifySequence
)

// SequenceLock is the earliest height and time at which a transaction's
// relative (BIP68) locks are satisfied.
type SequenceLock struct {
	Seconds     int64
	BlockHeight int32
}

// Coin is a single unspent transaction output as seen by the mempool's
// coin view: either confirmed on-chain or produced by another transaction
// still sitting in the mempool.
type Coin struct {
	Outpoint Outpoint
	Output   wire.TxOut
	Height   int32 // height the coin was created at; -1 if unconfirmed.
	Coinbase bool
}

// Value returns the coin's value.
func (c *Coin) Value() btcutil.Amount { return btcutil.Amount(c.Output.Value) }

// SpendableAt reports whether a coinbase coin has matured by nextHeight.
func (c *Coin) SpendableAt(nextHeight int32, coinbaseMaturity int32) bool {
	if !c.Coinbase {
		return true
	}
	if c.Height < 0 {
		return false
	}
	return nextHeight-c.Height >= coinbaseMaturity
}

// BlockHandle is the minimal view of a connecting/disconnecting block the
// mempool needs: its hash, its parent's hash, and the non-coinbase
// transactions it carries.
type BlockHandle struct {
	Hash       chainhash.Hash
	PrevHash   chainhash.Hash
	Height     int32
	Timestamp  time.Time
	MedianTime time.Time
	Txs        []*Tx // excludes the coinbase.
}
