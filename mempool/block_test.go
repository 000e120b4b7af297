// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/CjMapope/wmcc-core/chain"
)

func TestAddBlock_ConfirmsResidentEntry(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx := newSpendTx([]wire.OutPoint{op}, []int64{90000})
	mustAddTx(t, p, tx)
	require.True(t, p.HaveTransaction(tx.Hash()))

	fc.spend(op)
	block := &chain.BlockHandle{
		Hash:     chainhash.HashH([]byte("block-1")),
		PrevHash: p.Tip(),
		Height:   1,
		Txs:      []*chain.Tx{tx},
	}
	p.AddBlock(block)

	require.False(t, p.HaveTransaction(tx.Hash()))
	require.Equal(t, block.Hash, p.Tip())
}

func TestAddBlock_EvictsConflictingEntry(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	poolTx := newSpendTx([]wire.OutPoint{op}, []int64{90000})
	mustAddTx(t, p, poolTx)

	var removed []chainhash.Hash
	p.Subscribe(func(ev *Event) {
		if ev.Type == EventRemoveEntry {
			removed = append(removed, ev.Tx.Hash())
		}
	})

	// A different transaction confirms, spending the same coin: poolTx
	// is now an unconfirmable double spend and must be evicted.
	confirmedTx := newSpendTx([]wire.OutPoint{op}, []int64{80000})
	fc.spend(op)
	block := &chain.BlockHandle{
		Hash:     chainhash.HashH([]byte("block-1")),
		PrevHash: p.Tip(),
		Height:   1,
		Txs:      []*chain.Tx{confirmedTx},
	}
	p.AddBlock(block)

	require.False(t, p.HaveTransaction(poolTx.Hash()))
	require.Contains(t, removed, poolTx.Hash())
}

func TestRemoveBlock_ReinstatesTransactions(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx := newSpendTx([]wire.OutPoint{op}, []int64{90000})
	mustAddTx(t, p, tx)

	fc.spend(op)
	block := &chain.BlockHandle{
		Hash:     chainhash.HashH([]byte("block-1")),
		PrevHash: p.Tip(),
		Height:   1,
		Txs:      []*chain.Tx{tx},
	}
	p.AddBlock(block)
	require.False(t, p.HaveTransaction(tx.Hash()))

	// Re-fund the coin as the disconnection would restore chain state,
	// then disconnect: tx should return to the pool as unconfirmed.
	fc.coins[op] = &chain.Coin{Outpoint: op, Output: wire.TxOut{Value: 100000, PkScript: []byte{0x51}}, Height: 1}
	p.RemoveBlock(block)

	require.True(t, p.HaveTransaction(tx.Hash()))
	require.Equal(t, block.PrevHash, p.Tip())
}

func TestHandleReorg_EvictsNonFinalEntries(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx := newSpendTx([]wire.OutPoint{op}, []int64{90000})
	mustAddTx(t, p, tx)
	require.True(t, p.HaveTransaction(tx.Hash()))

	fc.verifyFinal = false
	p.HandleReorg()

	require.False(t, p.HaveTransaction(tx.Hash()))
}

func TestReset_EmptiesPool(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx := newSpendTx([]wire.OutPoint{op}, []int64{90000})
	mustAddTx(t, p, tx)

	require.NoError(t, p.Reset())
	require.Equal(t, 0, p.Count())
	require.EqualValues(t, 0, p.Size())
}
