// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestAddTx_Basic(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx := newSpendTx([]wire.OutPoint{op}, []int64{90000})

	res := mustAddTx(t, p, tx)
	require.NotNil(t, res.Entry)
	require.True(t, p.HaveTransaction(tx.Hash()))
	require.EqualValues(t, 1, p.Count())
	require.Greater(t, p.Size(), uint64(0))
}

func TestAddTx_DoubleSpendRejected(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx1 := newSpendTx([]wire.OutPoint{op}, []int64{90000})
	mustAddTx(t, p, tx1)

	var conflictEvents int
	p.Subscribe(func(ev *Event) {
		if ev.Type == EventConflict {
			conflictEvents++
		}
	})

	tx2 := newSpendTx([]wire.OutPoint{op}, []int64{80000})
	_, err := p.AddTx(context.Background(), tx2, -1)
	require.Error(t, err)
	verr, ok := err.(*VerifyError)
	require.True(t, ok)
	require.Equal(t, ErrDuplicate, verr.Type)
	require.Equal(t, 1, conflictEvents)
}

func TestAddTx_AlreadyKnown(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx := newSpendTx([]wire.OutPoint{op}, []int64{90000})
	mustAddTx(t, p, tx)

	_, err := p.AddTx(context.Background(), tx, -1)
	require.Error(t, err)
	verr, ok := err.(*VerifyError)
	require.True(t, ok)
	require.Equal(t, ErrAlreadyKnown, verr.Type)
}

func TestAddTx_AncestorCapRejectsDeepChain(t *testing.T) {
	p, fc := newTestPool(t)
	p.cfg.Policy.MaxAncestors = 2

	prev := fc.fund("root", 1000000)
	value := int64(1000000)

	for i := 0; i < 2; i++ {
		value -= 1000
		tx := newSpendTx([]wire.OutPoint{prev}, []int64{value})
		mustAddTx(t, p, tx)
		prev = wire.OutPoint{Hash: tx.Hash(), Index: 0}
	}

	// A third link would need 3 in-pool ancestors once counted in, one
	// more than MaxAncestors permits.
	tooDeep := newSpendTx([]wire.OutPoint{prev}, []int64{value - 1000})
	_, err := p.AddTx(context.Background(), tooDeep, -1)
	require.Error(t, err)
	verr, ok := err.(*VerifyError)
	require.True(t, ok)
	require.Equal(t, ErrNonstandard, verr.Type)
}

func TestAddTx_PrioritiseUpdatesDescendantRollup(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx := newSpendTx([]wire.OutPoint{op}, []int64{90000})
	res := mustAddTx(t, p, tx)

	before := res.Entry.DescFee
	p.Prioritise(tx.Hash(), 5000)

	entry := p.Entry(tx.Hash())
	require.Equal(t, before+5000, entry.DescFee)
	require.Equal(t, before+5000, entry.DeltaFee)
}
