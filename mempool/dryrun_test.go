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

func TestCheckAcceptance_Accepts(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx := newSpendTx([]wire.OutPoint{op}, []int64{90000})

	res, err := p.CheckAcceptance(context.Background(), tx)
	require.NoError(t, err)
	require.NotNil(t, res.Entry)

	// A dry run must not mutate pool state.
	require.False(t, p.HaveTransaction(tx.Hash()))
	require.Zero(t, p.Count())
}

func TestCheckAcceptance_MissingParent(t *testing.T) {
	p, _ := newTestPool(t)

	op := wire.OutPoint{Index: 0}
	tx := newSpendTx([]wire.OutPoint{op}, []int64{90000})

	res, err := p.CheckAcceptance(context.Background(), tx)
	require.NoError(t, err)
	require.Nil(t, res.Entry)
	require.NotEmpty(t, res.MissingParents)

	require.False(t, p.HaveOrphan(tx.Hash()))
}

func TestCheckAcceptance_RejectsKnownDoubleSpend(t *testing.T) {
	p, fc := newTestPool(t)

	op := fc.fund("coin-1", 100000)
	tx1 := newSpendTx([]wire.OutPoint{op}, []int64{90000})
	mustAddTx(t, p, tx1)

	tx2 := newSpendTx([]wire.OutPoint{op}, []int64{80000})
	res, err := p.CheckAcceptance(context.Background(), tx2)
	require.Nil(t, res)
	require.Error(t, err)
	verr, ok := err.(*VerifyError)
	require.True(t, ok)
	require.Equal(t, ErrDuplicate, verr.Type)
}
