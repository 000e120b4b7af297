// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/CjMapope/wmcc-core/chain"
)

func TestAddTx_OrphanBufferedThenResolved(t *testing.T) {
	p, fc := newTestPool(t)

	// parentTx is built first only to compute the outpoint child will
	// spend; it is not admitted yet, so child's parent is unresolved.
	fundOp := fc.fund("root", 1000000)
	parentTx := newSpendTx([]wire.OutPoint{fundOp}, []int64{900000})
	parentOut := wire.OutPoint{Hash: parentTx.Hash(), Index: 0}

	child := newSpendTx([]wire.OutPoint{parentOut}, []int64{800000})

	res, err := p.AddTx(context.Background(), child, 7)
	require.NoError(t, err)
	require.Nil(t, res.Entry)
	require.Len(t, res.MissingParents, 1)
	require.Equal(t, parentTx.Hash(), res.MissingParents[0])
	require.True(t, p.HaveOrphan(child.Hash()))
	require.False(t, p.HaveTransaction(child.Hash()))

	parentRes := mustAddTx(t, p, parentTx)
	require.Contains(t, parentRes.ResolvedOrphan, child.Hash())
	require.True(t, p.HaveTransaction(child.Hash()))
	require.False(t, p.HaveOrphan(child.Hash()))
}

func TestMaybeOrphan_EnrollsWaitingTransaction(t *testing.T) {
	p, fc := newTestPool(t)

	missingOp := wire.OutPoint{Hash: fc.fund("phantom", 1).Hash, Index: 99}
	tx := newSpendTx([]wire.OutPoint{missingOp}, []int64{1})

	_, err := p.maybeOrphan(tx, -1, []chain.Outpoint{missingOp})
	require.NoError(t, err)
	require.True(t, p.HaveOrphan(tx.Hash()))
}

func TestOrphanPool_RemoveByTag(t *testing.T) {
	o := newOrphanPool()

	tx1 := newSpendTx([]wire.OutPoint{{Index: 0}}, []int64{1})
	tx2 := newSpendTx([]wire.OutPoint{{Index: 1}}, []int64{2})

	o.add(tx1, Tag(5), 5, []chainhash.Hash{{0x01}}, 0)
	o.add(tx2, Tag(6), 6, []chainhash.Hash{{0x02}}, 0)
	require.Equal(t, 2, o.count())

	removed := o.removeByTag(Tag(5))
	require.Equal(t, 1, removed)
	require.Equal(t, 1, o.count())
	require.False(t, o.has(tx1.Hash()))
	require.True(t, o.has(tx2.Hash()))
}
