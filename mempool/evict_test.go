// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestLimitSize_EvictsLowerFeeRateFirst(t *testing.T) {
	p, fc := newTestPool(t)

	lowOp := fc.fund("low", 100000)
	lowFeeTx := newSpendTx([]wire.OutPoint{lowOp}, []int64{99900}) // 100 sat fee
	mustAddTx(t, p, lowFeeTx)

	sizeAfterFirst := p.Size()
	// Cap the pool at 1.5x what one entry costs: admitting a second,
	// same-shape entry overflows it, but evicting just the first (lower
	// fee rate) entry brings usage back under limitSize's 90% target
	// without also evicting the survivor.
	p.cfg.Policy.MaxSize = sizeAfterFirst + sizeAfterFirst/2

	highOp := fc.fund("high", 100000)
	highFeeTx := newSpendTx([]wire.OutPoint{highOp}, []int64{50000}) // 50000 sat fee
	mustAddTx(t, p, highFeeTx)

	require.False(t, p.HaveTransaction(lowFeeTx.Hash()))
	require.True(t, p.HaveTransaction(highFeeTx.Hash()))
}

// effectiveRate is the eviction comparator's core primitive: the lesser of
// an entry's own fee rate and its descendant-package fee rate (spec §4.4).
// Both branches are exercised here: a cheap own rate kept because the
// descendant package pays more, and an expensive own rate dragged down by a
// cheap descendant.
func TestEffectiveRate_PicksTheLesserRate(t *testing.T) {
	now := time.Now()

	cheapParentRichChild := &Entry{
		Time: now, DeltaFee: 100, Size: 1000, DescFee: 10100, DescSize: 2000,
	}
	require.InDelta(t, cheapParentRichChild.FeeRate(), effectiveRate(cheapParentRichChild), 1e-9)

	richParentCheapChild := &Entry{
		Time: now, DeltaFee: 1000, Size: 1000, DescFee: 1000, DescSize: 5000,
	}
	require.InDelta(t, richParentCheapChild.DescFeeRate(), effectiveRate(richParentCheapChild), 1e-9)
}
