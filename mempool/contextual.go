// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"

	"github.com/CjMapope/wmcc-core/chain"
)

// verify runs spec §4.1 step 10's contextual-verify pipeline against tx and
// its already-resolved coin view, returning a ready-to-track Entry or the
// VerifyError that disqualifies it. isNew distinguishes a freshly-relayed
// transaction, which must clear the minimum-fee/free-relay-throttle gate,
// from one being reinstated after a block disconnect (spec §4.6), which
// already cleared that gate once and is exempt from it the second time.
// Callers must hold at least mu.RLock; only freeRelayThrottle mutates
// shared state, and it guards itself with its own mutex.
func (p *Pool) verify(ctx context.Context, tx *chain.Tx, view chain.CoinView, height int32, isNew bool) (*Entry, *VerifyError) {
	// Sequence locks (BIP68).
	if err := p.cfg.Chain.VerifyLocks(p.tip, tx, view, chain.StandardLocktimeVerifyFlags); err != nil {
		return nil, verifyErr(tx, ErrInvalid, "non-BIP68-final")
	}

	// Standard inputs & witness.
	if p.cfg.Policy.RequireStandard {
		if verr := checkInputsStandard(tx, view); verr != nil {
			return nil, verr
		}
	}

	// Sigop cost.
	cost := sigOpCost(tx, view)
	if cost > p.cfg.Policy.MaxSigOpCostPerTx {
		return nil, verifyErr(tx, ErrNonstandard, "too many sigops")
	}

	// check_inputs: value conservation and coinbase maturity.
	fee, verr := checkInputs(tx, view, height, p.cfg.CoinbaseMaturity)
	if verr != nil {
		return nil, verr
	}

	size := int64(tx.SerializeSize())
	minFee := calcMinRequiredFee(size, p.cfg.Policy.MinRelayTxFee)
	priority := calcPriority(tx, view, height)

	if isNew && fee < minFee {
		free := false
		if p.cfg.Policy.RelayPriority {
			entryProbe := &Entry{Priority: priority}
			free = entryProbe.IsFree(height)
		}
		if !free {
			return nil, verifyErr(tx, ErrInsufficientFee, "min relay fee not met")
		}

		if !p.freeRelayThrottle(size) {
			return nil, verifyErr(tx, ErrInsufficientFee, "rate limited free transaction")
		}
	}

	if p.cfg.Policy.RejectAbsurdFees && minFee > 0 && fee > 10000*minFee {
		return nil, verifyErr(tx, ErrHighFee, "absurdly high fee")
	}

	// Ancestor-count cap.
	entry := NewEntry(tx, height, fee, cost, priority, 0)
	if p.countAncestorsForNew(tx)+1 > p.cfg.Policy.MaxAncestors {
		return nil, verifyErr(tx, ErrNonstandard, "too many unconfirmed ancestors")
	}

	// Script verification, with the two-step segwit-caused-failure retry
	// the spec requires: if standard verification fails, retry without
	// both VERIFY_WITNESS and VERIFY_CLEANSTACK; if that succeeds, confirm
	// the failure was segwit-specific (rather than some unrelated failure
	// that happens to also pass with both flags dropped) by retrying once
	// more with only VERIFY_WITNESS stripped, VERIFY_CLEANSTACK
	// reinstated. Only when that second retry fails is the failure
	// concluded segwit-caused and marked malleated, exempting it from
	// reject-cache poisoning; otherwise the original failure is reported
	// and treated as a genuine rejection.
	if p.cfg.WorkerPool != nil {
		ok, err := p.cfg.WorkerPool.VerifyAsync(ctx, tx, view, chain.StandardVerifyFlags)
		if err != nil {
			return nil, verifyErr(tx, ErrInvalid, err.Error())
		}
		if !ok {
			noWitnessNoCleanStack := chain.StandardVerifyFlags &^ chain.NonWitnessCleanStackMask
			retryOK, _ := p.cfg.WorkerPool.VerifyAsync(ctx, tx, view, noWitnessNoCleanStack)
			if retryOK {
				noWitnessCleanStack := chain.StandardVerifyFlags &^ chain.FlagVerifyWitness
				confirmOK, _ := p.cfg.WorkerPool.VerifyAsync(ctx, tx, view, noWitnessCleanStack)
				if !confirmOK {
					return nil, &VerifyError{Tx: tx, Type: ErrInvalid, Reason: "mandatory-script-verify-flag-failed", Malleated: true}
				}
			}
			return nil, verifyErr(tx, ErrInvalid, "mandatory-script-verify-flag-failed")
		}
	}

	return entry, nil
}

// countAncestorsForNew counts in-pool ancestors for a transaction that is
// not yet tracked, by walking its own inputs directly rather than through
// an Entry (the entry doesn't exist until admission succeeds).
func (p *Pool) countAncestorsForNew(tx *chain.Tx) int {
	visited := make(map[[32]byte]bool)
	var count int
	var walk func(t *chain.Tx)
	walk = func(t *chain.Tx) {
		for _, in := range t.MsgTx().TxIn {
			parent, ok := p.byHash[in.PreviousOutPoint.Hash]
			if !ok {
				continue
			}
			key := parent.Hash()
			if visited[key] {
				continue
			}
			visited[key] = true
			count++
			walk(parent.Tx)
		}
	}
	walk(tx)
	return count
}
