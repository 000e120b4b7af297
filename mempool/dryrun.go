// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/CjMapope/wmcc-core/chain"
)

// CheckAcceptance runs the admission pipeline against tx without admitting
// it: no entry, orphan or reject-filter change and no event emission (a
// free transaction still advances the free-relay throttle counter in
// verify), so a host node can offer a
// `testmempoolaccept`-style RPC without this package knowing anything about
// RPC (supplemented feature, grounded on the teacher's
// TxMempool.CheckMempoolAcceptance). It reports the same outcomes AddTx
// would: success, a VerifyError, or a list of missing parents. isNew is
// always true when calling verify here, the same as a freshly-relayed
// transaction, since a dry-run simulates a brand-new relay rather than a
// block-disconnect reinstatement.
func (p *Pool) CheckAcceptance(ctx context.Context, tx *chain.Tx) (*AcceptResult, error) {
	hash := tx.Hash()

	p.mu.RLock()
	defer p.mu.RUnlock()

	// A read-only pass cannot use insertTx directly since it commits on
	// success; instead this replays the read-only prefix of the pipeline
	// (through contextual verify) and stops short of tracking.
	if verr := checkSanity(tx); verr != nil {
		return nil, verr
	}
	if tx.IsCoinBase() {
		return nil, verifyErrScored(tx, ErrInvalid, "coinbase as individual tx", 100)
	}
	if p.cfg.Policy.RequireStandard {
		if verr, malleated := checkStandard(tx, p.cfg.Policy, p.cfg.Chain.HasCSV(), p.cfg.Chain.HasWitness()); verr != nil {
			verr.Malleated = malleated
			return nil, verr
		}
	}
	if !p.cfg.Policy.ReplaceByFee && tx.SignalsRBF() {
		return nil, verifyErr(tx, ErrNonstandard, "replace-by-fee not permitted")
	}
	if !p.cfg.Chain.VerifyFinal(p.tip, tx, chain.StandardLocktimeVerifyFlags) {
		return nil, verifyErr(tx, ErrInvalid, "non-final")
	}
	if p.exists(hash) {
		return nil, verifyErr(tx, ErrAlreadyKnown, "already have transaction")
	}
	haveCoins, err := p.cfg.Chain.HasCoins(hash)
	if err != nil {
		return nil, err
	}
	if haveCoins {
		return nil, verifyErr(tx, ErrDuplicate, "transaction already exists")
	}
	if _, isConflict := p.isDoubleSpend(tx); isConflict {
		return nil, verifyErr(tx, ErrDuplicate, "bad-txns-inputs-spent")
	}

	view := chain.NewMapCoinView()
	var wants []chain.Outpoint
	for _, in := range tx.MsgTx().TxIn {
		op := in.PreviousOutPoint
		wants = append(wants, op)
		if parent, ok := p.byHash[op.Hash]; ok {
			if int(op.Index) < len(parent.Tx.MsgTx().TxOut) {
				out := parent.Tx.MsgTx().TxOut[op.Index]
				view.AddCoin(&chain.Coin{Outpoint: op, Output: *out, Height: -1})
			}
			continue
		}
		coin, err := p.cfg.Chain.ReadCoin(op)
		if err != nil {
			return nil, err
		}
		if coin != nil {
			view.AddEntry(op, coin)
		}
	}

	if missing := view.Unresolved(wants); len(missing) > 0 {
		unresolved, err := p.filterUnknownParents(missing)
		if err != nil {
			return nil, err
		}
		if len(unresolved) > 0 {
			missingHashes := make([]chainhash.Hash, 0, len(unresolved))
			seen := make(map[chainhash.Hash]bool)
			for _, op := range unresolved {
				if seen[op.Hash] {
					continue
				}
				seen[op.Hash] = true
				missingHashes = append(missingHashes, op.Hash)
			}
			return &AcceptResult{MissingParents: missingHashes}, nil
		}
	}

	entry, verr := p.verify(ctx, tx, view, p.cfg.Chain.Height()+1, true)
	if verr != nil {
		return nil, verr
	}
	return &AcceptResult{Entry: entry}, nil
}
