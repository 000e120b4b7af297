// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"
	"math"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/CjMapope/wmcc-core/chain"
)

// AcceptResult reports the outcome of a successful AddTx call: either the
// transaction and any orphans it resolved were admitted, or its parents
// are missing and it was buffered as an orphan.
type AcceptResult struct {
	Entry          *Entry
	MissingParents []chainhash.Hash
	ResolvedOrphan []chainhash.Hash
}

// AddTx runs the full admission pipeline of spec §4.1 against tx, tagging
// it with originPeer for downstream orphan attribution. It acquires the
// per-hash lock for tx's hash, serializing co-admission of that exact
// hash, then lets insertTx manage Pool.mu itself (spec §5). The hash is
// marked pending only while this call waits for the per-hash lock; the
// mark is cleared once the lock is held, so this admission's own
// known-ness check does not count it.
func (p *Pool) AddTx(ctx context.Context, tx *chain.Tx, originPeer int64) (*AcceptResult, error) {
	hash := tx.Hash()

	p.mu.Lock()
	p.pending[hash] = true
	p.mu.Unlock()

	unlock := p.lockHash(hash)
	defer unlock()

	p.mu.Lock()
	delete(p.pending, hash)
	p.mu.Unlock()

	return p.insertTx(ctx, tx, p.cfg.Chain.Height()+1, originPeer, true)
}

// insertTx is the concurrency-managed admission entry point used for a
// freshly-relayed transaction (spec §5): validation runs under Pool.mu's
// read lock, shared with every other in-flight admission, and only the
// commit takes the write lock. Callers must not already hold Pool.mu;
// use insertTxLocked from a context that already holds mu for writing
// (block/reorg handling, or an orphan replayed during another commit).
func (p *Pool) insertTx(ctx context.Context, tx *chain.Tx, height int32, originPeer int64, isNew bool) (*AcceptResult, error) {
	p.mu.RLock()
	entry, view, res, verr := p.validateTx(ctx, tx, height, originPeer, isNew)
	p.mu.RUnlock()

	if verr != nil {
		return nil, verr
	}
	if res != nil {
		return res, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commitTx(tx, entry, view, height, originPeer)
}

// insertTxLocked runs the same pipeline as insertTx for a caller that
// already holds Pool.mu for writing (spec §4.6's block/reorg handlers, and
// handleOrphans replaying an orphan during another admission's commit).
func (p *Pool) insertTxLocked(ctx context.Context, tx *chain.Tx, height int32, originPeer int64, isNew bool) (*AcceptResult, error) {
	entry, view, res, verr := p.validateTx(ctx, tx, height, originPeer, isNew)
	if verr != nil {
		return nil, verr
	}
	if res != nil {
		return res, nil
	}
	return p.commitTx(tx, entry, view, height, originPeer)
}

// validateTx runs the read-only portion of the admission pipeline (spec
// §4.1 steps 1-10): every rejection gate through contextual verification,
// including the blocking Chain/WorkerPool calls spec §5 names as the
// points concurrent admissions may suspend at. It never mutates Pool
// state directly (orphan enrollment and the reject filter guard their own
// internals), so it is safe to run under either mu.RLock or mu.Lock.
// Exactly one of (entry, res, verr) is non-nil on return; entry pairs with
// view and means "ready to commit", res means "already final" (an orphan
// enrollment), and verr means "rejected".
func (p *Pool) validateTx(ctx context.Context, tx *chain.Tx, height int32, originPeer int64, isNew bool) (*Entry, chain.CoinView, *AcceptResult, *VerifyError) {
	hash := tx.Hash()

	// Step 1: sanity.
	if verr := checkSanity(tx); verr != nil {
		p.rejectIfPoisonable(verr)
		return nil, nil, nil, verr
	}

	// Step 2: coinbase reject.
	if tx.IsCoinBase() {
		verr := verifyErrScored(tx, ErrInvalid, "coinbase as individual tx", 100)
		p.rejectIfPoisonable(verr)
		return nil, nil, nil, verr
	}

	// Step 3: standardness gates.
	if p.cfg.Policy.RequireStandard {
		verr, malleated := checkStandard(tx, p.cfg.Policy, p.cfg.Chain.HasCSV(), p.cfg.Chain.HasWitness())
		if verr != nil {
			verr.Malleated = malleated
			p.rejectIfPoisonable(verr)
			return nil, nil, nil, verr
		}
	}

	// Step 4: RBF policy.
	if !p.cfg.Policy.ReplaceByFee && tx.SignalsRBF() {
		verr := verifyErr(tx, ErrNonstandard, "replace-by-fee not permitted")
		p.rejectIfPoisonable(verr)
		return nil, nil, nil, verr
	}

	// Step 5: finality.
	if !p.cfg.Chain.VerifyFinal(p.tip, tx, chain.StandardLocktimeVerifyFlags) {
		verr := verifyErr(tx, ErrInvalid, "non-final")
		p.rejectIfPoisonable(verr)
		return nil, nil, nil, verr
	}

	// Step 6: known-ness.
	if p.exists(hash) {
		verr := verifyErr(tx, ErrAlreadyKnown, "already have transaction")
		return nil, nil, nil, verr
	}
	haveCoins, err := p.cfg.Chain.HasCoins(hash)
	if err != nil {
		return nil, nil, nil, verifyErr(tx, ErrInvalid, err.Error())
	}
	if haveCoins {
		verr := verifyErr(tx, ErrDuplicate, "transaction already exists")
		return nil, nil, nil, verr
	}

	// Step 7: double-spend.
	if conflict, isConflict := p.isDoubleSpend(tx); isConflict {
		verr := verifyErr(tx, ErrDuplicate, "bad-txns-inputs-spent")
		p.emit(&Event{Type: EventConflict, Tx: tx, Entry: conflict})
		return nil, nil, nil, verr
	}

	// Step 8: build coin view.
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
			return nil, nil, nil, verifyErr(tx, ErrInvalid, err.Error())
		}
		if coin != nil {
			view.AddEntry(op, coin)
		}
	}

	// Step 9: orphan classification. Only outpoints whose parent hash is
	// not otherwise known are eligible: a parent already tracked in the
	// pool or already confirmed on chain will never re-trigger
	// resolve_orphans for that hash, so buffering against it would leak
	// until TTL/eviction instead of being rejected as
	// bad-txns-inputs-missingorspent by step 10's check_inputs.
	missing := view.Unresolved(wants)
	if len(missing) > 0 {
		unresolved, err := p.filterUnknownParents(missing)
		if err != nil {
			return nil, nil, nil, verifyErr(tx, ErrInvalid, err.Error())
		}
		if len(unresolved) > 0 {
			res, err := p.maybeOrphan(tx, originPeer, unresolved)
			if err != nil {
				return nil, nil, nil, err.(*VerifyError)
			}
			return nil, nil, res, nil
		}
	}

	// Step 10: contextual verify.
	entry, verr := p.verify(ctx, tx, view, height, isNew)
	if verr != nil {
		p.rejectIfPoisonable(verr)
		return nil, nil, nil, verr
	}

	return entry, view, nil, nil
}

// filterUnknownParents narrows missing to the outpoints whose parent
// transaction hash is not otherwise known to the pool or chain (spec §4.1
// step 9: "unresolved and its parent hash is not otherwise known"). An
// outpoint whose hash resolves to an in-pool entry (an out-of-range
// index) or a confirmed transaction (an already-spent output) is excluded
// even though the outpoint itself stayed unresolved in the view.
func (p *Pool) filterUnknownParents(missing []chain.Outpoint) ([]chain.Outpoint, error) {
	out := make([]chain.Outpoint, 0, len(missing))
	checked := make(map[chainhash.Hash]bool, len(missing))
	for _, op := range missing {
		if _, ok := p.byHash[op.Hash]; ok {
			continue
		}
		known, ok := checked[op.Hash]
		if !ok {
			has, err := p.cfg.Chain.HasCoins(op.Hash)
			if err != nil {
				return nil, err
			}
			known = has
			checked[op.Hash] = known
		}
		if known {
			continue
		}
		out = append(out, op)
	}
	return out, nil
}

// commitTx performs the mutating half of admission (spec §4.1 steps
// 11-12) for an entry validateTx already verified. Callers must hold
// Pool.mu for writing. Known-ness and the double-spend check are repeated
// here because, when reached via insertTx, a competing admission of a
// different hash may have committed in the gap between validateTx's read
// lock and this write lock (the per-hash lock only excludes a second
// admission of tx's own hash, spec §5).
func (p *Pool) commitTx(tx *chain.Tx, entry *Entry, view chain.CoinView, height int32, originPeer int64) (*AcceptResult, error) {
	hash := tx.Hash()

	if p.exists(hash) {
		return nil, verifyErr(tx, ErrAlreadyKnown, "already have transaction")
	}
	if conflict, isConflict := p.isDoubleSpend(tx); isConflict {
		verr := verifyErr(tx, ErrDuplicate, "bad-txns-inputs-spent")
		p.emit(&Event{Type: EventConflict, Tx: tx, Entry: conflict})
		return nil, verr
	}

	// Step 11: insert.
	entry.OriginPeer = originPeer
	p.emit(&Event{Type: EventTx, Tx: tx})
	p.trackEntry(entry, view)
	p.updateAncestors(entry, addFee)
	p.emit(&Event{Type: EventAddEntry, Entry: entry, View: view})
	p.persistEntry(entry)
	if p.cfg.FeeEstimator != nil {
		p.cfg.FeeEstimator.ObserveAdmit(hash, entry.Fee, entry.Size, height)
	}

	resolved := p.handleOrphans(hash, originPeer)

	// Step 12: cap.
	if p.limitSize(hash) {
		return nil, verifyErr(tx, ErrInsufficientFee, "mempool full")
	}

	return &AcceptResult{Entry: entry, ResolvedOrphan: resolved}, nil
}

// rejectIfPoisonable adds verr's transaction to the reject filter unless it
// carries witness data or is marked malleated, per spec §4.1's closing
// paragraph and §7: a segwit-caused false rejection must not poison the
// cache against an honestly-relayed non-witness version of the same txid.
func (p *Pool) rejectIfPoisonable(verr *VerifyError) {
	if verr.Tx.HasWitness() || verr.Malleated {
		return
	}
	p.rejects.Add(verr.Tx.Hash())
}

// maybeOrphan implements spec §4.1 step 9: classify a transaction with
// unresolved inputs, either dropping it (previously-rejected parent, or
// oversize) or enrolling it in the orphan pool and returning the missing
// parent hashes.
func (p *Pool) maybeOrphan(tx *chain.Tx, originPeer int64, missing []chain.Outpoint) (*AcceptResult, error) {
	missingHashes := make([]chainhash.Hash, 0, len(missing))
	seen := make(map[chainhash.Hash]bool)
	for _, op := range missing {
		if seen[op.Hash] {
			continue
		}
		seen[op.Hash] = true

		if p.rejects.Contains(op.Hash) {
			p.rejects.Add(tx.Hash())
			return nil, verifyErr(tx, ErrInvalid, "known bad parent")
		}
		missingHashes = append(missingHashes, op.Hash)
	}

	if uint32(tx.MsgTx().SerializeSize())*4 > maxTxWeight {
		verr := verifyErr(tx, ErrNonstandard, "orphan transaction too large")
		return nil, verr
	}

	p.orphans.limit(p.cfg.Policy.MaxOrphans, p.cfg.Policy.OrphanTTL, p.cfg.Policy.OrphanExpireScanInterval)
	p.orphans.add(tx, Tag(originPeer), originPeer, missingHashes, p.cfg.Policy.OrphanTTL)
	p.emit(&Event{Type: EventAddOrphan, Tx: tx, OriginPeer: originPeer})

	return &AcceptResult{MissingParents: missingHashes}, nil
}

// maxTxWeight caps orphan admission, matching MAX_TX_WEIGHT (spec §4.1 step
// 9). Weight here is the byte-size*4 upper bound used before segwit
// discount is known, sufficient for the orphan size guard.
const maxTxWeight = 400000

// handleOrphans replays every orphan newly unblocked by parent's admission
// through insertTxLocked, carrying the original peer id (spec §4.5,
// `handle_orphans`). Callers of handleOrphans already hold mu for writing
// (it only runs from commitTx), so the replay must not re-acquire mu.
// Errors from a replayed orphan are swallowed and
// reported via an `bad orphan` event, never abort the caller (spec §7).
func (p *Pool) handleOrphans(parent chainhash.Hash, defaultPeer int64) []chainhash.Hash {
	var resolved []chainhash.Hash

	queue := p.orphans.resolve(parent)
	for len(queue) > 0 {
		otx := queue[0]
		queue = queue[1:]

		tx, err := otx.parse()
		if err != nil {
			continue
		}
		hash := tx.Hash()
		p.orphans.remove(hash)

		peer := otx.origPeer
		if peer == 0 {
			peer = defaultPeer
		}

		res, err := p.insertTxLocked(context.Background(), tx, p.cfg.Chain.Height()+1, peer, true)
		if err != nil {
			if verr, ok := err.(*VerifyError); ok {
				if !verr.Tx.HasWitness() && !verr.Malleated {
					p.rejects.Add(hash)
				}
				p.emit(&Event{Type: EventBadOrphan, Tx: tx, OriginPeer: peer, Err: verr})
			}
			continue
		}

		resolved = append(resolved, hash)
		if res != nil {
			queue = append(queue, p.orphans.resolve(hash)...)
			resolved = append(resolved, res.ResolvedOrphan...)
		}
	}

	return resolved
}

// freeRelayThrottle implements the exponential-decay free-relay counter of
// spec §4.1 step 10. Guarded by its own mutex, independent of Pool.mu,
// since verify (and therefore this) runs under Pool.mu.RLock alongside
// every other concurrent admission (spec §5).
func (p *Pool) freeRelayThrottle(size int64) bool {
	p.freeMu.Lock()
	defer p.freeMu.Unlock()

	now := time.Now().Unix()
	if p.lastFreeTime == 0 {
		p.lastFreeTime = now
	}
	elapsed := float64(now - p.lastFreeTime)
	p.lastFreeTime = now

	p.freeCount *= math.Pow(1-1.0/600.0, elapsed)
	if p.freeCount > p.cfg.Policy.FreeTxRelayLimit*10000 {
		return false
	}
	p.freeCount += float64(size)
	return true
}
