// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/CjMapope/wmcc-core/chain"
)

// maxStandardP2SHSigOps bounds the signature operations a standard
// pay-to-script-hash input may carry, matching the teacher's
// mempool/policy.go.
const maxStandardP2SHSigOps = 15

// maxScriptSize bounds the size of any single script this package will
// accept, mirroring txscript's own unexported maxScriptSize (10000, see
// txscript/script.go and its test-only TstMaxScriptSize alias): the
// teacher's txscript package never exports this limit, so policy code
// outside the package keeps its own copy of the same bound.
const maxScriptSize = 10000

// checkSanity performs the context-free structural checks spec §4.1 step 1
// requires before anything else runs: no consensus or policy state is
// consulted here, only the transaction's own shape.
func checkSanity(tx *chain.Tx) *VerifyError {
	msgTx := tx.MsgTx()

	if len(msgTx.TxIn) == 0 {
		return verifyErr(tx, ErrInvalid, "bad-txns-vin-empty")
	}
	if len(msgTx.TxOut) == 0 {
		return verifyErr(tx, ErrInvalid, "bad-txns-vout-empty")
	}
	if tx.SerializeSize() > wire.MaxBlockPayload {
		return verifyErr(tx, ErrInvalid, "bad-txns-oversize")
	}

	var total int64
	for _, out := range msgTx.TxOut {
		if out.Value < 0 {
			return verifyErr(tx, ErrInvalid, "bad-txns-vout-negative")
		}
		if out.Value > btcutil.MaxSatoshi {
			return verifyErr(tx, ErrInvalid, "bad-txns-vout-toolarge")
		}
		total += out.Value
		if total < 0 || total > btcutil.MaxSatoshi {
			return verifyErr(tx, ErrInvalid, "bad-txns-txouttotal-toolarge")
		}
		if len(out.PkScript) > maxScriptSize {
			return verifyErr(tx, ErrInvalid, "bad-txns-oversize-script")
		}
	}

	seen := make(map[wire.OutPoint]bool, len(msgTx.TxIn))
	for _, in := range msgTx.TxIn {
		if seen[in.PreviousOutPoint] {
			return verifyErr(tx, ErrInvalid, "bad-txns-inputs-duplicate")
		}
		seen[in.PreviousOutPoint] = true

		if in.PreviousOutPoint.Hash == (chain.Outpoint{}).Hash &&
			in.PreviousOutPoint.Index == wire.MaxPrevOutIndex {
			return verifyErr(tx, ErrInvalid, "bad-txns-prevout-null")
		}
		if len(in.SignatureScript) > maxScriptSize {
			return verifyErr(tx, ErrInvalid, "bad-txns-oversize-script")
		}
	}

	return nil
}

// checkStandard applies spec §4.1 step 3's standardness gates. It is only
// consulted when Policy.RequireStandard is set; malleated reports whether
// the rejection was solely due to witness data preceding segwit activation,
// which must not poison the reject filter (spec §4.1 step 3, §7).
func checkStandard(tx *chain.Tx, policy Policy, hasCSV, hasWitness bool) (verr *VerifyError, malleated bool) {
	msgTx := tx.MsgTx()

	if msgTx.Version > policy.MaxTxVersion {
		return verifyErr(tx, ErrNonstandard, fmt.Sprintf(
			"version %d is not standard", msgTx.Version)), false
	}
	if msgTx.Version >= 2 && !hasCSV {
		return verifyErr(tx, ErrNonstandard, "premature version-2 transaction"), false
	}
	if tx.HasWitness() && !hasWitness {
		return verifyErr(tx, ErrNonstandard, "segwit not active"), true
	}

	for i, in := range msgTx.TxIn {
		if len(in.SignatureScript) > maxStandardSigScriptSize {
			return verifyErr(tx, ErrNonstandard, fmt.Sprintf(
				"input %d signature script too large", i)), false
		}
		if !txscript.IsPushOnlyScript(in.SignatureScript) {
			return verifyErr(tx, ErrNonstandard, fmt.Sprintf(
				"input %d signature script is not push-only", i)), false
		}
	}

	for i, out := range msgTx.TxOut {
		class := txscript.GetScriptClass(out.PkScript)
		switch class {
		case txscript.NonStandardTy:
			return verifyErr(tx, ErrNonstandard, fmt.Sprintf(
				"output %d has a non-standard script form", i)), false
		case txscript.MultiSigTy:
			n, m, err := txscript.CalcMultiSigStats(out.PkScript)
			if err != nil || n < 1 || n > maxStandardMultiSigKeys || m < 1 || m > n {
				return verifyErr(tx, ErrNonstandard, fmt.Sprintf(
					"output %d has a non-standard multisig form", i)), false
			}
		}
	}

	return nil, false
}

// maxStandardSigScriptSize and maxStandardMultiSigKeys mirror the teacher's
// mempool/policy.go constants.
const (
	maxStandardSigScriptSize = 1650
	maxStandardMultiSigKeys  = 3
)

// checkInputsStandard rejects non-standard input script forms, run only
// under Policy.RequireStandard (spec §4.1 step 10).
func checkInputsStandard(tx *chain.Tx, view chain.CoinView) *VerifyError {
	for i, in := range tx.MsgTx().TxIn {
		coin := view.Entry(in.PreviousOutPoint)
		if coin == nil {
			continue
		}
		switch txscript.GetScriptClass(coin.Output.PkScript) {
		case txscript.ScriptHashTy:
			n := txscript.GetPreciseSigOpCount(in.SignatureScript, coin.Output.PkScript, true)
			if n > maxStandardP2SHSigOps {
				return verifyErr(tx, ErrNonstandard, fmt.Sprintf(
					"input %d P2SH signature operations %d exceed limit %d",
					i, n, maxStandardP2SHSigOps))
			}
		case txscript.NonStandardTy:
			return verifyErr(tx, ErrNonstandard, fmt.Sprintf(
				"input %d spends a non-standard script form", i))
		}
	}
	return nil
}

// calcMinRequiredFee scales the minimum relay fee rate to size, matching
// spec §4.1 step 10's `min_relay_fee * size`.
func calcMinRequiredFee(size int64, minRelayTxFee btcutil.Amount) btcutil.Amount {
	fee := int64(minRelayTxFee) * size / 1000
	if fee == 0 && minRelayTxFee > 0 {
		fee = int64(minRelayTxFee)
	}
	if fee < 0 || fee > btcutil.MaxSatoshi {
		fee = btcutil.MaxSatoshi
	}
	return btcutil.Amount(fee)
}

// calcPriority computes the classic coin-age priority: sum over inputs of
// (value * age-in-blocks), divided by the transaction's serialized size. Used
// by the free-relay gate (spec §4.1 step 10, is_free).
func calcPriority(tx *chain.Tx, view chain.CoinView, nextHeight int32) float64 {
	var sum float64
	for _, in := range tx.MsgTx().TxIn {
		coin := view.Entry(in.PreviousOutPoint)
		if coin == nil {
			continue
		}
		age := int64(0)
		if coin.Height >= 0 && nextHeight > coin.Height {
			age = int64(nextHeight - coin.Height)
		}
		sum += float64(coin.Value()) * float64(age)
	}
	size := tx.SerializeSize()
	if size == 0 {
		return 0
	}
	return sum / float64(size)
}

// sigOpCost approximates the weighted signature-operation cost of tx,
// following the teacher's `checkInputsStandard`/`GetSigOpCost` reuse of
// txscript's accounting primitives rather than the full consensus engine
// (spec §1's script verification remains delegated to the worker pool; this
// is only the cheap accounting pass admission needs before delegating).
func sigOpCost(tx *chain.Tx, view chain.CoinView) int {
	msgTx := tx.MsgTx()
	cost := 0
	for _, out := range msgTx.TxOut {
		cost += txscript.GetSigOpCount(out.PkScript) * 4
	}
	for _, in := range msgTx.TxIn {
		coin := view.Entry(in.PreviousOutPoint)
		if coin == nil {
			continue
		}
		if txscript.GetScriptClass(coin.Output.PkScript) == txscript.ScriptHashTy {
			cost += txscript.GetPreciseSigOpCount(in.SignatureScript, coin.Output.PkScript, true) * 4
		} else {
			cost += txscript.GetSigOpCount(coin.Output.PkScript) * 4
		}
	}
	return cost
}

// checkInputs verifies value conservation and coinbase maturity, returning
// the transaction's fee (spec §4.1 step 10, `check_inputs`). It does not
// run script verification; that is the worker pool's job.
func checkInputs(tx *chain.Tx, view chain.CoinView, nextHeight, coinbaseMaturity int32) (btcutil.Amount, *VerifyError) {
	var totalIn btcutil.Amount
	for _, in := range tx.MsgTx().TxIn {
		coin := view.Entry(in.PreviousOutPoint)
		if coin == nil {
			return 0, verifyErr(tx, ErrInvalid, "bad-txns-inputs-missingorspent")
		}
		if !coin.SpendableAt(nextHeight, coinbaseMaturity) {
			return 0, verifyErr(tx, ErrInvalid, "bad-txns-premature-spend-of-coinbase")
		}
		totalIn += coin.Value()
	}

	var totalOut btcutil.Amount
	for _, out := range tx.MsgTx().TxOut {
		totalOut += btcutil.Amount(out.Value)
	}

	if totalIn < totalOut {
		return 0, verifyErr(tx, ErrInvalid, "bad-txns-in-belowout")
	}

	return totalIn - totalOut, nil
}
