// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/CjMapope/wmcc-core/chain"
)

// ErrorType enumerates the externally-visible rejection classes a
// VerifyError can carry (spec §7). Collaborator I/O failures are not
// VerifyErrors; they propagate as plain errors instead.
type ErrorType int

const (
	// ErrInvalid covers consensus-level failures: bad sanity, failed
	// script verification, failed sequence locks, bad inputs.
	ErrInvalid ErrorType = iota

	// ErrNonstandard covers local-policy rejections: non-standard forms,
	// premature version/witness, oversize.
	ErrNonstandard

	// ErrAlreadyKnown covers a transaction that is already resident in
	// the pool, in an in-flight admission, or in the orphan table.
	ErrAlreadyKnown

	// ErrDuplicate covers double-spends and chain-confirmed duplicates.
	ErrDuplicate

	// ErrInsufficientFee covers below-minimum-relay-fee and free-relay
	// throttling rejections.
	ErrInsufficientFee

	// ErrHighFee covers the absurd-fee ceiling rejection.
	ErrHighFee
)

func (t ErrorType) String() string {
	switch t {
	case ErrInvalid:
		return "invalid"
	case ErrNonstandard:
		return "nonstandard"
	case ErrAlreadyKnown:
		return "alreadyknown"
	case ErrDuplicate:
		return "duplicate"
	case ErrInsufficientFee:
		return "insufficientfee"
	case ErrHighFee:
		return "highfee"
	default:
		return "unknown"
	}
}

// VerifyError is the single externally-visible failure class of admission
// (spec §7). Score is a misbehavior score a host node may use to penalize
// the originating peer; Malleated marks a rejection caused by a witness
// serialization quirk rather than the transaction's economic substance, so
// the reject filter is not poisoned against a later, honestly-relayed
// non-witness version of the same txid.
type VerifyError struct {
	Tx        *chain.Tx
	Type      ErrorType
	Reason    string
	Score     int
	Malleated bool
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// verifyErr builds a VerifyError for tx.
func verifyErr(tx *chain.Tx, typ ErrorType, reason string) *VerifyError {
	return &VerifyError{Tx: tx, Type: typ, Reason: reason}
}

// verifyErrScored builds a VerifyError carrying a non-zero misbehavior
// score, used for protocol violations serious enough to penalize the peer
// (spec §4.1 step 2: coinbase admission attempt, score 100).
func verifyErrScored(tx *chain.Tx, typ ErrorType, reason string, score int) *VerifyError {
	return &VerifyError{Tx: tx, Type: typ, Reason: reason, Score: score}
}
