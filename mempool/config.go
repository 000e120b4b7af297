// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/CjMapope/wmcc-core/chain"
	"github.com/CjMapope/wmcc-core/mempool/feeestimator"
)

// Policy houses the local-policy knobs named throughout spec §4 and the
// GLOSSARY. Every field here corresponds to a named constant/flag in the
// spec rather than an invented one.
type Policy struct {
	// MaxTxVersion is the highest transaction version accepted (spec
	// §4.1 step 3).
	MaxTxVersion int32

	// RequireStandard gates the standardness checks of spec §4.1 step 3
	// and contextual-verify step 10.
	RequireStandard bool

	// RelayPriority, when true, lets a below-minimum-fee transaction
	// through if it is free by coin-age priority (spec §4.1 step 10).
	RelayPriority bool

	// FreeTxRelayLimit is the free-relay throttle limit in units of
	// thousands of bytes per minute (spec §4.1 step 10).
	FreeTxRelayLimit float64

	// MaxOrphanTxs is max_orphans (GLOSSARY).
	MaxOrphanTxs int

	// MaxOrphanTxSize names a per-orphan size bound. Admission does not
	// read it: an orphan's size is checked against the fixed maxTxWeight
	// limit in admit.go.
	MaxOrphanTxSize int

	// OrphanTTL bounds how long an orphan may wait for its parents.
	OrphanTTL time.Duration

	// OrphanExpireScanInterval paces the periodic orphan expiry scan so
	// it does not run on every single admission.
	OrphanExpireScanInterval time.Duration

	// MaxSigOpCostPerTx caps MAX_TX_SIGOPS_COST (spec §4.1 step 10).
	MaxSigOpCostPerTx int

	// MinRelayTxFee is the minimum relay fee rate, satoshi/kB.
	MinRelayTxFee btcutil.Amount

	// RejectAbsurdFees enables the absurd-fee ceiling rejection (spec
	// §4.1 step 10): fee > 10000 * min_fee.
	RejectAbsurdFees bool

	// ReplaceByFee, when false (the default), rejects any transaction
	// with an RBF-signaling input outright (spec §4.2, GLOSSARY: RBF).
	// This module never implements BIP125 replacement logic; setting
	// this true merely stops treating the signal as disqualifying.
	ReplaceByFee bool

	// MaxAncestors is max_ancestors (GLOSSARY, default 25).
	MaxAncestors int

	// MaxOrphans is an alias of MaxOrphanTxs kept for parity with the
	// GLOSSARY's own naming. New fills whichever of the two is zero from
	// the other; the orphan limit applied on admission is MaxOrphans.
	MaxOrphans int

	// MaxSize is max_size, the total byte budget for the pool (GLOSSARY).
	MaxSize uint64

	// ExpiryTime is the default transaction time-to-live honored by
	// limit_size's first pass (spec §4.4, GLOSSARY: Expiry).
	ExpiryTime time.Duration

	// IndexAddress enables the optional CoinIndex/TxIndex secondary
	// indices (spec §4.8).
	IndexAddress bool
}

// DefaultPolicy mirrors the GLOSSARY's stated defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxTxVersion:             2,
		RequireStandard:          true,
		RelayPriority:            true,
		FreeTxRelayLimit:         15.0,
		MaxOrphanTxs:             100,
		MaxOrphanTxSize:          100000,
		OrphanTTL:                15 * time.Minute,
		OrphanExpireScanInterval: 5 * time.Minute,
		MaxSigOpCostPerTx:        80000,
		MinRelayTxFee:            1000,
		RejectAbsurdFees:         true,
		ReplaceByFee:             false,
		MaxAncestors:             25,
		MaxOrphans:               100,
		MaxSize:                  300 * 1000 * 1000,
		ExpiryTime:               336 * time.Hour,
		IndexAddress:             false,
	}
}

// Config is the full dependency-injection surface for a Pool, in the shape
// of the teacher's mempool.Config / mempool_v2.MempoolConfig: every
// external collaborator is an interface field, validated at construction,
// never a concrete import of the host node (spec §1, §6).
type Config struct {
	Policy Policy

	// Chain is the blockchain collaborator (spec §6).
	Chain chain.Chain

	// WorkerPool performs script/signature verification (spec §5, §6).
	// May be nil only if the caller never intends to admit transactions
	// requiring script verification (e.g. tests driving only the
	// bookkeeping paths).
	WorkerPool chain.WorkerPool

	// CoinbaseMaturity is the number of confirmations a coinbase output
	// needs before it is spendable, used by check_inputs (spec §4.1 step
	// 10).
	CoinbaseMaturity int32

	// FeeEstimator is the optional fee-rate tracker (spec §2). Nil
	// disables fee estimation entirely.
	FeeEstimator *feeestimator.Estimator

	// Cache is the optional on-disk persistence layer (spec §4.7). Nil
	// disables persistence.
	Cache Cache

	// AddrIndex is the optional secondary-index collaborator (spec
	// §4.8). Nil disables indexing regardless of Policy.IndexAddress.
	AddrIndex AddrIndexer
}

// AddrIndexer is the subset of mempool/index's functionality the core pool
// calls into when Policy.IndexAddress is set (spec §4.8).
type AddrIndexer interface {
	AddUnconfirmedTx(entry *Entry, view chain.CoinView)
	RemoveUnconfirmedTx(entry *Entry, view chain.CoinView)
}

// Cache is the subset of mempool/cache's functionality the core pool drives
// (spec §4.7). Defined here, rather than imported from the cache package
// directly, to avoid a dependency cycle: cache needs Entry.
type Cache interface {
	Open(tip func() [32]byte) ([]*Entry, error)
	PutEntry(e *Entry) error
	DeleteEntry(hash [32]byte) error
	SetTip(hash [32]byte) error
	PutFeeEstimator(blob []byte) error
	FeeEstimatorBlob() ([]byte, error)
	Flush() error
	Wipe() error
	Close() error
}
