// Copyright (c) 2013-2025 The btcsuite developers
// Copyright (c) 2018-2019 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package feeestimator tracks fee-rate buckets observed on transactions
// admitted to, removed from, or confirmed out of the mempool. Spec §2
// treats the estimator as an opaque black-box invoked on admit/remove/block
// and persisted as an opaque blob under the mempool cache's "F" key; this
// package is that black box, grounded on the teacher's fees/estimator.go
// bucket-decay design.
package feeestimator

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ErrNotEnoughTxs is returned when too few confirmed observations exist to
// produce a confident estimate.
var ErrNotEnoughTxs = errors.New("not enough transactions observed for estimation")

const (
	// binSize is the number of fee-rate buckets tracked, spaced
	// geometrically by feeRateStep upward from the minimum relay fee, so
	// the top bucket starts at about 41x (1.1^39) of it.
	binSize = 40

	// feeRateStep is the growth factor between adjacent buckets.
	feeRateStep = 1.1

	// decay exponentially ages out old observations so the estimate
	// tracks recent fee-market conditions.
	decay = 0.998

	estimatorVersion uint32 = 1
)

// bucket tracks, at a single fee-rate level, how many recently-observed
// transactions confirmed within successive small numbers of blocks.
type bucket struct {
	txCount    float64
	confirmed  [maxConfirms]float64
	unconfirms []pendingTx
}

const maxConfirms = 25

type pendingTx struct {
	hash       chainhash.Hash
	heightSeen int32
}

// Estimator is the fee-rate tracker. It is safe for concurrent use.
type Estimator struct {
	mu sync.Mutex

	bestHeight int32
	buckets    []bucket
	bounds     []float64 // satoshi/byte lower bound per bucket, ascending.

	trackedTx map[chainhash.Hash]trackedEntry
}

type trackedEntry struct {
	bucketIdx  int
	heightSeen int32
}

// New returns a fresh Estimator with geometrically-spaced buckets starting
// at minRate satoshi/byte.
func New(minRate float64) *Estimator {
	if minRate <= 0 {
		minRate = 1.0 / 1000 // 1 sat/kB floor.
	}
	bounds := make([]float64, binSize)
	rate := minRate
	for i := range bounds {
		bounds[i] = rate
		rate *= feeRateStep
	}
	return &Estimator{
		buckets:   make([]bucket, binSize),
		bounds:    bounds,
		trackedTx: make(map[chainhash.Hash]trackedEntry),
	}
}

func (e *Estimator) bucketFor(rate float64) int {
	idx := sort.Search(len(e.bounds), func(i int) bool { return e.bounds[i] > rate })
	if idx == 0 {
		return 0
	}
	return idx - 1
}

// ObserveAdmit records a freshly-admitted transaction's fee rate, satoshis
// per byte, called synchronously by the pool immediately after a successful
// admission (spec §2, §4.1 step 11).
func (e *Estimator) ObserveAdmit(hash chainhash.Hash, fee btcutil.Amount, size int64, height int32) {
	if size <= 0 {
		return
	}
	rate := float64(fee) / float64(size)

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.bucketFor(rate)
	e.buckets[idx].txCount++
	e.buckets[idx].unconfirms = append(e.buckets[idx].unconfirms, pendingTx{hash: hash, heightSeen: height})
	e.trackedTx[hash] = trackedEntry{bucketIdx: idx, heightSeen: height}
}

// ObserveRemove forgets a transaction that left the pool without
// confirming, e.g. evicted or conflicted out (spec §2: invoked on remove).
func (e *Estimator) ObserveRemove(hash chainhash.Hash) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.trackedTx[hash]
	if !ok {
		return
	}
	delete(e.trackedTx, hash)

	b := &e.buckets[t.bucketIdx]
	for i, p := range b.unconfirms {
		if p.hash == hash {
			b.unconfirms = append(b.unconfirms[:i], b.unconfirms[i+1:]...)
			break
		}
	}
}

// ObserveBlock records every transaction confirmed in a newly connected
// block, decaying older observations first (spec §2: invoked on block).
func (e *Estimator) ObserveBlock(height int32, confirmed []chainhash.Hash) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.decayLocked()
	e.bestHeight = height

	for _, hash := range confirmed {
		t, ok := e.trackedTx[hash]
		if !ok {
			continue
		}
		delete(e.trackedTx, hash)

		b := &e.buckets[t.bucketIdx]
		for i, p := range b.unconfirms {
			if p.hash == hash {
				b.unconfirms = append(b.unconfirms[:i], b.unconfirms[i+1:]...)
				break
			}
		}

		blocksToConfirm := int(height - t.heightSeen)
		if blocksToConfirm < 0 {
			blocksToConfirm = 0
		}
		if blocksToConfirm >= maxConfirms {
			blocksToConfirm = maxConfirms - 1
		}
		for i := blocksToConfirm; i < maxConfirms; i++ {
			b.confirmed[i]++
		}
	}
}

func (e *Estimator) decayLocked() {
	for i := range e.buckets {
		b := &e.buckets[i]
		b.txCount *= decay
		for c := range b.confirmed {
			b.confirmed[c] *= decay
		}
	}
}

// EstimateFee returns the satoshi/byte rate estimated to confirm within
// targetBlocks, or ErrNotEnoughTxs if too little data has been observed.
func (e *Estimator) EstimateFee(targetBlocks int) (float64, error) {
	if targetBlocks <= 0 {
		targetBlocks = 1
	}
	if targetBlocks >= maxConfirms {
		targetBlocks = maxConfirms - 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := len(e.buckets) - 1; i >= 0; i-- {
		b := &e.buckets[i]
		if b.txCount < 1 {
			continue
		}
		successPct := b.confirmed[targetBlocks] / b.txCount
		if successPct >= 0.85 {
			return e.bounds[i], nil
		}
	}

	return 0, ErrNotEnoughTxs
}

// Serialize produces an opaque blob capturing the estimator's full state,
// handed by the pool to its Cache under the "F" key (spec §4.7, §6).
func (e *Estimator) Serialize() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, estimatorVersion)
	binary.Write(&buf, binary.BigEndian, e.bestHeight)
	binary.Write(&buf, binary.BigEndian, uint32(len(e.buckets)))

	for i, b := range e.buckets {
		binary.Write(&buf, binary.BigEndian, e.bounds[i])
		binary.Write(&buf, binary.BigEndian, b.txCount)
		for _, c := range b.confirmed {
			binary.Write(&buf, binary.BigEndian, c)
		}
	}

	return buf.Bytes()
}

// Load reconstructs an Estimator from a blob produced by Serialize. Unlike
// the mempool entries themselves, in-flight unconfirmed observations are
// not carried across a restart: only the per-bucket counts and confirmed
// histograms are. Entries reloaded from the mempool cache are not
// re-observed, so their later confirmation is not recorded.
func Load(data []byte) (*Estimator, error) {
	buf := bytes.NewReader(data)

	var version uint32
	if err := binary.Read(buf, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("feeestimator: read version: %w", err)
	}
	if version != estimatorVersion {
		return nil, fmt.Errorf("feeestimator: unsupported version %d", version)
	}

	e := &Estimator{trackedTx: make(map[chainhash.Hash]trackedEntry)}
	if err := binary.Read(buf, binary.BigEndian, &e.bestHeight); err != nil {
		return nil, fmt.Errorf("feeestimator: read height: %w", err)
	}

	var n uint32
	if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("feeestimator: read bucket count: %w", err)
	}
	if n > 1<<20 {
		return nil, fmt.Errorf("feeestimator: implausible bucket count %d", n)
	}

	e.buckets = make([]bucket, n)
	e.bounds = make([]float64, n)
	for i := range e.buckets {
		if err := binary.Read(buf, binary.BigEndian, &e.bounds[i]); err != nil {
			return nil, fmt.Errorf("feeestimator: read bound %d: %w", i, err)
		}
		if err := binary.Read(buf, binary.BigEndian, &e.buckets[i].txCount); err != nil {
			return nil, fmt.Errorf("feeestimator: read count %d: %w", i, err)
		}
		for c := range e.buckets[i].confirmed {
			if err := binary.Read(buf, binary.BigEndian, &e.buckets[i].confirmed[c]); err != nil {
				return nil, fmt.Errorf("feeestimator: read confirmed %d/%d: %w", i, c, err)
			}
		}
	}

	return e, nil
}

// LoadFrom replaces e's state with other's, field by field, so callers can
// restore a loaded snapshot into an existing Estimator without copying
// other's mutex.
func (e *Estimator) LoadFrom(other *Estimator) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bestHeight = other.bestHeight
	e.buckets = other.buckets
	e.bounds = other.bounds
	e.trackedTx = other.trackedTx
}
