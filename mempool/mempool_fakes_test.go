// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/CjMapope/wmcc-core/chain"
)

// fakeChain is a minimal, in-memory chain.Chain, grounded on the teacher's
// mempool_test.go fakeChain but trimmed to the boundary this module actually
// calls: a coin set and a handful of always-true consensus predicates that
// individual tests can override.
type fakeChain struct {
	mu sync.Mutex

	tip    chainhash.Hash
	height int32
	coins  map[wire.OutPoint]*chain.Coin

	hasCSV, hasWitness, synced bool
	verifyFinal                bool
	verifyLocksErr             error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		coins:       make(map[wire.OutPoint]*chain.Coin),
		hasCSV:      true,
		hasWitness:  true,
		synced:      true,
		verifyFinal: true,
	}
}

func (c *fakeChain) Tip() chainhash.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tip
}

func (c *fakeChain) Height() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *fakeChain) HasCSV() bool     { return c.hasCSV }
func (c *fakeChain) HasWitness() bool { return c.hasWitness }
func (c *fakeChain) Synced() bool     { return c.synced }

func (c *fakeChain) MedianTimePast(chainhash.Hash) time.Time { return time.Now() }

func (c *fakeChain) HasCoins(hash chainhash.Hash) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for op := range c.coins {
		if op.Hash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeChain) ReadCoin(op chain.Outpoint) (*chain.Coin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coins[op], nil
}

func (c *fakeChain) VerifyLocks(chainhash.Hash, *chain.Tx, chain.CoinView, chain.LockTimeFlags) error {
	return c.verifyLocksErr
}

func (c *fakeChain) VerifyFinal(chainhash.Hash, *chain.Tx, chain.LockTimeFlags) bool {
	return c.verifyFinal
}

// fund registers a spendable confirmed coin and returns its outpoint. hash
// is synthesized from label so callers do not need a real parsed
// transaction backing it.
func (c *fakeChain) fund(label string, value int64) wire.OutPoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	op := wire.OutPoint{Hash: chainhash.HashH([]byte(label)), Index: 0}
	c.coins[op] = &chain.Coin{
		Outpoint: op,
		Output:   wire.TxOut{Value: value, PkScript: []byte{0x51}},
		Height:   1,
	}
	return op
}

// spend removes op from the confirmed coin set, as a block connection would.
func (c *fakeChain) spend(op wire.OutPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.coins, op)
}

// fakeWorkerPool always reports scripts as valid unless told otherwise; this
// module delegates real script verification away from itself entirely (spec
// §1, §6), so the pipeline logic under test never depends on real
// signatures.
type fakeWorkerPool struct {
	ok  bool
	err error
}

func (f *fakeWorkerPool) VerifyAsync(context.Context, *chain.Tx, chain.CoinView, uint32) (bool, error) {
	return f.ok, f.err
}

// newTestPool builds a Pool wired to a fresh fakeChain/fakeWorkerPool pair,
// with policy relaxed so tests can focus on one behavior at a time without
// fighting standardness/fee gates they are not exercising.
func newTestPool(t *testing.T) (*Pool, *fakeChain) {
	t.Helper()

	fc := newFakeChain()
	cfg := Config{
		Chain:            fc,
		WorkerPool:       &fakeWorkerPool{ok: true},
		CoinbaseMaturity: 100,
		Policy: Policy{
			MaxTxVersion:     2,
			RequireStandard:  false,
			RelayPriority:    false,
			FreeTxRelayLimit: 15.0,
			MaxOrphanTxs:     100,
			MaxOrphans:       100,
			OrphanTTL:        time.Hour,
			MaxSigOpCostPerTx: 80000,
			MinRelayTxFee:     0,
			RejectAbsurdFees:  false,
			ReplaceByFee:      true,
			MaxAncestors:      25,
			MaxSize:           300 * 1000 * 1000,
			ExpiryTime:        336 * time.Hour,
		},
	}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, fc
}

// newSpendTx builds a transaction spending every outpoint in prevOuts and
// producing one output per amount in outputs.
func newSpendTx(prevOuts []wire.OutPoint, outputs []int64) *chain.Tx {
	msgTx := wire.NewMsgTx(2)
	for _, op := range prevOuts {
		msgTx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: op,
			Sequence:         wire.MaxTxInSequenceNum,
		})
	}
	for _, v := range outputs {
		msgTx.AddTxOut(&wire.TxOut{Value: v, PkScript: []byte{0x51}})
	}
	return chain.NewTx(msgTx)
}

func mustAddTx(t *testing.T, p *Pool, tx *chain.Tx) *AcceptResult {
	t.Helper()
	res, err := p.AddTx(context.Background(), tx, -1)
	if err != nil {
		t.Fatalf("AddTx(%s): %v", tx.Hash(), err)
	}
	return res
}
