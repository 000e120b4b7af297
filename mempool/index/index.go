// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package index implements the mempool's optional secondary indices (spec
// §4.8): TxIndex, mapping an address to the unconfirmed transactions that
// touch it, and CoinIndex, mapping an address to its unconfirmed unspent
// outputs. Both are driven entirely off the mempool.AddrIndexer hooks; they
// never read the chain or the pool's own maps directly.
package index

import (
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/CjMapope/wmcc-core/chain"
	"github.com/CjMapope/wmcc-core/mempool"
)

// AddrHash identifies an address the way both indices key on it. It is the
// double-SHA256 of the output script rather than a decoded, network-specific
// address, so the index needs no chain-parameters collaborator of its own;
// callers that need a human-readable address resolve one separately.
type AddrHash = chainhash.Hash

func addrHashOf(pkScript []byte) AddrHash {
	return chainhash.HashH(pkScript)
}

// IndexedCoin is a single unconfirmed unspent output as CoinIndex tracks it.
type IndexedCoin struct {
	Outpoint chain.Outpoint
	Value    btcutil.Amount
	PkScript []byte
	Height   int32
}

type consumedCoin struct {
	addr AddrHash
	coin IndexedCoin
}

// Index is the combined TxIndex/CoinIndex implementation of
// mempool.AddrIndexer.
type Index struct {
	mu sync.RWMutex

	txByAddr map[AddrHash]map[chainhash.Hash]*mempool.Entry
	addrByTx map[chainhash.Hash][]AddrHash

	coinsByAddr map[AddrHash]map[[36]byte]*IndexedCoin

	// consumedByTx remembers, for each tracked entry, the parent coins its
	// inputs spent, so RemoveUnconfirmedTx can restore them to CoinIndex
	// without needing a CoinView of its own (spec §4.8's "restore coins
	// for spent parents present in the pool").
	consumedByTx map[chainhash.Hash][]consumedCoin
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		txByAddr:     make(map[AddrHash]map[chainhash.Hash]*mempool.Entry),
		addrByTx:     make(map[chainhash.Hash][]AddrHash),
		coinsByAddr:  make(map[AddrHash]map[[36]byte]*IndexedCoin),
		consumedByTx: make(map[chainhash.Hash][]consumedCoin),
	}
}

// AddUnconfirmedTx implements mempool.AddrIndexer (spec §4.8). It unions the
// address hashes of every resolved input and every output, records entry
// under each in TxIndex, removes each spent parent outpoint from CoinIndex,
// and adds one IndexedCoin per new output.
func (idx *Index) AddUnconfirmedTx(entry *mempool.Entry, view chain.CoinView) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	hash := entry.Hash()
	msgTx := entry.Tx.MsgTx()

	addrSet := make(map[AddrHash]bool)
	var consumed []consumedCoin

	for _, in := range msgTx.TxIn {
		coin := view.Entry(in.PreviousOutPoint)
		if coin == nil {
			continue
		}
		addr := addrHashOf(coin.Output.PkScript)
		addrSet[addr] = true

		if byAddr, ok := idx.coinsByAddr[addr]; ok {
			delete(byAddr, chain.OutpointKey(in.PreviousOutPoint))
			if len(byAddr) == 0 {
				delete(idx.coinsByAddr, addr)
			}
		}

		if coin.Height < 0 {
			consumed = append(consumed, consumedCoin{
				addr: addr,
				coin: IndexedCoin{
					Outpoint: in.PreviousOutPoint,
					Value:    coin.Value(),
					PkScript: coin.Output.PkScript,
					Height:   coin.Height,
				},
			})
		}
	}

	for i, out := range msgTx.TxOut {
		addr := addrHashOf(out.PkScript)
		addrSet[addr] = true

		op := chain.Outpoint{Hash: hash, Index: uint32(i)}
		if idx.coinsByAddr[addr] == nil {
			idx.coinsByAddr[addr] = make(map[[36]byte]*IndexedCoin)
		}
		idx.coinsByAddr[addr][chain.OutpointKey(op)] = &IndexedCoin{
			Outpoint: op,
			Value:    btcutil.Amount(out.Value),
			PkScript: out.PkScript,
			Height:   entry.Height,
		}
	}

	addrs := make([]AddrHash, 0, len(addrSet))
	for addr := range addrSet {
		addrs = append(addrs, addr)
		if idx.txByAddr[addr] == nil {
			idx.txByAddr[addr] = make(map[chainhash.Hash]*mempool.Entry)
		}
		idx.txByAddr[addr][hash] = entry
	}
	idx.addrByTx[hash] = addrs
	idx.consumedByTx[hash] = consumed
}

// RemoveUnconfirmedTx implements mempool.AddrIndexer (spec §4.8): unwinds
// TxIndex's per-address membership, drops entry's own produced coins from
// CoinIndex, and restores each parent coin entry's inputs had spent.
func (idx *Index) RemoveUnconfirmedTx(entry *mempool.Entry, _ chain.CoinView) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	hash := entry.Hash()

	for _, addr := range idx.addrByTx[hash] {
		if byAddr, ok := idx.txByAddr[addr]; ok {
			delete(byAddr, hash)
			if len(byAddr) == 0 {
				delete(idx.txByAddr, addr)
			}
		}
	}
	delete(idx.addrByTx, hash)

	for i, out := range entry.Tx.MsgTx().TxOut {
		addr := addrHashOf(out.PkScript)
		op := chain.Outpoint{Hash: hash, Index: uint32(i)}
		if byAddr, ok := idx.coinsByAddr[addr]; ok {
			delete(byAddr, chain.OutpointKey(op))
			if len(byAddr) == 0 {
				delete(idx.coinsByAddr, addr)
			}
		}
	}

	for _, c := range idx.consumedByTx[hash] {
		if idx.coinsByAddr[c.addr] == nil {
			idx.coinsByAddr[c.addr] = make(map[[36]byte]*IndexedCoin)
		}
		coin := c.coin
		idx.coinsByAddr[c.addr][chain.OutpointKey(coin.Outpoint)] = &coin
	}
	delete(idx.consumedByTx, hash)
}

// TxsByAddress returns every unconfirmed transaction TxIndex has recorded
// against addr.
func (idx *Index) TxsByAddress(addr AddrHash) []*mempool.Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	byAddr, ok := idx.txByAddr[addr]
	if !ok {
		return nil
	}
	out := make([]*mempool.Entry, 0, len(byAddr))
	for _, entry := range byAddr {
		out = append(out, entry)
	}
	return out
}

// CoinsByAddress returns every unconfirmed unspent output CoinIndex has
// recorded against addr.
func (idx *Index) CoinsByAddress(addr AddrHash) []*IndexedCoin {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	byAddr, ok := idx.coinsByAddr[addr]
	if !ok {
		return nil
	}
	out := make([]*IndexedCoin, 0, len(byAddr))
	for _, coin := range byAddr {
		out = append(out, coin)
	}
	return out
}
