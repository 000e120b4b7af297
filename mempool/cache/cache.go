// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cache implements MempoolCache (spec §4.7): the mempool's optional
// on-disk persistence layer. It is a thin key/value schema laid over the
// project's database/engine abstraction, grounded on the teacher's use of
// the same engine.Engine/Transaction/Snapshot contract for its own indexing
// stores (database/engine/pebbledb, database/engine/leveldb).
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/CjMapope/wmcc-core/database/engine"
	"github.com/CjMapope/wmcc-core/mempool"
)

// storeVersion is VERSION from spec §4.7. A stored version that does not
// match forces a wipe and re-init on Open.
const storeVersion = 2

var (
	versionKey = []byte("V")
	tipKey     = []byte("R")
	feeKey     = []byte("F")
	entryPfx   = byte('e')
)

func entryKey(hash [32]byte) []byte {
	key := make([]byte, 33)
	key[0] = entryPfx
	copy(key[1:], hash[:])
	return key
}

// Store is the concrete mempool.Cache backing a Pool, keyed off a single
// database/engine.Engine instance dedicated to the mempool (spec §4.7).
type Store struct {
	eng engine.Engine

	mu    sync.Mutex
	batch engine.Transaction
}

// New wraps eng as a mempool.Cache. The caller owns eng's lifecycle beyond
// Close, which only releases Store's own pending batch.
func New(eng engine.Engine) *Store {
	return &Store{eng: eng}
}

// ensureBatch lazily opens the rolling write batch persistEntry/flushCache
// accumulate into between throttled Flush calls. Callers must hold s.mu.
func (s *Store) ensureBatch() (engine.Transaction, error) {
	if s.batch != nil {
		return s.batch, nil
	}
	tx, err := s.eng.Transaction()
	if err != nil {
		return nil, err
	}
	s.batch = tx
	return tx, nil
}

// Open reconstructs every persisted entry, first checking the stored
// version and tip against tip() and wiping on any mismatch (spec §4.7).
func (s *Store) Open(tip func() [32]byte) ([]*mempool.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.eng.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	current := tip()
	consistent := false

	if hasVersion, err := snap.Has(versionKey); err != nil {
		return nil, fmt.Errorf("cache: check version: %w", err)
	} else if hasVersion {
		versionBytes, err := snap.Get(versionKey)
		if err != nil {
			return nil, fmt.Errorf("cache: read version: %w", err)
		}
		storedTip, err := snap.Get(tipKey)
		if err != nil {
			return nil, fmt.Errorf("cache: read tip: %w", err)
		}
		consistent = len(versionBytes) == 4 &&
			binary.BigEndian.Uint32(versionBytes) == storeVersion &&
			bytes.Equal(storedTip, current[:])
	}

	if !consistent {
		snap.Release()
		if err := s.wipeLocked(); err != nil {
			return nil, err
		}
		if err := s.initLocked(current); err != nil {
			return nil, err
		}
		return nil, nil
	}

	iter := snap.NewIterator(engine.BytesPrefix([]byte{entryPfx}))
	defer iter.Release()

	var entries []*mempool.Entry
	for iter.First(); iter.Valid(); iter.Next() {
		value := append([]byte(nil), iter.Value()...)
		entry, err := deserializeEntry(value)
		if err != nil {
			log.Warnf("cache: skipping unreadable entry: %v", err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("cache: iterate entries: %w", err)
	}

	return entries, nil
}

// initLocked writes a fresh version/tip pair, called after a wipe. Callers
// must hold s.mu.
func (s *Store) initLocked(tip [32]byte) error {
	tx, err := s.eng.Transaction()
	if err != nil {
		return err
	}
	var versionBytes [4]byte
	binary.BigEndian.PutUint32(versionBytes[:], storeVersion)
	if err := tx.Put(versionKey, versionBytes[:]); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Put(tipKey, tip[:]); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit()
}

// PutEntry stages e for the next Flush.
func (s *Store) PutEntry(e *mempool.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.ensureBatch()
	if err != nil {
		return err
	}
	hash := e.Hash()
	return tx.Put(entryKey(hash), serializeEntry(e))
}

// DeleteEntry stages hash's removal for the next Flush.
func (s *Store) DeleteEntry(hash [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.ensureBatch()
	if err != nil {
		return err
	}
	return tx.Delete(entryKey(hash))
}

// SetTip stages the tip pointer for the next Flush.
func (s *Store) SetTip(hash [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.ensureBatch()
	if err != nil {
		return err
	}
	return tx.Put(tipKey, hash[:])
}

// PutFeeEstimator stages the fee estimator's serialized state for the next
// Flush.
func (s *Store) PutFeeEstimator(blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.ensureBatch()
	if err != nil {
		return err
	}
	return tx.Put(feeKey, blob)
}

// FeeEstimatorBlob reads the fee estimator's last-persisted state, or nil if
// nothing has been persisted yet.
func (s *Store) FeeEstimatorBlob() ([]byte, error) {
	snap, err := s.eng.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	ok, err := snap.Has(feeKey)
	if err != nil || !ok {
		return nil, err
	}
	return snap.Get(feeKey)
}

// Flush commits the rolling batch, guaranteeing every PutEntry, DeleteEntry,
// SetTip, and PutFeeEstimator call since the last Flush is durable.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.batch == nil {
		return nil
	}
	tx := s.batch
	s.batch = nil
	return tx.Commit()
}

// Wipe discards the pending batch and every persisted key, then reinitializes
// the version marker with a zero tip (spec §4.7's mismatch path).
func (s *Store) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.batch != nil {
		s.batch.Discard()
		s.batch = nil
	}
	if err := s.wipeLocked(); err != nil {
		return err
	}
	return s.initLocked([32]byte{})
}

// wipeLocked deletes every key this store owns. Callers must hold s.mu.
func (s *Store) wipeLocked() error {
	snap, err := s.eng.Snapshot()
	if err != nil {
		return err
	}

	var keys [][]byte
	iter := snap.NewIterator(engine.BytesPrefix([]byte{entryPfx}))
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, append([]byte(nil), iter.Key()...))
	}
	iterErr := iter.Error()
	iter.Release()
	snap.Release()
	if iterErr != nil {
		return fmt.Errorf("cache: iterate for wipe: %w", iterErr)
	}

	tx, err := s.eng.Transaction()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			tx.Discard()
			return err
		}
	}
	if err := tx.Delete(versionKey); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Delete(tipKey); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Delete(feeKey); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit()
}

// Close releases the pending batch, if any. The underlying engine's own
// lifecycle is the caller's responsibility.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.batch != nil {
		s.batch.Discard()
		s.batch = nil
	}
	return nil
}
