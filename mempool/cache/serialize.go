// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/CjMapope/wmcc-core/chain"
	"github.com/CjMapope/wmcc-core/mempool"
)

// entryVersion tags the wire format serializeEntry/deserializeEntry
// produce, independent of the store-wide version key (spec §4.7).
const entryVersion = 1

// serializeEntry encodes e the way it is persisted under the `e(hash)` key:
// every field NewEntry does not derive from the transaction, followed by the
// raw transaction bytes.
func serializeEntry(e *mempool.Entry) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(entryVersion))
	binary.Write(&buf, binary.BigEndian, e.Time.Unix())
	binary.Write(&buf, binary.BigEndian, e.Height)
	binary.Write(&buf, binary.BigEndian, int64(e.Fee))
	binary.Write(&buf, binary.BigEndian, e.Size)
	binary.Write(&buf, binary.BigEndian, uint32(e.SigOpCost))
	binary.Write(&buf, binary.BigEndian, e.Priority)
	binary.Write(&buf, binary.BigEndian, int64(e.DeltaFee))
	binary.Write(&buf, binary.BigEndian, int64(e.DescFee))
	binary.Write(&buf, binary.BigEndian, e.DescSize)
	binary.Write(&buf, binary.BigEndian, e.OriginPeer)

	var txBuf bytes.Buffer
	e.Tx.MsgTx().Serialize(&txBuf)
	binary.Write(&buf, binary.BigEndian, uint32(txBuf.Len()))
	buf.Write(txBuf.Bytes())

	return buf.Bytes()
}

// deserializeEntry is the inverse of serializeEntry, used at Open time to
// reconstruct every cached entry.
func deserializeEntry(data []byte) (*mempool.Entry, error) {
	buf := bytes.NewReader(data)

	var version uint32
	if err := binary.Read(buf, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("cache: read entry version: %w", err)
	}
	if version != entryVersion {
		return nil, fmt.Errorf("cache: unsupported entry version %d", version)
	}

	e := &mempool.Entry{}

	var unixTime int64
	if err := binary.Read(buf, binary.BigEndian, &unixTime); err != nil {
		return nil, fmt.Errorf("cache: read entry time: %w", err)
	}
	e.Time = time.Unix(unixTime, 0)

	if err := binary.Read(buf, binary.BigEndian, &e.Height); err != nil {
		return nil, fmt.Errorf("cache: read entry height: %w", err)
	}

	var fee, deltaFee, descFee int64
	if err := binary.Read(buf, binary.BigEndian, &fee); err != nil {
		return nil, fmt.Errorf("cache: read entry fee: %w", err)
	}
	e.Fee = btcutil.Amount(fee)

	if err := binary.Read(buf, binary.BigEndian, &e.Size); err != nil {
		return nil, fmt.Errorf("cache: read entry size: %w", err)
	}

	var sigOpCost uint32
	if err := binary.Read(buf, binary.BigEndian, &sigOpCost); err != nil {
		return nil, fmt.Errorf("cache: read entry sigop cost: %w", err)
	}
	e.SigOpCost = int(sigOpCost)

	if err := binary.Read(buf, binary.BigEndian, &e.Priority); err != nil {
		return nil, fmt.Errorf("cache: read entry priority: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &deltaFee); err != nil {
		return nil, fmt.Errorf("cache: read entry delta fee: %w", err)
	}
	e.DeltaFee = btcutil.Amount(deltaFee)
	if err := binary.Read(buf, binary.BigEndian, &descFee); err != nil {
		return nil, fmt.Errorf("cache: read entry desc fee: %w", err)
	}
	e.DescFee = btcutil.Amount(descFee)
	if err := binary.Read(buf, binary.BigEndian, &e.DescSize); err != nil {
		return nil, fmt.Errorf("cache: read entry desc size: %w", err)
	}
	if err := binary.Read(buf, binary.BigEndian, &e.OriginPeer); err != nil {
		return nil, fmt.Errorf("cache: read entry origin peer: %w", err)
	}

	var txLen uint32
	if err := binary.Read(buf, binary.BigEndian, &txLen); err != nil {
		return nil, fmt.Errorf("cache: read entry tx length: %w", err)
	}
	if txLen > wire.MaxBlockPayload {
		return nil, fmt.Errorf("cache: implausible entry tx length %d", txLen)
	}

	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(buf); err != nil {
		return nil, fmt.Errorf("cache: deserialize entry tx: %w", err)
	}
	e.Tx = chain.NewTx(&msgTx)

	return e, nil
}
