// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package kv implements the two-layer transactional key/value backend
// described in spec §4.2: a sorted byte-keyed table, shared by all state
// store entities, backed by an in-memory write overlay above either a pure
// in-memory map or a durable ordered store.
package kv

import (
	"fmt"

	"github.com/Fantom-foundation/go-state-store/common"
)

// MaxKeyLength is the hard upper bound on backend key length (spec §5).
const MaxKeyLength = 96

// Store is the backend surface consumed by a mutable transaction. All
// operations are single-threaded; a Store has at most one live transaction
// worth of staged overlay at a time.
type Store interface {
	// Get returns the overlay value if present (including tombstones,
	// reported as found=false), else the underlying durable value.
	Get(key []byte) (value []byte, found bool, err error)

	// Put stages key->value in the overlay.
	Put(key []byte, value []byte) error

	// Delete stages a tombstone for key in the overlay.
	Delete(key []byte) error

	// ClearPrefix removes every overlay entry whose key starts with prefix
	// and sweeps the underlying durable store for the same range.
	ClearPrefix(prefix []byte) error

	// Flush applies the overlay to the underlying store without ending the
	// transaction; afterwards the overlay is empty and point-reads observe
	// the flushed values directly from the durable layer.
	Flush() error

	// Commit applies any remaining overlay and commits the durable
	// transaction. For the pure in-memory store, whose overlay is the whole
	// table, Flush and Commit are no-ops and the staged data stays readable.
	Commit() error

	// Close releases resources held by the store (durable handle, lock
	// file). Close does not commit; call Commit first if needed.
	Close() error
}

// CheckKeyLength enforces the MaxKeyLength invariant shared by Put/Delete.
func CheckKeyLength(key []byte) error {
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: got %d bytes, max %d", common.ErrKeyTooLong, len(key), MaxKeyLength)
	}
	return nil
}

// GetNode/PutNode/DeleteNode adapt Store to mpt.NodeStore for a walker
// operating directly on backend keys (no further prefixing needed, since
// the walker already includes the trie prefix in every key it builds).

type nodeStoreAdapter struct {
	store Store
}

// AsNodeStore wraps a Store so it satisfies mpt.NodeStore.
func AsNodeStore(store Store) nodeStoreAdapter {
	return nodeStoreAdapter{store: store}
}

func (a nodeStoreAdapter) GetNode(key []byte) ([]byte, bool, error) {
	return a.store.Get(key)
}

func (a nodeStoreAdapter) PutNode(key []byte, data []byte) error {
	return a.store.Put(key, data)
}

func (a nodeStoreAdapter) DeleteNode(key []byte) error {
	return a.store.Delete(key)
}
