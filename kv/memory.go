// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package kv

// memoryStore is a pure in-memory Store with no durable layer: the overlay
// itself is the entire table, so Flush and Commit are no-ops that leave its
// contents in place, per spec §6.1's Db::memory().
type memoryStore struct {
	table *overlay
}

// NewMemory opens an ephemeral, non-persistent store.
func NewMemory() Store {
	return &memoryStore{table: newOverlay()}
}

func (s *memoryStore) Get(key []byte) ([]byte, bool, error) {
	value, tombstone, staged := s.table.get(string(key))
	if !staged || tombstone {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *memoryStore) Put(key []byte, value []byte) error {
	if err := CheckKeyLength(key); err != nil {
		return err
	}
	s.table.put(string(key), value)
	return nil
}

func (s *memoryStore) Delete(key []byte) error {
	if err := CheckKeyLength(key); err != nil {
		return err
	}
	s.table.delete(string(key))
	return nil
}

func (s *memoryStore) ClearPrefix(prefix []byte) error {
	s.table.clearPrefix(string(prefix))
	return nil
}

func (s *memoryStore) Flush() error {
	return nil
}

func (s *memoryStore) Commit() error {
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
