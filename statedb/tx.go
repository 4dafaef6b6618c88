// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package statedb

import (
	"fmt"

	"github.com/Fantom-foundation/go-state-store/common"
	"github.com/Fantom-foundation/go-state-store/common/amount"
	"github.com/Fantom-foundation/go-state-store/kv"
	"github.com/Fantom-foundation/go-state-store/mpt"
	"github.com/Fantom-foundation/go-state-store/rlp"
)

// accountEntry is a staged account overlay value: present=false models the
// "delete this account" entry of spec §4.4's Option<Account>.
type accountEntry struct {
	account Account
	present bool
}

// Transaction is the single mutable borrow of a Database's backend (spec
// §3.6, §5): it stages accounts, storage slots and destroyed-storage marks
// and computes roots by driving the trie walker over them.
type Transaction struct {
	store kv.Store

	accounts         map[common.Address]accountEntry
	storage          map[common.Address]map[common.Key]amount.Amount
	destroyedStorage map[common.Address]bool
}

func newTransaction(store kv.Store) *Transaction {
	return &Transaction{
		store:            store,
		accounts:         make(map[common.Address]accountEntry),
		storage:          make(map[common.Address]map[common.Key]amount.Amount),
		destroyedStorage: make(map[common.Address]bool),
	}
}

// Metadata reads a named metadata entry (spec §6.1).
func (tx *Transaction) Metadata(name string) ([]byte, bool, error) {
	return tx.store.Get(metadataKey(name))
}

// SetMetadata writes a named metadata entry.
func (tx *Transaction) SetMetadata(name string, value []byte) error {
	return tx.store.Put(metadataKey(name), value)
}

// StoreCode persists code content-addressed by its Keccak-256 hash and
// returns that hash (spec §4.4.2).
func (tx *Transaction) StoreCode(code []byte) (common.Hash, error) {
	return storeCode(tx.store, code)
}

// CodeFromHash returns the code blob for hash.
func (tx *Transaction) CodeFromHash(hash common.Hash) ([]byte, error) {
	return codeFromHash(tx.store, hash)
}

// SetAccount stages addr's account record. account == nil stages a deletion
// (spec §4.4.1).
func (tx *Transaction) SetAccount(addr common.Address, account *Account) {
	if account == nil {
		tx.accounts[addr] = accountEntry{present: false}
		return
	}
	tx.accounts[addr] = accountEntry{account: *account, present: true}
}

// TryAccount reads the overlay first, falling back to the backend account
// record; it returns (nil, nil) if the account does not exist.
func (tx *Transaction) TryAccount(addr common.Address) (*Account, error) {
	if e, ok := tx.accounts[addr]; ok {
		if !e.present {
			return nil, nil
		}
		account := e.account
		return &account, nil
	}
	return tx.readAccount(addr)
}

func (tx *Transaction) readAccount(addr common.Address) (*Account, error) {
	data, found, err := tx.store.Get(accountKey(addr))
	if err != nil || !found {
		return nil, err
	}
	account, err := decodeAccount(data)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// SetStorage stages a value for (addr, slot). The account must already
// exist, either staged or in the backend; if it was not yet staged, it is
// re-staged with its current value to pin its presence through the next
// state_root (spec §4.4.1).
func (tx *Transaction) SetStorage(addr common.Address, slot common.Key, value amount.Amount) error {
	if _, ok := tx.storage[addr]; !ok {
		if _, staged := tx.accounts[addr]; !staged {
			account, err := tx.readAccount(addr)
			if err != nil {
				return err
			}
			if account == nil {
				return fmt.Errorf("%w: %s", common.ErrAccountNotFound, addr.String())
			}
			tx.accounts[addr] = accountEntry{account: *account, present: true}
		} else if !tx.accounts[addr].present {
			return fmt.Errorf("%w: %s", common.ErrAccountNotFound, addr.String())
		}
		tx.storage[addr] = make(map[common.Key]amount.Amount)
	}
	tx.storage[addr][slot] = value
	return nil
}

// GetStorage reads the overlay first, returns zero if addr's storage was
// destroyed this transaction, else decodes the backend slot record, else
// returns zero (spec §4.4.1).
func (tx *Transaction) GetStorage(addr common.Address, slot common.Key) (amount.Amount, error) {
	if m, ok := tx.storage[addr]; ok {
		if v, ok := m[slot]; ok {
			return v, nil
		}
	}
	if tx.destroyedStorage[addr] {
		return amount.New(), nil
	}
	data, found, err := tx.store.Get(storageKey(addr, slot))
	if err != nil {
		return amount.Amount{}, err
	}
	if !found {
		return amount.New(), nil
	}
	return amount.NewFromBytes(data...), nil
}

// DestroyStorage marks addr's storage for destruction, drops any staged
// slots, and re-stages the account read if it was not already staged so
// its storage-root field is recomputed exactly once in state_root (spec
// §4.4.1).
func (tx *Transaction) DestroyStorage(addr common.Address) error {
	tx.destroyedStorage[addr] = true
	delete(tx.storage, addr)
	if _, staged := tx.accounts[addr]; !staged {
		account, err := tx.readAccount(addr)
		if err != nil {
			return err
		}
		if account != nil {
			tx.accounts[addr] = accountEntry{account: *account, present: true}
		}
	}
	return nil
}

// encodeStorageValue renders a nonzero storage value as leading-zero-
// trimmed big-endian bytes (spec §4.1).
func encodeStorageValue(v amount.Amount) []byte {
	buf := v.Bytes32()
	i := 0
	for i < len(buf)-1 && buf[i] == 0 {
		i++
	}
	return buf[i:]
}

// StorageRoot computes the per-address storage trie root (spec §4.4.3),
// sweeping any destroyed storage first and flushing staged slots to their
// raw backend records.
func (tx *Transaction) StorageRoot(addr common.Address) (common.Hash, error) {
	if tx.destroyedStorage[addr] {
		if err := tx.store.ClearPrefix(storageKeyPrefix(addr)); err != nil {
			return common.Hash{}, err
		}
		if err := tx.store.ClearPrefix(storageTriePrefix(addr)); err != nil {
			return common.Hash{}, err
		}
		if err := tx.store.Delete(storageTrieNodeKey(addr)); err != nil {
			return common.Hash{}, err
		}
		delete(tx.destroyedStorage, addr)
	}

	slots := tx.storage[addr]
	delete(tx.storage, addr)

	dirty := make([]mpt.DirtyEntry, 0, len(slots))
	for slot, value := range slots {
		key := storageKey(addr, slot)
		path := mpt.HashToNibbles(common.Keccak256ForKey(slot))
		if value.IsZero() {
			if err := tx.store.Delete(key); err != nil {
				return common.Hash{}, err
			}
			dirty = append(dirty, mpt.DirtyEntry{Path: path})
			continue
		}
		if err := tx.store.Put(key, encodeStorageValue(value)); err != nil {
			return common.Hash{}, err
		}
		dirty = append(dirty, mpt.DirtyEntry{
			Path:  path,
			Value: rlp.Encode(rlp.BigInt{Value: value.ToBig()}),
		})
	}
	mpt.SortDirtyEntriesDescending(dirty)

	walker := mpt.NewWalker(storageTriePrefix(addr), dirty, kv.AsNodeStore(tx.store))
	return walker.Root()
}

// StateRoot computes the global account trie root (spec §4.4.4). For each
// touched address it first computes the storage root (sweeping any
// destroyed storage, which shares the account's tagAccount‖address key
// prefix) and only then writes or deletes the account's own raw record, so
// the sweep never clobbers a record this call is about to (re)write.
func (tx *Transaction) StateRoot() (common.Hash, error) {
	addrs := make([]common.Address, 0, len(tx.accounts))
	for addr := range tx.accounts {
		addrs = append(addrs, addr)
	}

	dirty := make([]mpt.DirtyEntry, 0, len(addrs))
	for _, addr := range addrs {
		e := tx.accounts[addr]
		delete(tx.accounts, addr)

		sr, err := tx.StorageRoot(addr)
		if err != nil {
			return common.Hash{}, err
		}

		path := mpt.HashToNibbles(common.Keccak256ForAddress(addr))
		key := accountKey(addr)
		if !e.present {
			if err := tx.store.Delete(key); err != nil {
				return common.Hash{}, err
			}
			dirty = append(dirty, mpt.DirtyEntry{Path: path})
			continue
		}

		if err := tx.store.Put(key, encodeAccount(e.account)); err != nil {
			return common.Hash{}, err
		}
		value := rlp.Encode(rlp.List{Items: []rlp.Item{
			rlp.Uint64{Value: e.account.Nonce},
			rlp.BigInt{Value: e.account.Balance.ToBig()},
			rlp.String{Str: sr[:]},
			rlp.String{Str: e.account.CodeHash[:]},
		}})
		dirty = append(dirty, mpt.DirtyEntry{Path: path, Value: value})
	}
	mpt.SortDirtyEntriesDescending(dirty)

	walker := mpt.NewWalker(accountTriePrefix, dirty, kv.AsNodeStore(tx.store))
	root, err := walker.Root()
	if err != nil {
		return common.Hash{}, err
	}
	if err := tx.store.Flush(); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}

// Commit computes the final state root and commits the backend (spec
// §4.4.5).
func (tx *Transaction) Commit() (common.Hash, error) {
	root, err := tx.StateRoot()
	if err != nil {
		return common.Hash{}, err
	}
	if err := tx.store.Commit(); err != nil {
		return common.Hash{}, err
	}
	return root, nil
}
