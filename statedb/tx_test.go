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
	"errors"
	"testing"

	"github.com/Fantom-foundation/go-state-store/common"
	"github.com/Fantom-foundation/go-state-store/common/amount"
	"github.com/Fantom-foundation/go-state-store/mpt"
)

func addr(b byte) common.Address {
	var a common.Address
	a[common.AddressSize-1] = b
	return a
}

func key(b byte) common.Key {
	var k common.Key
	k[common.KeySize-1] = b
	return k
}

func TestTransaction_SetAndTryAccount(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()

	a := addr(1)
	if got, err := tx.TryAccount(a); err != nil || got != nil {
		t.Fatalf("TryAccount(unset) = (%v, %v), want (nil, nil)", got, err)
	}

	want := Account{Nonce: 3, Balance: amount.New(42), CodeHash: EmptyCodeHash}
	tx.SetAccount(a, &want)

	got, err := tx.TryAccount(a)
	if err != nil {
		t.Fatalf("TryAccount: %v", err)
	}
	if got == nil || !accountsEqual(*got, want) {
		t.Errorf("TryAccount(set) = %+v, want %+v", got, want)
	}
}

func TestTransaction_SetAccountNilStagesDeletion(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	a := addr(1)
	tx.SetAccount(a, &Account{Nonce: 1, Balance: amount.New(1), CodeHash: EmptyCodeHash})
	tx.SetAccount(a, nil)

	got, err := tx.TryAccount(a)
	if err != nil {
		t.Fatalf("TryAccount: %v", err)
	}
	if got != nil {
		t.Errorf("TryAccount after deletion = %+v, want nil", got)
	}
}

func TestTransaction_AccountSurvivesStateRoot(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	a := addr(1)
	want := Account{Nonce: 7, Balance: amount.New(100), CodeHash: EmptyCodeHash}
	tx.SetAccount(a, &want)
	if _, err := tx.StateRoot(); err != nil {
		t.Fatalf("StateRoot: %v", err)
	}

	tx2 := db.BeginMut()
	got, err := tx2.TryAccount(a)
	if err != nil {
		t.Fatalf("TryAccount: %v", err)
	}
	if got == nil || !accountsEqual(*got, want) {
		t.Errorf("account after StateRoot = %+v, want %+v", got, want)
	}
}

func TestTransaction_SetStorageRequiresExistingAccount(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	err := tx.SetStorage(addr(1), key(1), amount.New(1))
	if !errors.Is(err, common.ErrAccountNotFound) {
		t.Errorf("SetStorage on a nonexistent account error = %v, want %v", err, common.ErrAccountNotFound)
	}
}

func TestTransaction_SetAndGetStorage(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	a := addr(1)
	tx.SetAccount(a, &Account{Nonce: 1, Balance: amount.New(1), CodeHash: EmptyCodeHash})

	if err := tx.SetStorage(a, key(1), amount.New(55)); err != nil {
		t.Fatalf("SetStorage: %v", err)
	}
	got, err := tx.GetStorage(a, key(1))
	if err != nil {
		t.Fatalf("GetStorage: %v", err)
	}
	if got.ToBig().Cmp(amount.New(55).ToBig()) != 0 {
		t.Errorf("GetStorage = %s, want 55", got)
	}
}

func TestTransaction_StorageSurvivesStateRootAndAccountRecordIsNotClobbered(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	a := addr(1)
	account := Account{Nonce: 9, Balance: amount.New(123), CodeHash: EmptyCodeHash}
	tx.SetAccount(a, &account)
	if err := tx.SetStorage(a, key(1), amount.New(7)); err != nil {
		t.Fatalf("SetStorage: %v", err)
	}
	if _, err := tx.StateRoot(); err != nil {
		t.Fatalf("StateRoot: %v", err)
	}

	tx2 := db.BeginMut()
	gotAccount, err := tx2.TryAccount(a)
	if err != nil {
		t.Fatalf("TryAccount: %v", err)
	}
	if gotAccount == nil || !accountsEqual(*gotAccount, account) {
		t.Fatalf("account after StateRoot with storage = %+v, want %+v", gotAccount, account)
	}
	gotStorage, err := tx2.GetStorage(a, key(1))
	if err != nil {
		t.Fatalf("GetStorage: %v", err)
	}
	if gotStorage.ToBig().Cmp(amount.New(7).ToBig()) != 0 {
		t.Errorf("GetStorage after StateRoot = %s, want 7", gotStorage)
	}
}

func TestTransaction_DestroyStorageClearsSlotsButKeepsAccount(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	a := addr(1)
	account := Account{Nonce: 2, Balance: amount.New(10), CodeHash: EmptyCodeHash}
	tx.SetAccount(a, &account)
	if err := tx.SetStorage(a, key(1), amount.New(5)); err != nil {
		t.Fatalf("SetStorage: %v", err)
	}
	if _, err := tx.StateRoot(); err != nil {
		t.Fatalf("StateRoot: %v", err)
	}

	tx2 := db.BeginMut()
	if err := tx2.DestroyStorage(a); err != nil {
		t.Fatalf("DestroyStorage: %v", err)
	}
	if _, err := tx2.StateRoot(); err != nil {
		t.Fatalf("StateRoot: %v", err)
	}

	tx3 := db.BeginMut()
	gotAccount, err := tx3.TryAccount(a)
	if err != nil {
		t.Fatalf("TryAccount: %v", err)
	}
	if gotAccount == nil || !accountsEqual(*gotAccount, account) {
		t.Errorf("account after DestroyStorage+StateRoot = %+v, want it to survive as %+v", gotAccount, account)
	}
	gotStorage, err := tx3.GetStorage(a, key(1))
	if err != nil {
		t.Fatalf("GetStorage: %v", err)
	}
	if !gotStorage.IsZero() {
		t.Errorf("GetStorage after DestroyStorage = %s, want 0", gotStorage)
	}
}

func TestTransaction_StateRootOfEmptyTransactionIsEmptyTrieRootHashes(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	root, err := tx.StateRoot()
	if err != nil {
		t.Fatalf("StateRoot: %v", err)
	}
	// An untouched transaction must not invent any trie mutation.
	if root != mpt.EmptyTrieRoot {
		t.Errorf("StateRoot of an empty transaction = %s, want %s", root, mpt.EmptyTrieRoot)
	}
}

func TestTransaction_StateRootIsDeterministicAcrossStagingOrder(t *testing.T) {
	accA := Account{Nonce: 1, Balance: amount.New(10), CodeHash: EmptyCodeHash}
	accB := Account{Nonce: 2, Balance: amount.New(20), CodeHash: EmptyCodeHash}

	db1 := Memory()
	tx1 := db1.BeginMut()
	tx1.SetAccount(addr(1), &accA)
	tx1.SetAccount(addr(2), &accB)
	root1, err := tx1.StateRoot()
	if err != nil {
		t.Fatalf("StateRoot: %v", err)
	}

	db2 := Memory()
	tx2 := db2.BeginMut()
	tx2.SetAccount(addr(2), &accB)
	tx2.SetAccount(addr(1), &accA)
	root2, err := tx2.StateRoot()
	if err != nil {
		t.Fatalf("StateRoot: %v", err)
	}

	if root1 != root2 {
		t.Errorf("StateRoot depends on staging order: %s vs %s", root1, root2)
	}
}

func TestTransaction_CommitAppliesToBackend(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	a := addr(5)
	account := Account{Nonce: 1, Balance: amount.New(1), CodeHash: EmptyCodeHash}
	tx.SetAccount(a, &account)
	if _, err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tx2 := db.BeginMut()
	got, err := tx2.TryAccount(a)
	if err != nil {
		t.Fatalf("TryAccount: %v", err)
	}
	if got == nil || !accountsEqual(*got, account) {
		t.Errorf("account after Commit = %+v, want %+v", got, account)
	}
}

func TestTransaction_StoreAndLoadCode(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	code := []byte("some contract bytecode")
	hash, err := tx.StoreCode(code)
	if err != nil {
		t.Fatalf("StoreCode: %v", err)
	}
	got, err := tx.CodeFromHash(hash)
	if err != nil {
		t.Fatalf("CodeFromHash: %v", err)
	}
	if string(got) != string(code) {
		t.Errorf("CodeFromHash = %q, want %q", got, code)
	}
}

func TestTransaction_EmptyCodeShortCircuits(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	hash, err := tx.StoreCode(nil)
	if err != nil {
		t.Fatalf("StoreCode: %v", err)
	}
	if hash != EmptyCodeHash {
		t.Errorf("StoreCode(nil) = %s, want %s", hash, EmptyCodeHash)
	}
	got, err := tx.CodeFromHash(EmptyCodeHash)
	if err != nil {
		t.Fatalf("CodeFromHash: %v", err)
	}
	if got != nil {
		t.Errorf("CodeFromHash(EmptyCodeHash) = %q, want nil", got)
	}
}

func TestTransaction_Metadata(t *testing.T) {
	db := Memory()
	tx := db.BeginMut()
	if _, found, err := tx.Metadata("schema"); err != nil || found {
		t.Fatalf("Metadata(unset) = (found=%v, err=%v)", found, err)
	}
	if err := tx.SetMetadata("schema", []byte("v1")); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	value, found, err := tx.Metadata("schema")
	if err != nil || !found || string(value) != "v1" {
		t.Errorf("Metadata(schema) = (%q, %v, %v), want (\"v1\", true, nil)", value, found, err)
	}
}
