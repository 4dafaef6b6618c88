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
	"github.com/Fantom-foundation/go-state-store/kv"
)

// Db owns exclusive access to a single backend (spec §3.6, §5): only one
// mutable Transaction may exist for it at a time.
type Db struct {
	store kv.Store
}

// File opens or creates a database rooted at path, taking a directory lock
// for the lifetime of the returned Db (spec §6.1).
func File(path string) (*Db, error) {
	store, err := kv.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &Db{store: store}, nil
}

// Memory opens an ephemeral, non-persistent database (spec §6.1).
func Memory() *Db {
	return &Db{store: kv.NewMemory()}
}

// Delete removes the database rooted at path (spec §6.1). It refuses to
// touch the directory if it holds anything beyond the durable store's own
// files.
func Delete(path string) error {
	return kv.DeleteStore(path)
}

// BeginMut starts a new mutable transaction against this database.
func (db *Db) BeginMut() *Transaction {
	return newTransaction(db.store)
}

// Close releases the database's backend resources (durable handle, lock
// file). It does not commit.
func (db *Db) Close() error {
	return db.store.Close()
}
