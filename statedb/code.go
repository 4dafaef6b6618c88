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
	"github.com/Fantom-foundation/go-state-store/common"
	"github.com/Fantom-foundation/go-state-store/kv"
)

// storeCode implements content-addressed code storage (spec §4.4.2): empty
// code returns EmptyCodeHash without touching the store; otherwise the code
// is written under its hash iff not already present.
func storeCode(store kv.Store, code []byte) (common.Hash, error) {
	if len(code) == 0 {
		return EmptyCodeHash, nil
	}
	hash := common.Keccak256(code)
	key := codeKey(hash)
	if _, found, err := store.Get(key); err != nil {
		return common.Hash{}, err
	} else if found {
		return hash, nil
	}
	if err := store.Put(key, code); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// codeFromHash returns the code blob for hash, or nil if hash is
// EmptyCodeHash or not present.
func codeFromHash(store kv.Store, hash common.Hash) ([]byte, error) {
	if hash == EmptyCodeHash {
		return nil, nil
	}
	value, found, err := store.Get(codeKey(hash))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return value, nil
}
