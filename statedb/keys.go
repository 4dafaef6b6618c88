// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package statedb is the transaction-facing state store API: accounts,
// storage slots, contract code and the incremental state/storage roots,
// all backed by the single sorted table described in kv.
package statedb

import (
	"github.com/Fantom-foundation/go-state-store/common"
	"github.com/Fantom-foundation/go-state-store/mpt"
)

// Backend key-space type tags (spec §3.4).
const (
	tagMetadata = 0x00
	tagAccount  = 0x01
	tagTrieNode = 0x02
	tagCode     = 0x03
)

// metadataKey builds the backend key for a named metadata entry.
func metadataKey(name string) []byte {
	res := make([]byte, 0, 1+len(name))
	res = append(res, tagMetadata)
	res = append(res, name...)
	return res
}

// accountKey builds the backend key of an account's raw record. The
// point-lookup key is the raw address, not its hashed trie position (spec
// §9's Open Question, resolved: raw address as point-lookup key, nibble
// expansion of keccak(address) only as the trie key).
func accountKey(addr common.Address) []byte {
	res := make([]byte, 0, 1+common.AddressSize)
	res = append(res, tagAccount)
	res = append(res, addr[:]...)
	return res
}

// storageKey builds the backend key of a single storage slot record.
func storageKey(addr common.Address, slot common.Key) []byte {
	res := make([]byte, 0, 1+common.AddressSize+common.KeySize)
	res = append(res, tagAccount)
	res = append(res, addr[:]...)
	res = append(res, slot[:]...)
	return res
}

// storageKeyPrefix builds the backend key prefix covering every storage
// slot of addr, for use with ClearPrefix when an account's storage is
// destroyed.
func storageKeyPrefix(addr common.Address) []byte {
	res := make([]byte, 0, 1+common.AddressSize)
	res = append(res, tagAccount)
	res = append(res, addr[:]...)
	return res
}

// codeKey builds the backend key of a code blob keyed by its hash.
func codeKey(hash common.Hash) []byte {
	res := make([]byte, 0, 1+common.HashSize)
	res = append(res, tagCode)
	res = append(res, hash[:]...)
	return res
}

// accountTriePrefix is the trie_prefix of the single global account trie.
var accountTriePrefix = []byte{tagTrieNode}

// storageTriePrefix is the trie_prefix of the per-address storage trie for
// addr: [0x02] ‖ packed(keccak(address)) (spec §3.4).
func storageTriePrefix(addr common.Address) []byte {
	nibbles := mpt.HashToNibbles(common.Keccak256ForAddress(addr))
	res := make([]byte, 0, 1+33)
	res = append(res, tagTrieNode)
	res = append(res, mpt.PackTrieKey(nibbles)...)
	return res
}

// storageTrieNodeKey is the bare storage trie prefix of addr used as a key,
// deleted outright when storage is destroyed. The trie's root node record
// itself lives at this prefix followed by PackTrieKey of the empty path, and
// is removed by the ClearPrefix sweep over the prefix.
func storageTrieNodeKey(addr common.Address) []byte {
	return storageTriePrefix(addr)
}
