// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"sync"

	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the Keccak-256 hash of the given data.
func Keccak256(data []byte) Hash {
	if len(data) == 0 {
		return emptyKeccak256Hash
	}
	hasher := keccakHasherPool.Get().(keccakHasher)
	hasher.Reset()
	hasher.Write(data)
	var res Hash
	hasher.Read(res[:])
	keccakHasherPool.Put(hasher)
	return res
}

// Keccak256ForAddress computes the Keccak-256 hash of an address.
func Keccak256ForAddress(addr Address) Hash {
	return Keccak256(addr[:])
}

// Keccak256ForKey computes the Keccak-256 hash of a storage slot key.
func Keccak256ForKey(key Key) Hash {
	return Keccak256(key[:])
}

var keccakHasherPool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

type keccakHasher interface {
	Reset()
	Write(in []byte) (int, error)
	Read(out []byte) (int, error)
}

var emptyKeccak256Hash = func() Hash {
	hasher := sha3.NewLegacyKeccak256()
	var res Hash
	hasher.Read(res[:])
	return res
}()
