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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Comparator is an interface for comparing two items.
type Comparator[T any] interface {
	Compare(a, b *T) int
}

// AddressSize is the size of Ethereum-like address.
const AddressSize = 20

// Address is an EVM-like account address.
type Address [AddressSize]byte

// KeySize is the size of EVM-like storage slot key.
const KeySize = 32

// Key is an EVM-like key of a storage slot.
type Key [KeySize]byte

// HashSize is the byte-size of the Hash type.
const HashSize = 32

// Hash is a Keccak-256 digest, used both for node hashes and content
// addressing of code blobs.
type Hash [HashSize]byte

// NonceSize is the size of Ethereum-like nonce.
const NonceSize = 8

// Nonce is an Ethereum-like nonce, stored big-endian.
type Nonce [NonceSize]byte

func (a *Address) Compare(b *Address) int {
	return bytes.Compare(a[:], b[:])
}

func (k *Key) Compare(b *Key) int {
	return bytes.Compare(k[:], b[:])
}

func (h *Hash) Compare(b *Hash) int {
	return bytes.Compare(h[:], b[:])
}

type AddressComparator struct{}

func (c AddressComparator) Compare(a, b *Address) int {
	return a.Compare(b)
}

type HashComparator struct{}

func (c HashComparator) Compare(a, b *Hash) int {
	return a.Compare(b)
}

type stringComparator struct{}

func (c stringComparator) Compare(a, b *string) int {
	return bytes.Compare([]byte(*a), []byte(*b))
}

// StringComparator orders byte-keys after they have been converted to a
// string for use in a generic map.
var StringComparator Comparator[string] = stringComparator{}

// ToNonce converts the provided integer into a Nonce. Nonces encode integers
// in BigEndian byte order.
func ToNonce(value uint64) (res Nonce) {
	binary.BigEndian.PutUint64(res[:], value)
	return
}

// ToUint64 converts the value of a nonce into an integer value.
func (n *Nonce) ToUint64() uint64 {
	return binary.BigEndian.Uint64(n[:])
}

func (a Address) String() string {
	return fmt.Sprintf("%x", a[:])
}

func (k Key) String() string {
	return fmt.Sprintf("%x", k[:])
}

func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:])
}

func (h Hash) Bytes() []byte {
	return h[:]
}

// HashFromString converts a 64-character long hex string into a hash. The
// operation is slow and mainly intended for producing readable test cases.
// It panics if the provided string is malformed.
func HashFromString(str string) Hash {
	if len(str) != 64 {
		panic(fmt.Sprintf("invalid hash-string length, expected %d, got %d", 64, len(str)))
	}
	data, err := hex.DecodeString(str)
	if err != nil {
		panic(fmt.Sprintf("invalid hex string `%s`: %v", str, err))
	}
	res := Hash{}
	copy(res[:], data)
	return res
}

// AddressFromString converts a 40-character long hex string into an address.
func AddressFromString(str string) Address {
	if len(str) != 40 {
		panic(fmt.Sprintf("invalid address-string length, expected %d, got %d", 40, len(str)))
	}
	data, err := hex.DecodeString(str)
	if err != nil {
		panic(fmt.Sprintf("invalid hex string `%s`: %v", str, err))
	}
	res := Address{}
	copy(res[:], data)
	return res
}
