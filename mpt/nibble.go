// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

// Nibble is a 4-bit unsigned integer in the range 0-F. It is a single step
// used to navigate the trie.
type Nibble byte

// Rune converts a Nibble into a hexadecimal rune (0-9a-f).
func (n Nibble) Rune() rune {
	if n < 10 {
		return rune('0' + n)
	} else if n < 16 {
		return rune('a' + n - 10)
	}
	return '?'
}

// String converts a Nibble into a hexadecimal string (0-9a-f).
func (n Nibble) String() string {
	return string(n.Rune())
}

// HashToNibbles expands a 32-byte hash into its 64-nibble path. This is the
// form used for both account and storage-slot trie keys: the nibble
// expansion of keccak256 of the raw key.
func HashToNibbles(hash [32]byte) []Nibble {
	res := make([]Nibble, 64)
	parseNibbles(res, hash[:])
	return res
}

// BytesToNibbles expands an arbitrary byte slice into nibbles, high nibble
// first.
func BytesToNibbles(data []byte) []Nibble {
	res := make([]Nibble, len(data)*2)
	parseNibbles(res, data)
	return res
}

func parseNibbles(dst []Nibble, src []byte) {
	for i := 0; i < len(src); i++ {
		dst[2*i] = Nibble(src[i] >> 4)
		dst[2*i+1] = Nibble(src[i] & 0xF)
	}
}

// GetCommonPrefixLength computes the length of the common prefix of the given
// Nibble slices.
func GetCommonPrefixLength(a, b []Nibble) int {
	max := len(a)
	if max > len(b) {
		max = len(b)
	}
	for i := 0; i < max; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return max
}

// IsPrefixOf tests whether a is a prefix of b.
func IsPrefixOf(a, b []Nibble) bool {
	return len(a) <= len(b) && GetCommonPrefixLength(a, b) == len(a)
}
