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

import (
	"fmt"
)

// MaxPathLength is the maximum number of nibbles a Path may hold: the
// nibble-expansion of a 32-byte hash.
const MaxPathLength = 64

// Path is a sequence of nibbles describing a navigation path in the trie.
// Unlike []Nibble slices, a Path packs pairs of 4-bit nibbles into 8-bit
// values for a dense in-memory representation, and is bounded to
// MaxPathLength nibbles, matching the maximum depth of a hashed-key trie.
type Path struct {
	// The zero-padded navigation path. 32 bytes hold up to 64 nibbles,
	// high nibble first within each byte.
	path [32]byte
	// The number of nibbles of path that are meaningful.
	length uint8
}

// CreatePathFromNibbles converts a Nibble slice into a Path.
func CreatePathFromNibbles(path []Nibble) Path {
	res := Path{}
	for _, cur := range path {
		res.Append(cur)
	}
	return res
}

// Length returns the number of nibbles covered by this path.
func (p *Path) Length() int {
	return int(p.length)
}

// Nibbles expands the path back into a Nibble slice.
func (p *Path) Nibbles() []Nibble {
	res := make([]Nibble, p.length)
	for i := range res {
		res[i] = p.Get(i)
	}
	return res
}

// GetPackedNibbles returns the path's nibbles packed two per byte, high
// nibble first. If the length is odd, the final nibble occupies the high
// half of the last byte (its low half is zero). This is the packing used
// inside the internal-node on-disk codec for rest_of_key/extension_nibbles
// fields; it carries no length prefix on its own.
func (p *Path) GetPackedNibbles() []byte {
	if p.length%2 == 0 {
		res := make([]byte, p.length/2)
		copy(res, p.path[:p.length/2])
		return res
	}
	length := p.length/2 + 1
	res := make([]byte, length)
	copy(res, p.path[:length])
	return res
}

// nibbleSlot locates the byte holding the nibble at pos and whether that
// nibble occupies the high (first) or low (second) half of the byte.
func nibbleSlot(pos int) (byteIndex int, highHalf bool) {
	return pos / 2, pos%2 == 0
}

// Get returns the nibble at the given position, or 0 if out of range.
func (p *Path) Get(pos int) Nibble {
	if pos < 0 || pos >= int(p.length) {
		return 0
	}
	byteIndex, highHalf := nibbleSlot(pos)
	b := p.path[byteIndex]
	if highHalf {
		return Nibble(b >> 4)
	}
	return Nibble(b & 0xF)
}

// Set updates the nibble at the given position. The position must already
// be within [0, Length()).
func (p *Path) Set(pos int, val Nibble) {
	if pos < 0 || pos >= int(p.length) {
		panic(fmt.Sprintf("path position %d is out of range [0,%d)", pos, p.length))
	}
	byteIndex, highHalf := nibbleSlot(pos)
	if highHalf {
		p.path[byteIndex] = (p.path[byteIndex] & 0x0F) | byte(val)<<4
	} else {
		p.path[byteIndex] = (p.path[byteIndex] & 0xF0) | byte(val&0xF)
	}
}

// IsPrefixOf determines whether this path is a prefix of the given nibble
// sequence.
func (p *Path) IsPrefixOf(list []Nibble) bool {
	return p.GetCommonPrefixLength(list) == int(p.length)
}

// GetCommonPrefixLength determines the length of the common prefix of this
// path and the given nibble sequence.
func (p *Path) GetCommonPrefixLength(list []Nibble) int {
	max := int(p.length)
	if max > len(list) {
		max = len(list)
	}
	for i := 0; i < max; i++ {
		if p.Get(i) != list[i] {
			return i
		}
	}
	return max
}

// Append appends a single nibble to the end of the path, growing it by one.
func (p *Path) Append(n Nibble) *Path {
	pos := int(p.length)
	p.length++
	p.Set(pos, n)
	return p
}

// AppendAll appends another path to the end of this one.
func (p *Path) AppendAll(other *Path) *Path {
	for i := 0; i < other.Length(); i++ {
		p.Append(other.Get(i))
	}
	return p
}

// Prepend adds a nibble at the start of the path, shifting every existing
// nibble one position to the right.
func (p *Path) Prepend(n Nibble) *Path {
	last := int(p.length)
	p.length++
	for i := last; i > 0; i-- {
		p.Set(i, p.Get(i-1))
	}
	p.Set(0, n)
	return p
}

func (p *Path) String() string {
	if p.length == 0 {
		return "-empty-"
	}
	runes := make([]rune, p.Length())
	for i := range runes {
		runes[i] = p.Get(i).Rune()
	}
	return string(runes)
}

// ----------------------------------------------------------------------------
//                       On-disk trie-key packing (§4.1, §6.3)
// ----------------------------------------------------------------------------

// MarshalNibbles packs a nibble list into its on-disk form:
// length (1 byte) ‖ ⌈n/2⌉ packed bytes, high nibble first; if n is odd, the
// final nibble occupies the high half of the last byte.
func MarshalNibbles(nibbles []Nibble) []byte {
	n := len(nibbles)
	res := make([]byte, 1, 1+(n+1)/2)
	res[0] = byte(n)
	for i := 0; i+1 < n; i += 2 {
		res = append(res, byte(nibbles[i])<<4|byte(nibbles[i+1]))
	}
	if n%2 == 1 {
		res = append(res, byte(nibbles[n-1])<<4)
	}
	return res
}

// UnmarshalNibbles parses a MarshalNibbles-encoded buffer and returns the
// decoded nibbles together with the number of bytes consumed.
func UnmarshalNibbles(data []byte) ([]Nibble, int) {
	n := int(data[0])
	res := make([]Nibble, 0, n)
	for i := 1; i <= n/2; i++ {
		res = append(res, Nibble(data[i]>>4), Nibble(data[i]&0xF))
	}
	if n%2 == 1 {
		res = append(res, Nibble(data[n/2+1]>>4))
	}
	return res, (n+1)/2 + 1
}

// PackTrieKey packs a nibble path into the backend key form described in
// spec §4.1/§6.3: MarshalNibbles(nibbles) followed by a run of zero-padding
// bytes whose length is derived from the number of trailing zero nibbles.
// Because the packed image starts with the path length, the image of a
// nibble path is not a byte-prefix of the image of a longer path that
// extends it; a key built as fixed_prefix ‖ PackTrieKey(path) does start
// with fixed_prefix.
func PackTrieKey(nibbles []Nibble) []byte {
	res := MarshalNibbles(nibbles)

	terminalZeros := 0
	for i := len(nibbles) - 1; i >= 0 && nibbles[i] == 0; i-- {
		terminalZeros++
	}
	// The odd tail nibble, if present and zero, is already folded into the
	// high half of the last packed byte; it must not be double-counted
	// against the padding that disambiguates it.
	if len(nibbles)%2 == 1 && len(nibbles) > 0 && nibbles[len(nibbles)-1] == 0 {
		terminalZeros--
	}

	padLen := (terminalZeros + 1 + 1) / 2 // ceil((terminalZeros+1)/2)
	res = append(res, make([]byte, padLen)...)
	return res
}
