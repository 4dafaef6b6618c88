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

// HexPrefixEncode implements Ethereum's Hex-Prefix (HP) encoding of a nibble
// path fragment for use inside the RLP wire form of Leaf and Extension
// nodes. isLeaf distinguishes a Leaf's terminator flag from an Extension's.
//
//   - even length: first byte is 0x20 (leaf) or 0x00 (extension), followed
//     by the nibbles packed two per byte.
//   - odd length: first byte's high nibble is 0x3/0x1 (leaf/extension) with
//     the flag's low bit set, its low nibble is the path's first nibble;
//     the remaining nibbles are packed two per byte.
func HexPrefixEncode(path []Nibble, isLeaf bool) []byte {
	flag := byte(0)
	if isLeaf {
		flag = 2
	}
	if len(path)%2 == 0 {
		res := make([]byte, 1+len(path)/2)
		res[0] = flag << 4
		for i := 0; i < len(path)/2; i++ {
			res[i+1] = byte(path[2*i])<<4 | byte(path[2*i+1])
		}
		return res
	}
	res := make([]byte, 1+len(path)/2)
	res[0] = (flag+1)<<4 | byte(path[0])
	for i := 0; i < len(path)/2; i++ {
		res[i+1] = byte(path[2*i+1])<<4 | byte(path[2*i+2])
	}
	return res
}

// HexPrefixDecode parses an HP-encoded byte slice back into its nibble path
// and leaf/extension flag.
func HexPrefixDecode(data []byte) (path []Nibble, isLeaf bool) {
	if len(data) == 0 {
		return nil, false
	}
	flag := data[0] >> 4
	isLeaf = flag&0x2 != 0
	odd := flag&0x1 != 0

	path = make([]Nibble, 0, 2*len(data))
	if odd {
		path = append(path, Nibble(data[0]&0xF))
	}
	for _, b := range data[1:] {
		path = append(path, Nibble(b>>4), Nibble(b&0xF))
	}
	return path, isLeaf
}
