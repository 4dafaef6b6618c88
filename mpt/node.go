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
	"encoding/binary"
	"fmt"

	"github.com/Fantom-foundation/go-state-store/common"
)

// Node is the two-kind persisted internal node shape described in spec §3.3:
// a nil *Node stands for the empty trie/subtrie; otherwise a Node is either
// a Leaf or a Branch, distinguished by IsLeaf. A Branch always carries an
// (possibly empty) leading extension, fusing the classical Extension+Branch
// pair into a single persisted record.
type Node struct {
	IsLeaf bool

	// Leaf fields.
	RestOfKey Path
	Value     []byte

	// Branch fields.
	Extension Path
	Children  [16]NodeRef
}

// NodeRef is a subnode reference as embedded in a parent Branch: either the
// raw RLP of the child (when shorter than 32 bytes) or its 32-byte Keccak
// hash. A nil/empty NodeRef means "no child at this position".
type NodeRef []byte

func (r NodeRef) IsEmpty() bool {
	return len(r) == 0
}

// NewLeaf constructs a Leaf node.
func NewLeaf(restOfKey []Nibble, value []byte) *Node {
	return &Node{IsLeaf: true, RestOfKey: CreatePathFromNibbles(restOfKey), Value: value}
}

// NewBranch constructs a Branch node with the given extension and children.
func NewBranch(extension []Nibble, children [16]NodeRef) *Node {
	return &Node{Extension: CreatePathFromNibbles(extension), Children: children}
}

// NumChildren counts the non-empty children of a Branch.
func (n *Node) NumChildren() int {
	count := 0
	for _, c := range n.Children {
		if !c.IsEmpty() {
			count++
		}
	}
	return count
}

// SoleChild returns the index and reference of the single non-empty child
// of a Branch. It panics if the branch does not have exactly one child.
func (n *Node) SoleChild() (index int, ref NodeRef) {
	found := -1
	for i, c := range n.Children {
		if !c.IsEmpty() {
			if found != -1 {
				panic("SoleChild called on a branch with more than one child")
			}
			found = i
		}
	}
	if found == -1 {
		panic("SoleChild called on a branch with no children")
	}
	return found, n.Children[found]
}

// ----------------------------------------------------------------------------
//                     Internal-node on-disk codec (§4.1)
// ----------------------------------------------------------------------------

const (
	nodeTagLeaf   = 0x00
	nodeTagBranch = 0x01
)

// EncodeNode serializes a node into its compact on-disk representation:
//
//	Leaf:   0x00 ‖ packed_nibbles(rest_of_key) ‖ value
//	Branch: 0x01 ‖ packed_nibbles(extension_nibbles) ‖ u16-bitmap ‖
//	        for each set bit i: length(i) ‖ bytes(i)
func EncodeNode(n *Node) []byte {
	if n == nil {
		return nil
	}
	if n.IsLeaf {
		packed := n.RestOfKey.GetPackedNibblesWithLength()
		res := make([]byte, 0, 1+len(packed)+len(n.Value))
		res = append(res, nodeTagLeaf)
		res = append(res, packed...)
		res = append(res, n.Value...)
		return res
	}

	packed := n.Extension.GetPackedNibblesWithLength()
	var bitmap uint16
	for i, c := range n.Children {
		if !c.IsEmpty() {
			bitmap |= 1 << uint(i)
		}
	}

	res := make([]byte, 0, 1+len(packed)+2+32*16)
	res = append(res, nodeTagBranch)
	res = append(res, packed...)
	res = binary.BigEndian.AppendUint16(res, bitmap)
	for i, c := range n.Children {
		if bitmap&(1<<uint(i)) == 0 {
			continue
		}
		res = append(res, byte(len(c)))
		res = append(res, c...)
	}
	return res
}

// DecodeNode parses a buffer produced by EncodeNode.
func DecodeNode(data []byte) (*Node, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty node buffer", common.ErrNodeDecode)
	}
	switch data[0] {
	case nodeTagLeaf:
		nibbles, consumed := UnmarshalNibbles(data[1:])
		rest := data[1+consumed:]
		value := make([]byte, len(rest))
		copy(value, rest)
		return &Node{IsLeaf: true, RestOfKey: CreatePathFromNibbles(nibbles), Value: value}, nil

	case nodeTagBranch:
		nibbles, consumed := UnmarshalNibbles(data[1:])
		offset := 1 + consumed
		if offset+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated branch bitmap", common.ErrNodeDecode)
		}
		bitmap := binary.BigEndian.Uint16(data[offset : offset+2])
		offset += 2

		var children [16]NodeRef
		for i := 0; i < 16; i++ {
			if bitmap&(1<<uint(i)) == 0 {
				continue
			}
			if offset >= len(data) {
				return nil, fmt.Errorf("%w: truncated branch child length", common.ErrNodeDecode)
			}
			l := int(data[offset])
			offset++
			if offset+l > len(data) {
				return nil, fmt.Errorf("%w: truncated branch child bytes", common.ErrNodeDecode)
			}
			ref := make(NodeRef, l)
			copy(ref, data[offset:offset+l])
			children[i] = ref
			offset += l
		}
		return &Node{Extension: CreatePathFromNibbles(nibbles), Children: children}, nil
	}

	return nil, fmt.Errorf("%w: unknown node tag %#x", common.ErrNodeDecode, data[0])
}

// GetPackedNibblesWithLength packs the path's nibbles using the
// length-prefixed on-disk form shared by the Leaf/Branch internal-node
// codec (distinct from the zero-padded trie-key form used for backend
// keys, see PackTrieKey).
func (p *Path) GetPackedNibblesWithLength() []byte {
	return MarshalNibbles(p.Nibbles())
}
