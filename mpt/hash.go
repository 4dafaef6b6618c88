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
	"github.com/Fantom-foundation/go-state-store/common"
	"github.com/Fantom-foundation/go-state-store/rlp"
)

// EmptyTrieRoot is the Keccak-256 hash of the RLP encoding of an empty
// string, the canonical root of an empty Ethereum trie.
var EmptyTrieRoot = common.HashFromString("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// EncodeWire serializes a node to the classical three-node Ethereum RLP wire
// form used for hashing (spec §4.3.4): a Leaf becomes a 2-list, a Branch
// with no extension becomes a 17-list, and a Branch with a non-empty
// extension is wrapped as a classical Extension node pointing at the
// 17-list. The fused on-disk shape only exists at rest; for hashing it is
// always unfused back into its classical counterpart(s).
func EncodeWire(n *Node) []byte {
	if n == nil {
		return rlp.Encode(rlp.String{})
	}
	if n.IsLeaf {
		items := []rlp.Item{
			rlp.String{Str: HexPrefixEncode(n.RestOfKey.Nibbles(), true)},
			rlp.String{Str: n.Value},
		}
		return rlp.Encode(rlp.List{Items: items})
	}

	branchItems := make([]rlp.Item, 17)
	for i := 0; i < 16; i++ {
		branchItems[i] = childRefItem(n.Children[i])
	}
	branchItems[16] = rlp.String{}
	branchRLP := rlp.Encode(rlp.List{Items: branchItems})

	if n.Extension.Length() == 0 {
		return branchRLP
	}

	ref := HashOrRaw(branchRLP)
	items := []rlp.Item{
		rlp.String{Str: HexPrefixEncode(n.Extension.Nibbles(), false)},
		childRefItem(ref),
	}
	return rlp.Encode(rlp.List{Items: items})
}

// childRefItem renders a subnode reference as the RLP item that belongs in
// a parent's structure: a plain 32-byte string when the reference is a
// Keccak hash, or the already-RLP-encoded fragment spliced in verbatim when
// the reference is the child's raw (<32 byte) RLP encoding.
func childRefItem(ref NodeRef) rlp.Item {
	if ref.IsEmpty() {
		return rlp.String{}
	}
	if len(ref) == common.HashSize {
		return rlp.String{Str: ref}
	}
	return rlp.Encoded{Data: ref}
}

// HashOrRaw implements the subnode-reference rule (spec §4.1): the raw RLP
// bytes themselves if shorter than 32 bytes, else their Keccak-256 hash.
func HashOrRaw(encoded []byte) NodeRef {
	if len(encoded) < common.HashSize {
		ref := make(NodeRef, len(encoded))
		copy(ref, encoded)
		return ref
	}
	h := common.Keccak256(encoded)
	return NodeRef(h[:])
}

// WriteNodeReference computes the subnode reference a parent would embed
// for this node, i.e. HashOrRaw(EncodeWire(n)).
func WriteNodeReference(n *Node) NodeRef {
	if n == nil {
		return nil
	}
	return HashOrRaw(EncodeWire(n))
}
