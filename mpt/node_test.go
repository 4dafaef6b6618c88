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
	"bytes"
	"testing"
)

func nodesEqual(a, b *Node) bool {
	if a.IsLeaf != b.IsLeaf {
		return false
	}
	if a.IsLeaf {
		return pathsEqual(a.RestOfKey, b.RestOfKey) && bytes.Equal(a.Value, b.Value)
	}
	if !pathsEqual(a.Extension, b.Extension) {
		return false
	}
	for i := range a.Children {
		if !bytes.Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func pathsEqual(a, b Path) bool {
	if a.Length() != b.Length() {
		return false
	}
	return a.String() == b.String()
}

func TestEncodeDecodeNode_Leaf(t *testing.T) {
	n := NewLeaf(nibbles(1, 2, 3, 4), []byte("hello"))
	got, err := DecodeNode(EncodeNode(n))
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	if !nodesEqual(n, got) {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, n)
	}
}

func TestEncodeDecodeNode_LeafOddLength(t *testing.T) {
	n := NewLeaf(nibbles(1, 2, 3), []byte("x"))
	got, err := DecodeNode(EncodeNode(n))
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	if !nodesEqual(n, got) {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, n)
	}
}

func TestEncodeDecodeNode_Branch(t *testing.T) {
	var children [16]NodeRef
	children[0] = NodeRef([]byte{1, 1, 1})
	children[5] = NodeRef(make([]byte, 32))
	n := NewBranch(nibbles(1, 2, 3), children)
	got, err := DecodeNode(EncodeNode(n))
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	if !nodesEqual(n, got) {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, n)
	}
}

func TestEncodeDecodeNode_BranchNoExtension(t *testing.T) {
	var children [16]NodeRef
	children[2] = NodeRef([]byte{9})
	n := NewBranch(nil, children)
	got, err := DecodeNode(EncodeNode(n))
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	if !nodesEqual(n, got) {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, n)
	}
}

func TestDecodeNode_RejectsEmptyBuffer(t *testing.T) {
	if _, err := DecodeNode(nil); err == nil {
		t.Error("expected an error decoding an empty buffer")
	}
}

func TestDecodeNode_RejectsUnknownTag(t *testing.T) {
	if _, err := DecodeNode([]byte{0xFF}); err == nil {
		t.Error("expected an error decoding an unknown tag")
	}
}
