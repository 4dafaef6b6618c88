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
	"sort"

	"github.com/Fantom-foundation/go-state-store/common"
)

// NodeStore is the subset of the backend a Walker needs: point access to the
// internal-node records under its trie prefix.
type NodeStore interface {
	GetNode(key []byte) ([]byte, bool, error)
	PutNode(key []byte, data []byte) error
	DeleteNode(key []byte) error
}

// DirtyEntry is a single pending mutation of a trie leaf: a nibble path and
// either a new leaf value (insert/update) or nil (delete).
type DirtyEntry struct {
	Path  []Nibble
	Value []byte
}

// SortDirtyEntriesDescending sorts entries by nibble path, descending, as
// required by NewWalker.
func SortDirtyEntriesDescending(entries []DirtyEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return compareNibbles(entries[i].Path, entries[j].Path) > 0
	})
}

func compareNibbles(a, b []Nibble) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for i := 0; i < max; i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

// Walker performs an incremental rewrite of the trie spine touched by a
// sorted list of dirty leaves (spec §4.3). A Walker is single-use: construct
// one per root computation.
type Walker struct {
	triePrefix []byte
	store      NodeStore

	// dirty holds the input list in ascending order; pos is the index of
	// the next entry to consume. The caller supplies the list sorted
	// descending (per spec), which is reversed once at construction so
	// popping becomes a simple forward scan.
	dirty []DirtyEntry
	pos   int

	nibbleList []Nibble
}

// NewWalker constructs a walker over the trie rooted at triePrefix. dirty
// must be sorted in descending order by Path and must not contain duplicate
// paths.
func NewWalker(triePrefix []byte, dirtyDescending []DirtyEntry, store NodeStore) *Walker {
	ascending := make([]DirtyEntry, len(dirtyDescending))
	for i, e := range dirtyDescending {
		ascending[len(dirtyDescending)-1-i] = e
	}
	return &Walker{triePrefix: triePrefix, store: store, dirty: ascending}
}

// Root produces the 32-byte Ethereum MPT root of the trie after applying
// the dirty list (spec §4.3.1).
func (w *Walker) Root() (common.Hash, error) {
	w.nibbleList = w.nibbleList[:0]
	node, err := w.walk()
	if err != nil {
		return common.Hash{}, err
	}
	ref, err := w.writeNode(node)
	if err != nil {
		return common.Hash{}, err
	}
	if node == nil {
		return EmptyTrieRoot, nil
	}
	if len(ref) == common.HashSize {
		var h common.Hash
		copy(h[:], ref)
		return h, nil
	}
	return common.Keccak256(ref), nil
}

func (w *Walker) hasNext() bool {
	return w.pos < len(w.dirty)
}

func (w *Walker) peek() DirtyEntry {
	return w.dirty[w.pos]
}

func (w *Walker) pop() DirtyEntry {
	e := w.dirty[w.pos]
	w.pos++
	return e
}

func (w *Walker) nodeKey() []byte {
	res := make([]byte, 0, len(w.triePrefix)+33)
	res = append(res, w.triePrefix...)
	res = append(res, PackTrieKey(w.nibbleList)...)
	return res
}

func (w *Walker) loadNode() (*Node, error) {
	data, ok, err := w.store.GetNode(w.nodeKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return DecodeNode(data)
}

func (w *Walker) writeNode(n *Node) (NodeRef, error) {
	key := w.nodeKey()
	if n == nil {
		if err := w.store.DeleteNode(key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := w.store.PutNode(key, EncodeNode(n)); err != nil {
		return nil, err
	}
	return WriteNodeReference(n), nil
}

// walk loads the node at the current position and rewrites its subtree.
func (w *Walker) walk() (*Node, error) {
	current, err := w.loadNode()
	if err != nil {
		return nil, err
	}
	return w.walkNode(current)
}

// walkNode applies every pending dirty entry whose path still starts with
// w.nibbleList, dispatching on the shape of current (spec §4.3.2). It
// mutates w.nibbleList as a stack during recursive descent but always
// restores it to its entry value before returning.
func (w *Walker) walkNode(current *Node) (*Node, error) {
	for w.hasNext() && IsPrefixOf(w.nibbleList, w.peek().Path) {
		switch {
		case current == nil:
			e := w.pop()
			if e.Value == nil {
				current = nil
				continue
			}
			tail := e.Path[len(w.nibbleList):]
			current = NewLeaf(tail, e.Value)

		case current.IsLeaf:
			e := w.peek()
			tail := e.Path[len(w.nibbleList):]
			rest := current.RestOfKey.Nibbles()
			cpl := GetCommonPrefixLength(rest, tail)

			if cpl == len(rest) && cpl == len(tail) {
				w.pop()
				if e.Value == nil {
					current = nil
				} else {
					current = NewLeaf(rest, e.Value)
				}
				continue
			}

			next, err := w.splitLeaf(current, rest, cpl)
			if err != nil {
				return nil, err
			}
			current = next

		default: // Branch
			next, err := w.walkBranch(current)
			if err != nil {
				return nil, err
			}
			current = next
		}
	}
	return current, nil
}

// splitLeaf handles a dirty key diverging from an existing leaf's
// rest_of_key at position cpl: it produces a Branch whose extension is the
// shared prefix and persists the shortened old leaf as one of its children,
// leaving the other child slot for the walker's next iteration to fill in
// via the ordinary branch-descend path.
func (w *Walker) splitLeaf(leaf *Node, rest []Nibble, cpl int) (*Node, error) {
	shared := rest[:cpl]
	oldNibble := rest[cpl]
	oldRest := rest[cpl+1:]

	if err := w.push(shared, oldNibble); err != nil {
		return nil, err
	}
	ref, err := w.writeNode(NewLeaf(oldRest, leaf.Value))
	w.popPath(len(shared) + 1)
	if err != nil {
		return nil, err
	}

	var children [16]NodeRef
	children[oldNibble] = ref
	return NewBranch(shared, children), nil
}

// walkBranch handles the current node being a Branch, possibly splitting
// its extension or descending through it (spec §4.3.2).
func (w *Walker) walkBranch(branch *Node) (*Node, error) {
	ext := branch.Extension.Nibbles()
	tail := w.peek().Path[len(w.nibbleList):]
	cpl := GetCommonPrefixLength(ext, tail)

	if cpl < len(ext) {
		return w.splitExtension(branch, ext, cpl)
	}
	return w.descend(branch, ext)
}

func (w *Walker) splitExtension(branch *Node, ext []Nibble, cpl int) (*Node, error) {
	shared := ext[:cpl]
	oldNibble := ext[cpl]
	oldRest := ext[cpl+1:]

	if err := w.push(shared, oldNibble); err != nil {
		return nil, err
	}
	survivor := NewBranch(oldRest, branch.Children)
	ref, err := w.writeNode(survivor)
	w.popPath(len(shared) + 1)
	if err != nil {
		return nil, err
	}

	var children [16]NodeRef
	children[oldNibble] = ref
	return NewBranch(shared, children), nil
}

func (w *Walker) descend(branch *Node, ext []Nibble) (*Node, error) {
	if err := w.pushPath(ext); err != nil {
		return nil, err
	}
	children := branch.Children
	for w.hasNext() {
		e := w.peek()
		if !IsPrefixOf(w.nibbleList, e.Path) {
			break
		}
		childNibble := e.Path[len(w.nibbleList)]
		if err := w.push(nil, childNibble); err != nil {
			return nil, err
		}
		newChild, err := w.walk()
		if err != nil {
			return nil, err
		}
		ref, err := w.writeNode(newChild)
		w.popPath(1)
		if err != nil {
			return nil, err
		}
		children[childNibble] = ref
	}
	w.popPath(len(ext))

	count, sole := 0, -1
	for i, c := range children {
		if !c.IsEmpty() {
			count++
			sole = i
		}
	}

	switch count {
	case 0:
		return nil, nil
	case 1:
		return w.raiseChild(ext, sole)
	default:
		return NewBranch(ext, children), nil
	}
}

// raiseChild fuses a Branch's sole remaining child into its parent's
// position, matching spec §4.3.2's single-child-raising rule.
func (w *Walker) raiseChild(ext []Nibble, childNibble int) (*Node, error) {
	if err := w.push(ext, Nibble(childNibble)); err != nil {
		return nil, err
	}
	child, err := w.loadNode()
	if err == nil {
		err = w.store.DeleteNode(w.nodeKey())
	}
	w.popPath(len(ext) + 1)
	if err != nil {
		return nil, err
	}

	prefix := make([]Nibble, 0, len(ext)+1)
	prefix = append(prefix, ext...)
	prefix = append(prefix, Nibble(childNibble))

	if child.IsLeaf {
		newRest := append(prefix, child.RestOfKey.Nibbles()...)
		if len(newRest) > MaxPathLength {
			return nil, fmt.Errorf("%w: raised leaf key length %d", common.ErrPathTooLong, len(newRest))
		}
		return NewLeaf(newRest, child.Value), nil
	}
	newExt := append(prefix, child.Extension.Nibbles()...)
	if len(newExt) > MaxPathLength {
		return nil, fmt.Errorf("%w: raised branch extension length %d", common.ErrPathTooLong, len(newExt))
	}
	return NewBranch(newExt, child.Children), nil
}

// push extends w.nibbleList by `prefix` followed by a single nibble,
// failing if the result would exceed the trie's maximum depth.
func (w *Walker) push(prefix []Nibble, n Nibble) error {
	if len(w.nibbleList)+len(prefix)+1 > MaxPathLength {
		return fmt.Errorf("%w: walker descended past %d nibbles", common.ErrPathTooLong, MaxPathLength)
	}
	w.nibbleList = append(w.nibbleList, prefix...)
	w.nibbleList = append(w.nibbleList, n)
	return nil
}

func (w *Walker) pushPath(path []Nibble) error {
	if len(w.nibbleList)+len(path) > MaxPathLength {
		return fmt.Errorf("%w: walker descended past %d nibbles", common.ErrPathTooLong, MaxPathLength)
	}
	w.nibbleList = append(w.nibbleList, path...)
	return nil
}

// popPath shrinks w.nibbleList by n nibbles, undoing a prior push/pushPath.
func (w *Walker) popPath(n int) {
	w.nibbleList = w.nibbleList[:len(w.nibbleList)-n]
}
