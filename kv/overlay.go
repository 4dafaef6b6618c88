// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package kv

import (
	"strings"

	"github.com/Fantom-foundation/go-state-store/common"
)

// overlayEntry is the value held for a key in the overlay: either a staged
// write (Tombstone == false) or a staged delete (Tombstone == true, Value
// unused). This mirrors spec §4.2's Option<bytes> overlay value.
type overlayEntry struct {
	Value     []byte
	Tombstone bool
}

// overlay is the in-memory write buffer sitting above the durable store. It
// is an ordered map so that commit/flush apply writes to the durable layer
// in key order. clearPrefix checks every staged entry against the prefix.
type overlay struct {
	entries *common.SortedMap[string, overlayEntry]
}

func newOverlay() *overlay {
	return &overlay{entries: common.NewSortedMap[string, overlayEntry](64, common.StringComparator)}
}

// get returns the staged value for key, whether it is a tombstone, and
// whether the key is staged at all.
func (o *overlay) get(key string) (value []byte, tombstone bool, staged bool) {
	e, ok := o.entries.Get(key)
	if !ok {
		return nil, false, false
	}
	return e.Value, e.Tombstone, true
}

func (o *overlay) put(key string, value []byte) {
	o.entries.Put(key, overlayEntry{Value: value})
}

func (o *overlay) delete(key string) {
	o.entries.Put(key, overlayEntry{Tombstone: true})
}

// clearPrefix removes every staged entry whose key starts with prefix.
func (o *overlay) clearPrefix(prefix string) {
	var matched []string
	for _, e := range o.entries.GetEntries() {
		if strings.HasPrefix(e.Key, prefix) {
			matched = append(matched, e.Key)
		}
	}
	for _, key := range matched {
		o.entries.Remove(key)
	}
}

func (o *overlay) isEmpty() bool {
	return o.entries.IsEmpty()
}

func (o *overlay) clear() {
	o.entries.Clear()
}

// forEach visits every staged entry in ascending key order.
func (o *overlay) forEach(f func(key string, e overlayEntry)) {
	o.entries.ForEach(f)
}
