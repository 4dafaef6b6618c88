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
	"bytes"
	"testing"
)

func TestOverlay_GetUnstagedKeyIsNotStaged(t *testing.T) {
	o := newOverlay()
	_, _, staged := o.get("missing")
	if staged {
		t.Error("expected an unstaged key to report staged=false")
	}
}

func TestOverlay_PutThenGet(t *testing.T) {
	o := newOverlay()
	o.put("a", []byte("1"))
	value, tombstone, staged := o.get("a")
	if !staged || tombstone {
		t.Fatalf("get(a) = (%q, tombstone=%v, staged=%v)", value, tombstone, staged)
	}
	if !bytes.Equal(value, []byte("1")) {
		t.Errorf("get(a) value = %q, want %q", value, "1")
	}
}

func TestOverlay_DeleteStagesTombstone(t *testing.T) {
	o := newOverlay()
	o.put("a", []byte("1"))
	o.delete("a")
	_, tombstone, staged := o.get("a")
	if !staged || !tombstone {
		t.Errorf("get(a) after delete: staged=%v tombstone=%v, want staged=true tombstone=true", staged, tombstone)
	}
}

func TestOverlay_ClearPrefixRemovesOnlyMatching(t *testing.T) {
	o := newOverlay()
	o.put("acc/1", []byte("x"))
	o.put("acc/2", []byte("y"))
	o.put("code/1", []byte("z"))

	o.clearPrefix("acc/")

	if _, _, staged := o.get("acc/1"); staged {
		t.Error("expected acc/1 to be cleared")
	}
	if _, _, staged := o.get("acc/2"); staged {
		t.Error("expected acc/2 to be cleared")
	}
	if _, _, staged := o.get("code/1"); !staged {
		t.Error("expected code/1 to survive the prefix clear")
	}
}

func TestOverlay_IsEmptyAndClear(t *testing.T) {
	o := newOverlay()
	if !o.isEmpty() {
		t.Fatal("fresh overlay should be empty")
	}
	o.put("a", []byte("1"))
	if o.isEmpty() {
		t.Error("overlay with a staged entry should not be empty")
	}
	o.clear()
	if !o.isEmpty() {
		t.Error("overlay should be empty after clear()")
	}
}

func TestOverlay_ForEachVisitsInAscendingOrder(t *testing.T) {
	o := newOverlay()
	o.put("c", []byte("3"))
	o.put("a", []byte("1"))
	o.put("b", []byte("2"))

	var seen []string
	o.forEach(func(key string, e overlayEntry) {
		seen = append(seen, key)
	})
	want := []string{"a", "b", "c"}
	if len(seen) != len(want) {
		t.Fatalf("forEach visited %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("forEach order = %v, want %v", seen, want)
		}
	}
}
