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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Fantom-foundation/go-state-store/common"
)

func TestFileStore_OpenPutCommitReopenSeesValue(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	s, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := s.Put([]byte{tagAccountForTest, 1}, []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("re-OpenFile: %v", err)
	}
	defer s2.Close()

	value, found, err := s2.Get([]byte{tagAccountForTest, 1})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected the committed value to survive a reopen")
	}
	if !bytes.Equal(value, []byte("v")) {
		t.Errorf("Get = %q, want %q", value, "v")
	}
}

func TestFileStore_RejectsConcurrentOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	s, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer s.Close()

	if _, err := OpenFile(dir); err == nil {
		t.Error("expected a second OpenFile against a locked directory to fail")
	}
}

func TestFileStore_ClearPrefixSweepsDurableLayer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	s, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer s.Close()

	_ = s.Put([]byte{0x01, 0xAA, 1}, []byte("x"))
	_ = s.Put([]byte{0x01, 0xAA, 2}, []byte("y"))
	_ = s.Put([]byte{0x01, 0xBB, 1}, []byte("z"))
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if err := s.ClearPrefix([]byte{0x01, 0xAA}); err != nil {
		t.Fatalf("ClearPrefix: %v", err)
	}

	if _, found, _ := s.Get([]byte{0x01, 0xAA, 1}); found {
		t.Error("expected the swept durable record to be gone")
	}
	if _, found, _ := s.Get([]byte{0x01, 0xBB, 1}); !found {
		t.Error("expected the unrelated durable record to survive")
	}
}

func TestDeleteStore_RefusesDirectoryWithForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	foreign := filepath.Join(dir, "not-a-leveldb-file.txt")
	if err := os.WriteFile(foreign, []byte("hi"), 0600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	err = DeleteStore(dir)
	if !errors.Is(err, common.ErrForeignFiles) {
		t.Errorf("DeleteStore error = %v, want %v", err, common.ErrForeignFiles)
	}
}

func TestDeleteStore_OnMissingDirectoryIsNoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	if err := DeleteStore(dir); err != nil {
		t.Errorf("DeleteStore on a missing directory: %v", err)
	}
}

const tagAccountForTest = 0x01
