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
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/Fantom-foundation/go-state-store/common"
)

// versionKey is the metadata-tag key holding the database version stamp
// (spec §6.1, §6.4).
var versionKey = append([]byte{metadataTag}, []byte("version")...)

// databaseVersion is the only version this build understands (spec §6.4).
const databaseVersion = "0"

const metadataTag = 0x00

// leveldbFileNames are the on-disk artefacts goleveldb creates inside a
// store directory; anything else found there trips ErrForeignFiles on
// delete (spec §6.1, §6.2).
var leveldbFileNames = map[string]bool{
	"CURRENT":    true,
	"LOCK":       true,
	"LOG":        true,
	"LOG.old":    true,
	lockFileName: true,
}

func isKnownLeveldbFile(name string) bool {
	if leveldbFileNames[name] {
		return true
	}
	// MANIFEST-*, *.log, *.ldb, *.sst are goleveldb's numbered artefacts.
	ext := filepath.Ext(name)
	switch ext {
	case ".log", ".ldb", ".sst", ".tmp":
		return true
	}
	if len(name) >= 8 && name[:8] == "MANIFEST" {
		return true
	}
	return false
}

// fileStore is a durable Store backed by a goleveldb database, with an
// in-memory overlay staged in front of it (spec §4.2).
type fileStore struct {
	dir   string
	lock  *directoryLock
	db    *leveldb.DB
	table *overlay
}

// OpenFile opens or creates a database rooted at path, taking an exclusive
// directory lock for the lifetime of the returned Store. It asserts the
// stored version metadata matches databaseVersion, stamping it on first
// open (spec §6.1; the stamp-on-first-open half is supplemented from
// original_source/src/lib.rs, since spec.md only states the check).
func OpenFile(path string) (Store, error) {
	lock, err := LockDirectory(path)
	if err != nil {
		return nil, err
	}

	opts := &opt.Options{
		// An append-light, point-lookup-heavy workload gains little from
		// compression and benefits from a larger block cache.
		Compression:        opt.NoCompression,
		BlockCacheCapacity: 8 * opt.MiB,
	}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("failed to open leveldb store at %s: %w", path, err)
	}

	s := &fileStore{dir: path, lock: lock, db: db, table: newOverlay()}
	if err := s.checkOrStampVersion(); err != nil {
		_ = db.Close()
		_ = lock.Release()
		return nil, err
	}
	return s, nil
}

func (s *fileStore) checkOrStampVersion() error {
	value, err := s.db.Get(versionKey, nil)
	if err == leveldb.ErrNotFound {
		return s.db.Put(versionKey, []byte(databaseVersion), nil)
	}
	if err != nil {
		return fmt.Errorf("failed to read database version: %w", err)
	}
	if string(value) != databaseVersion {
		return fmt.Errorf("%w: found %q, want %q", common.ErrWrongVersion, value, databaseVersion)
	}
	return nil
}

func (s *fileStore) Get(key []byte) ([]byte, bool, error) {
	if value, tombstone, staged := s.table.get(string(key)); staged {
		if tombstone {
			return nil, false, nil
		}
		return value, true, nil
	}
	value, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *fileStore) Put(key []byte, value []byte) error {
	if err := CheckKeyLength(key); err != nil {
		return err
	}
	s.table.put(string(key), value)
	return nil
}

func (s *fileStore) Delete(key []byte) error {
	if err := CheckKeyLength(key); err != nil {
		return err
	}
	s.table.delete(string(key))
	return nil
}

// ClearPrefix removes every overlay entry under prefix, then sweeps the
// durable layer for the same range using a goleveldb prefix range cursor
// (spec §4.2, §6.3).
func (s *fileStore) ClearPrefix(prefix []byte) error {
	s.table.clearPrefix(string(prefix))

	rng := util.BytesPrefix(prefix)
	iter := s.db.NewIterator(rng, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}
	return s.db.Write(batch, nil)
}

// Flush applies the overlay to the durable store without ending the
// transaction (spec §4.2).
func (s *fileStore) Flush() error {
	if s.table.isEmpty() {
		return nil
	}
	batch := new(leveldb.Batch)
	s.table.forEach(func(key string, e overlayEntry) {
		if e.Tombstone {
			batch.Delete([]byte(key))
		} else {
			batch.Put([]byte(key), e.Value)
		}
	})
	if err := s.db.Write(batch, nil); err != nil {
		return err
	}
	s.table.clear()
	return nil
}

// Commit flushes any remaining overlay to the durable store (spec §4.4.5).
func (s *fileStore) Commit() error {
	return s.Flush()
}

func (s *fileStore) Close() error {
	dbErr := s.db.Close()
	lockErr := s.lock.Release()
	if dbErr != nil {
		return dbErr
	}
	return lockErr
}

// DeleteStore removes the database rooted at path. It refuses to touch the
// directory if it contains anything beyond goleveldb's own files and the
// lock file, failing with ErrForeignFiles before deleting anything (spec
// §6.1; policy supplemented from original_source's delete path, which
// fails without deleting anything further on an unexpected entry).
func DeleteStore(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !isKnownLeveldbFile(entry.Name()) {
			return fmt.Errorf("%w: unexpected entry %q in %s", common.ErrForeignFiles, entry.Name(), path)
		}
	}

	log.Printf("kv: deleting database at %s", path)
	return os.RemoveAll(path)
}
