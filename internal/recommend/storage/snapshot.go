// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

// Package storage persists trained generations to BadgerDB so a
// restart can serve recommendations immediately instead of waiting for
// the first retrain to finish.
package storage

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/Dio27073/movie-recommender/internal/recommend"
)

// Key prefixes for BadgerDB storage. Snapshot keys embed the version
// as big-endian bytes so lexicographic key order matches version order.
const (
	snapshotKeyPrefix = "snapshot:"
	metaKeyPrefix     = "snapshot_meta:"
)

// ErrNoSnapshot is returned by LoadLatest when nothing has been saved.
var ErrNoSnapshot = errors.New("no snapshot stored")

// SnapshotMeta describes a stored generation without decoding it.
type SnapshotMeta struct {
	Version int64     `json:"version"`
	BuiltAt time.Time `json:"built_at"`
	Movies  int       `json:"movies"`
	Ratings int       `json:"ratings"`
	Bytes   int       `json:"bytes"`
}

// SnapshotStore saves and restores generations. Payloads are
// gob-encoded and gzip-compressed; the factor matrices dominate the
// size and compress well.
type SnapshotStore struct {
	db   *badger.DB
	keep int
}

// NewSnapshotStore creates a store over an open BadgerDB. keep bounds
// how many snapshots are retained; older ones are pruned on save.
// keep < 1 is treated as 1.
func NewSnapshotStore(db *badger.DB, keep int) *SnapshotStore {
	if keep < 1 {
		keep = 1
	}
	return &SnapshotStore{db: db, keep: keep}
}

// Open opens a BadgerDB at path for snapshot storage. An empty path
// runs in-memory.
func Open(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for snapshots: %w", err)
	}
	return db, nil
}

// SaveGeneration persists gen and prunes snapshots beyond the
// retention bound. The write of payload and metadata is one
// transaction.
func (s *SnapshotStore) SaveGeneration(gen *recommend.Generation) error {
	if gen == nil {
		return errors.New("nil generation")
	}

	payload, err := encodeGeneration(gen)
	if err != nil {
		return err
	}

	meta := SnapshotMeta{
		Version: gen.Version,
		BuiltAt: gen.BuiltAt,
		Movies:  len(gen.Corpus),
		Ratings: gen.NumRatings(),
		Bytes:   len(payload),
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal snapshot meta: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(snapshotKey(gen.Version), payload); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		if err := txn.Set(metaKey(gen.Version), metaData); err != nil {
			return fmt.Errorf("set snapshot meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.prune()
}

// LoadLatest decodes the highest-version snapshot.
func (s *SnapshotStore) LoadLatest() (*recommend.Generation, error) {
	var payload []byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(snapshotKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the prefix range to land on
		// the last key under it.
		seek := append([]byte(snapshotKeyPrefix), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		it.Seek(seek)
		if !it.ValidForPrefix([]byte(snapshotKeyPrefix)) {
			return ErrNoSnapshot
		}

		return it.Item().Value(func(val []byte) error {
			payload = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return decodeGeneration(payload)
}

// ListMeta returns metadata for all stored snapshots, oldest first.
func (s *SnapshotStore) ListMeta() ([]SnapshotMeta, error) {
	var metas []SnapshotMeta

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(metaKeyPrefix)); it.ValidForPrefix([]byte(metaKeyPrefix)); it.Next() {
			var meta SnapshotMeta
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			})
			if err != nil {
				return fmt.Errorf("unmarshal snapshot meta: %w", err)
			}
			metas = append(metas, meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return metas, nil
}

// prune deletes all but the newest keep snapshots.
func (s *SnapshotStore) prune() error {
	metas, err := s.ListMeta()
	if err != nil {
		return err
	}
	if len(metas) <= s.keep {
		return nil
	}

	stale := metas[:len(metas)-s.keep]
	return s.db.Update(func(txn *badger.Txn) error {
		for _, meta := range stale {
			if err := txn.Delete(snapshotKey(meta.Version)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete snapshot %d: %w", meta.Version, err)
			}
			if err := txn.Delete(metaKey(meta.Version)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete snapshot meta %d: %w", meta.Version, err)
			}
		}
		return nil
	})
}

func snapshotKey(version int64) []byte {
	key := make([]byte, len(snapshotKeyPrefix)+8)
	copy(key, snapshotKeyPrefix)
	binary.BigEndian.PutUint64(key[len(snapshotKeyPrefix):], uint64(version))
	return key
}

func metaKey(version int64) []byte {
	key := make([]byte, len(metaKeyPrefix)+8)
	copy(key, metaKeyPrefix)
	binary.BigEndian.PutUint64(key[len(metaKeyPrefix):], uint64(version))
	return key
}

func encodeGeneration(gen *recommend.Generation) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(gen); err != nil {
		return nil, fmt.Errorf("encode generation: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("flush generation: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeGeneration(payload []byte) (*recommend.Generation, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open generation payload: %w", err)
	}
	defer zr.Close()

	var gen recommend.Generation
	if err := gob.NewDecoder(zr).Decode(&gen); err != nil {
		return nil, fmt.Errorf("decode generation: %w", err)
	}
	return &gen, nil
}
