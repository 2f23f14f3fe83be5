// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package viplist

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/plateforge/plateforge/lib/secret"
)

// FileStoreConfig configures a FileStore.
type FileStoreConfig struct {
	// Path is the snapshot file location. The parent directory is
	// created if missing.
	Path string

	// Key enables at-rest encryption of snapshots. Nil writes
	// plaintext snapshots. The FileStore borrows the buffer — the
	// caller keeps it alive for the store's lifetime and closes it.
	Key *secret.Buffer

	// Logger is the structured logger. Nil means slog.Default().
	Logger *slog.Logger
}

// FileStore is a Store backed by a snapshot file. The full record set
// is held in memory; every mutation rewrites the snapshot atomically.
// Suited to the VIP list's scale (an operator-curated list, not a
// database).
type FileStore struct {
	path   string
	key    *secret.Buffer
	logger *slog.Logger

	mutex   sync.RWMutex
	records map[uuid.UUID]Record
}

// NewFileStore opens or creates a file store. An existing snapshot is
// loaded; a missing file starts the store empty.
func NewFileStore(config FileStoreConfig) (*FileStore, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := &FileStore{
		path:    config.Path,
		key:     config.Key,
		logger:  logger,
		records: make(map[uuid.UUID]Record),
	}

	data, err := os.ReadFile(config.Path)
	if os.IsNotExist(err) {
		logger.Info("starting with empty VIP list", "path", config.Path)
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading VIP snapshot: %w", err)
	}

	records, err := decodeSnapshot(data, config.Key)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		store.records[record.ID] = record
	}
	logger.Info("loaded VIP snapshot", "path", config.Path, "records", len(records))
	return store, nil
}

// List returns all records ordered by AddedAt, ties broken by ID.
func (s *FileStore) List() ([]Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].AddedAt.Equal(records[j].AddedAt) {
			return records[i].AddedAt.Before(records[j].AddedAt)
		}
		return bytes.Compare(records[i].ID[:], records[j].ID[:]) < 0
	})
	return records, nil
}

// Get returns one record, or ErrNotFound.
func (s *FileStore) Get(id uuid.UUID) (Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// Put inserts or replaces a record and persists the snapshot. A
// failed write rolls the in-memory state back so memory and disk
// never diverge.
func (s *FileStore) Put(record Record) error {
	if record.ID == (uuid.UUID{}) {
		return fmt.Errorf("viplist: record has no ID")
	}
	if record.Name == "" {
		return fmt.Errorf("viplist: record has no name")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous, existed := s.records[record.ID]
	s.records[record.ID] = record
	if err := s.saveLocked(); err != nil {
		if existed {
			s.records[record.ID] = previous
		} else {
			delete(s.records, record.ID)
		}
		return err
	}
	return nil
}

// Delete removes a record and persists the snapshot, or returns
// ErrNotFound.
func (s *FileStore) Delete(id uuid.UUID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	if err := s.saveLocked(); err != nil {
		s.records[id] = previous
		return err
	}
	return nil
}

// saveLocked writes the snapshot with a temp-file-and-rename. Caller
// holds the write lock.
func (s *FileStore) saveLocked() error {
	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return bytes.Compare(records[i].ID[:], records[j].ID[:]) < 0
	})

	encoded, err := encodeSnapshot(records, s.key)
	if err != nil {
		return err
	}

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating VIP snapshot directory: %w", err)
	}

	file, err := os.CreateTemp(directory, ".viplist-*.tmp")
	if err != nil {
		return fmt.Errorf("creating VIP snapshot temp file: %w", err)
	}
	if _, err := file.Write(encoded); err != nil {
		file.Close()
		os.Remove(file.Name())
		return fmt.Errorf("writing VIP snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return fmt.Errorf("closing VIP snapshot: %w", err)
	}
	if err := os.Rename(file.Name(), s.path); err != nil {
		os.Remove(file.Name())
		return fmt.Errorf("replacing VIP snapshot: %w", err)
	}

	s.logger.Debug("VIP snapshot written", "path", s.path, "records", len(records), "bytes", len(encoded))
	return nil
}
