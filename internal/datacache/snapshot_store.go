// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package datacache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// SnapshotKey is the storage key of the persisted snapshot.
const SnapshotKey = "cold-room-data-cache"

// SnapshotStore persists the snapshot of the active session.
type SnapshotStore interface {
	// Load returns the stored snapshot if it belongs to ownerID, or nil.
	Load(ctx context.Context, ownerID int) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
	Clear(ctx context.Context) error
}

// MemorySnapshotStore keeps the snapshot for the lifetime of the process.
type MemorySnapshotStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

// NewMemorySnapshotStore creates an empty store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// Load implements SnapshotStore.
func (m *MemorySnapshotStore) Load(ctx context.Context, ownerID int) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil || m.snap.OwnerUserID != ownerID {
		return nil, nil
	}
	cp := m.snap.Clone()
	return &cp, nil
}

// Save implements SnapshotStore.
func (m *MemorySnapshotStore) Save(ctx context.Context, s *Snapshot) error {
	cp := s.Clone()
	m.mu.Lock()
	m.snap = &cp
	m.mu.Unlock()
	return nil
}

// Clear implements SnapshotStore.
func (m *MemorySnapshotStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.snap = nil
	m.mu.Unlock()
	return nil
}

// BadgerSnapshotStore persists the snapshot as one JSON document in BadgerDB.
type BadgerSnapshotStore struct {
	db *badger.DB
}

// NewBadgerSnapshotStore creates a store on an open database.
func NewBadgerSnapshotStore(db *badger.DB) *BadgerSnapshotStore {
	return &BadgerSnapshotStore{db: db}
}

// Load implements SnapshotStore. A document that no longer decodes is
// treated as absent.
func (b *BadgerSnapshotStore) Load(ctx context.Context, ownerID int) (*Snapshot, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(SnapshotKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil
	}
	if s.OwnerUserID != ownerID {
		return nil, nil
	}
	return &s, nil
}

// Save implements SnapshotStore.
func (b *BadgerSnapshotStore) Save(ctx context.Context, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(SnapshotKey), data)
	})
}

// Clear implements SnapshotStore.
func (b *BadgerSnapshotStore) Clear(ctx context.Context) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(SnapshotKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// SnapshotStoreType selects the snapshot persistence backend.
type SnapshotStoreType string

const (
	SnapshotStoreMemory SnapshotStoreType = "memory"
	SnapshotStoreBadger SnapshotStoreType = "badger"
)

// NewSnapshotStore builds the store selected by storeType.
func NewSnapshotStore(storeType SnapshotStoreType, db *badger.DB) (SnapshotStore, error) {
	switch storeType {
	case SnapshotStoreMemory, "":
		return NewMemorySnapshotStore(), nil
	case SnapshotStoreBadger:
		if db == nil {
			return nil, fmt.Errorf("badger snapshot store requires an open database")
		}
		return NewBadgerSnapshotStore(db), nil
	default:
		return nil, fmt.Errorf("unknown snapshot store type %q", storeType)
	}
}
