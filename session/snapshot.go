// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/nagarniti/nagarniti/lib/localstore"
	"github.com/nagarniti/nagarniti/wardapi"
)

// DefaultStorageKey is the key the snapshot is stored under.
const DefaultStorageKey = "auth-storage"

// Snapshot is the persisted part of a session. It never holds the
// access token.
type Snapshot struct {
	User            *wardapi.User `json:"user"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	// TokenExpiresAt is Unix milliseconds; zero means no expiry known.
	TokenExpiresAt int64 `json:"tokenExpiresAt"`
}

// IsZero reports whether the snapshot carries nothing worth keeping.
func (s Snapshot) IsZero() bool {
	return s.User == nil && !s.IsAuthenticated && s.TokenExpiresAt == 0
}

// ExpiresAt converts TokenExpiresAt to a time.
func (s Snapshot) ExpiresAt() time.Time {
	if s.TokenExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.TokenExpiresAt)
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// SnapshotStore persists the snapshot between processes.
type SnapshotStore interface {
	// Load returns the stored snapshot; false when there is none.
	Load() (Snapshot, bool, error)
	Save(Snapshot) error
	Clear() error
}

// LocalStoreSnapshots keeps the snapshot under one key of a
// localstore.Store.
type LocalStoreSnapshots struct {
	store *localstore.Store
	key   string
}

// NewLocalStoreSnapshots stores snapshots in store under key, or under
// DefaultStorageKey when key is empty.
func NewLocalStoreSnapshots(store *localstore.Store, key string) *LocalStoreSnapshots {
	if key == "" {
		key = DefaultStorageKey
	}
	return &LocalStoreSnapshots{store: store, key: key}
}

// Load implements SnapshotStore.
func (s *LocalStoreSnapshots) Load() (Snapshot, bool, error) {
	var snapshot Snapshot
	found, err := s.store.Get(s.key, &snapshot)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("session: loading snapshot: %w", err)
	}
	return snapshot, found, nil
}

// Save implements SnapshotStore.
func (s *LocalStoreSnapshots) Save(snapshot Snapshot) error {
	if err := s.store.Set(s.key, snapshot); err != nil {
		return fmt.Errorf("session: saving snapshot: %w", err)
	}
	return nil
}

// Clear implements SnapshotStore.
func (s *LocalStoreSnapshots) Clear() error {
	if err := s.store.Delete(s.key); err != nil {
		return fmt.Errorf("session: clearing snapshot: %w", err)
	}
	return nil
}

// MemorySnapshots is an in-process SnapshotStore.
type MemorySnapshots struct {
	mu       sync.Mutex
	snapshot Snapshot
	present  bool
	saves    int
}

// NewMemorySnapshots returns a store preloaded with snapshot when
// initial is non-nil.
func NewMemorySnapshots(initial *Snapshot) *MemorySnapshots {
	store := &MemorySnapshots{}
	if initial != nil {
		store.snapshot = *initial
		store.snapshot.User = cloneUser(initial.User)
		store.present = true
	}
	return store
}

// Load implements SnapshotStore.
func (s *MemorySnapshots) Load() (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.snapshot
	snapshot.User = cloneUser(s.snapshot.User)
	return snapshot, s.present, nil
}

// Save implements SnapshotStore.
func (s *MemorySnapshots) Save(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.snapshot.User = cloneUser(snapshot.User)
	s.present = true
	s.saves++
	return nil
}

// Clear implements SnapshotStore.
func (s *MemorySnapshots) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
	s.present = false
	return nil
}

// Saves reports how many times Save was called.
func (s *MemorySnapshots) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
