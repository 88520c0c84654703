// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/coldwatch/internal/config"
	"github.com/tomtom215/coldwatch/internal/models"
)

// =====================================================
// Token Store Tests
// =====================================================

func createTestBadgerDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSession() Session {
	return Session{
		AccessToken:  "eyJhbGciOiJIUzI1NiJ9.payload.sig",
		RefreshToken: "refresh-abc",
		User:         &models.User{ID: 12, Username: "ops", Role: models.RoleAdmin, AssignedRoomIDs: []int{1, 4}},
	}
}

func TestTokenStores_RoundTrip(t *testing.T) {
	t.Parallel()

	enc, err := config.NewCredentialEncryptor("a-test-secret-of-reasonable-length")
	if err != nil {
		t.Fatalf("NewCredentialEncryptor() error = %v", err)
	}

	stores := map[string]TokenStore{
		"memory":           NewMemoryTokenStore(),
		"badger":           NewBadgerTokenStore(createTestBadgerDB(t), nil),
		"badger_encrypted": NewBadgerTokenStore(createTestBadgerDB(t), enc),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := store.Load(ctx)
			if err != nil || !empty.IsZero() {
				t.Fatalf("Load() on empty store = (%+v, %v), want zero session", empty, err)
			}

			want := testSession()
			if err := store.Save(ctx, want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
				t.Errorf("tokens = (%q, %q), want (%q, %q)", got.AccessToken, got.RefreshToken, want.AccessToken, want.RefreshToken)
			}
			if got.UserID() != 12 || got.User.Role != models.RoleAdmin || !got.User.HasRoom(4) {
				t.Errorf("user = %+v, want id 12 admin with room 4", got.User)
			}

			if err := store.Save(ctx, Session{AccessToken: "only-access"}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, _ = store.Load(ctx)
			if got.RefreshToken != "" || got.User != nil {
				t.Errorf("partial Save() left stale fields: %+v", got)
			}

			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			got, _ = store.Load(ctx)
			if !got.IsZero() {
				t.Errorf("Load() after Clear() = %+v, want zero", got)
			}
		})
	}
}

func TestBadgerTokenStore_EncryptsAtRest(t *testing.T) {
	t.Parallel()

	enc, _ := config.NewCredentialEncryptor("a-test-secret-of-reasonable-length")
	db := createTestBadgerDB(t)
	store := NewBadgerTokenStore(db, enc)
	if err := store.Save(context.Background(), testSession()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(KeyRefreshToken))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if strings.Contains(string(val), "refresh-abc") {
				t.Error("refresh token stored in plaintext")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}

	other, _ := config.NewCredentialEncryptor("a-different-secret-entirely")
	if _, err := NewBadgerTokenStore(db, other).Load(context.Background()); err == nil {
		t.Error("Load() with the wrong key succeeded, want error")
	}
}

func TestNewTokenStore(t *testing.T) {
	t.Parallel()

	if s, err := NewTokenStore("", nil, ""); err != nil {
		t.Errorf("NewTokenStore(memory) error = %v", err)
	} else if _, ok := s.(*MemoryTokenStore); !ok {
		t.Errorf("NewTokenStore(memory) = %T", s)
	}
	if _, err := NewTokenStore(TokenStoreBadger, nil, ""); err == nil {
		t.Error("NewTokenStore(badger, nil db) error = nil, want error")
	}
	if _, err := NewTokenStore("redis", nil, ""); err == nil {
		t.Error("NewTokenStore(redis) error = nil, want error")
	}
	s, err := NewTokenStore(TokenStoreBadger, createTestBadgerDB(t), "secret-key")
	if err != nil {
		t.Fatalf("NewTokenStore(badger) error = %v", err)
	}
	if b, ok := s.(*BadgerTokenStore); !ok || b.encryptor == nil {
		t.Errorf("NewTokenStore(badger) = %T, want encrypting badger store", s)
	}
}
