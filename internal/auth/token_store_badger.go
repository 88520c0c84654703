// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/coldwatch/internal/config"
	"github.com/tomtom215/coldwatch/internal/models"
)

// BadgerTokenStore implements TokenStore on BadgerDB so a session survives
// restarts. Tokens are sealed with the encryptor when one is supplied; the
// user record is stored as plain JSON.
type BadgerTokenStore struct {
	db        *badger.DB
	encryptor *config.CredentialEncryptor
}

// NewBadgerTokenStore creates a store on an open database. encryptor may be nil.
func NewBadgerTokenStore(db *badger.DB, encryptor *config.CredentialEncryptor) *BadgerTokenStore {
	return &BadgerTokenStore{db: db, encryptor: encryptor}
}

// Load reads the stored session. Undecryptable tokens are reported as an error
// so a changed encryption key is noticed instead of silently logging out.
func (s *BadgerTokenStore) Load(ctx context.Context) (Session, error) {
	var (
		session Session
		raw     = map[string][]byte{}
	)

	err := s.db.View(func(txn *badger.Txn) error {
		for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get %s: %w", key, err)
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", key, err)
			}
			raw[key] = val
		}
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	if session.AccessToken, err = s.open(raw[KeyAccessToken]); err != nil {
		return Session{}, fmt.Errorf("decrypt access token: %w", err)
	}
	if session.RefreshToken, err = s.open(raw[KeyRefreshToken]); err != nil {
		return Session{}, fmt.Errorf("decrypt refresh token: %w", err)
	}
	if data := raw[KeyUser]; len(data) > 0 {
		var u models.User
		if err := json.Unmarshal(data, &u); err != nil {
			return Session{}, fmt.Errorf("unmarshal user: %w", err)
		}
		session.User = &u
	}
	return session, nil
}

// Save replaces the stored session. Empty fields delete their key.
func (s *BadgerTokenStore) Save(ctx context.Context, session Session) error {
	access, err := s.seal(session.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := s.seal(session.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}
	var user []byte
	if session.User != nil {
		if user, err = json.Marshal(session.User); err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for key, val := range map[string][]byte{
			KeyAccessToken:  access,
			KeyRefreshToken: refresh,
			KeyUser:         user,
		} {
			if len(val) == 0 {
				if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("delete %s: %w", key, err)
				}
				continue
			}
			if err := txn.Set([]byte(key), val); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
		return nil
	})
}

// Clear removes every session key.
func (s *BadgerTokenStore) Clear(ctx context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *BadgerTokenStore) seal(token string) ([]byte, error) {
	if token == "" {
		return nil, nil
	}
	if s.encryptor == nil {
		return []byte(token), nil
	}
	sealed, err := s.encryptor.Encrypt(token)
	if err != nil {
		return nil, err
	}
	return []byte(sealed), nil
}

func (s *BadgerTokenStore) open(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if s.encryptor == nil {
		return string(data), nil
	}
	return s.encryptor.Decrypt(string(data))
}
