// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package auth

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/coldwatch/internal/config"
)

// TokenStoreType selects the session persistence backend.
type TokenStoreType string

const (
	// TokenStoreMemory keeps the session for the lifetime of the process (default).
	TokenStoreMemory TokenStoreType = "memory"

	// TokenStoreBadger persists the session in BadgerDB.
	TokenStoreBadger TokenStoreType = "badger"
)

// NewTokenStore builds the store selected by storeType. The badger store needs
// an open db; encryptionKey may be empty to store tokens unsealed.
func NewTokenStore(storeType TokenStoreType, db *badger.DB, encryptionKey string) (TokenStore, error) {
	switch storeType {
	case TokenStoreMemory, "":
		return NewMemoryTokenStore(), nil
	case TokenStoreBadger:
		if db == nil {
			return nil, fmt.Errorf("badger token store requires an open database")
		}
		var enc *config.CredentialEncryptor
		if encryptionKey != "" {
			var err error
			if enc, err = config.NewCredentialEncryptor(encryptionKey); err != nil {
				return nil, fmt.Errorf("token encryptor: %w", err)
			}
		}
		return NewBadgerTokenStore(db, enc), nil
	default:
		return nil, fmt.Errorf("unknown token store type %q", storeType)
	}
}
