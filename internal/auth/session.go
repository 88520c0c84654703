// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package auth

import (
	"context"
	"sync"

	"github.com/tomtom215/coldwatch/internal/models"
)

// Storage keys, shared with the web dashboard.
const (
	KeyAccessToken  = "cold-room-token"
	KeyRefreshToken = "cold-room-refresh"
	KeyUser         = "cold-room-user"
)

// Session is the credential set for one signed-in user.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// UserID returns the signed-in user's id, or 0 when no user is known.
func (s Session) UserID() int {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

// IsZero reports whether the session holds nothing.
func (s Session) IsZero() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.User == nil
}

// TokenStore persists a Session between process runs.
// Load returns a zero Session, not an error, when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps the session in process memory only.
type MemoryTokenStore struct {
	mu      sync.Mutex
	session Session
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load(_ context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSession(m.session), nil
}

func (m *MemoryTokenStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = cloneSession(s)
	return nil
}

func (m *MemoryTokenStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}

func cloneSession(s Session) Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
