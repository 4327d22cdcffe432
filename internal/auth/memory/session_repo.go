// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gradevault/gradevault/internal/auth"
)

// SessionRepository implements auth.SessionRepository with mutex-guarded maps.
type SessionRepository struct {
	mu       sync.RWMutex
	byID     map[ulid.ULID]*auth.Session
	byHash   map[string]ulid.ULID
}

// NewSessionRepository creates an empty in-memory session repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		byID:   make(map[ulid.ULID]*auth.Session),
		byHash: make(map[string]ulid.ULID),
	}
}

// Create stores a new session, enforcing token hash uniqueness.
func (r *SessionRepository) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byHash[session.TokenHash]; ok {
		return oops.Code("SESSION_EXISTS").Wrap(auth.ErrExists)
	}

	stored := *session
	r.byID[session.ID] = &stored
	r.byHash[session.TokenHash] = session.ID
	return nil
}

// GetByTokenHash retrieves a session by its token hash, expired or not.
func (r *SessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHash[tokenHash]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	copied := *r.byID[id]
	return &copied, nil
}

// UpdateExpiry bumps the expiry and last-seen timestamps for a session.
func (r *SessionRepository) UpdateExpiry(_ context.Context, id ulid.ULID, expiresAt, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byID[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	session.ExpiresAt = expiresAt
	session.LastSeenAt = lastSeen
	return nil
}

// DeleteByTokenHash removes the session with the given token hash. No-op if
// absent.
func (r *SessionRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHash[tokenHash]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	delete(r.byHash, tokenHash)
	return nil
}

// DeleteByUsername removes every session owned by the username.
func (r *SessionRepository) DeleteByUsername(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.byID {
		if session.Username == username {
			delete(r.byHash, session.TokenHash)
			delete(r.byID, id)
		}
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (r *SessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var count int64
	for id, session := range r.byID {
		if session.IsExpiredAt(now) {
			delete(r.byHash, session.TokenHash)
			delete(r.byID, id)
			count++
		}
	}
	return count, nil
}

// Count returns the number of stored sessions. Useful for tests.
func (r *SessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
