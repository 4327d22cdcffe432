// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	// SessionTokenBytes is the token entropy in bytes. 32 bytes (256 bits)
	// encode to 64 hex characters.
	SessionTokenBytes = 32

	// DefaultSessionTimeout is the sliding inactivity timeout.
	DefaultSessionTimeout = 30 * time.Minute
)

// Session represents an authenticated session. Only the SHA-256 hash of the
// bearer token is ever stored; the plaintext token exists solely in the
// caller's hands.
type Session struct {
	ID         ulid.ULID
	Username   string
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// NewSession creates a validated Session instance.
func NewSession(username, tokenHash string, expiresAt time.Time) (*Session, error) {
	if username == "" {
		return nil, oops.Code("SESSION_INVALID_OWNER").Errorf("session owner cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &Session{
		ID:         ulid.Make(),
		Username:   username,
		TokenHash:  tokenHash,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		LastSeenAt: now,
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given
// time. Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext token goes to
// the caller; only the hash is persisted.
func GenerateSessionToken() (token, hash string, err error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(buf)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the SHA-256 hash of a session token, hex-encoded.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken checks a plaintext token against a stored hash in
// constant time. Returns false for empty inputs.
func VerifySessionToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashSessionToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// SessionRepository manages session persistence. Implementations exist for
// PostgreSQL and in-memory backings; the service is agnostic.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash, expired or not.
	// Returns ErrNotFound (wrapped) if absent.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// UpdateExpiry bumps the expiry and last-seen timestamps for a session.
	UpdateExpiry(ctx context.Context, id ulid.ULID, expiresAt, lastSeen time.Time) error

	// DeleteByTokenHash removes the session with the given token hash.
	// Idempotent: deleting an absent session is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByUsername removes every session owned by the username.
	DeleteByUsername(ctx context.Context, username string) error

	// DeleteExpired removes all expired sessions and returns the count of
	// deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}
