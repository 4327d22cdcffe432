// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Account represents a stored credential: the case-sensitive username is the
// identity key, the email is unique case-insensitively.
//
// PasswordHash is opaque and algorithm-tagged; an empty value is the
// sentinel for "no password set" (e.g. an externally provisioned account)
// and can never authenticate.
type Account struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates a validated Account. Username and email are expected to
// be pre-normalized by ValidateUsername/ValidateEmail.
func NewAccount(username, passwordHash, email string) (*Account, error) {
	if username == "" {
		return nil, oops.Code("ACCOUNT_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if email == "" {
		return nil, oops.Code("ACCOUNT_INVALID_EMAIL").Errorf("email cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AccountRepository manages credential persistence. Accounts are never
// physically deleted by this subsystem; deletion is an external concern.
type AccountRepository interface {
	// Create stores a new account. Returns ErrExists (wrapped) when the
	// username or email is already taken.
	Create(ctx context.Context, account *Account) error

	// GetByUsername retrieves an account by its exact, case-sensitive
	// username. Returns ErrNotFound (wrapped) if absent.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// GetByEmail retrieves an account by email, case-insensitively.
	// Returns ErrNotFound (wrapped) if absent.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// UpdatePassword replaces the password hash for a username.
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
