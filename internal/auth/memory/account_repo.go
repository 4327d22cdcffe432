// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

// Package memory provides in-memory repository implementations, used by
// tests and by single-process deployments that do not need durability.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/gradevault/gradevault/internal/auth"
)

// AccountRepository implements auth.AccountRepository with mutex-guarded maps.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*auth.Account // keyed by exact username
	emails   map[string]string        // lowercased email -> username
}

// NewAccountRepository creates an empty in-memory account repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*auth.Account),
		emails:   make(map[string]string),
	}
}

// Create stores a new account, enforcing username uniqueness (case-sensitive)
// and email uniqueness (case-insensitive).
func (r *AccountRepository) Create(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Username]; ok {
		return oops.Code("ACCOUNT_EXISTS").
			With("username", account.Username).
			Wrap(auth.ErrExists)
	}
	emailKey := strings.ToLower(account.Email)
	if _, ok := r.emails[emailKey]; ok {
		return oops.Code("ACCOUNT_EXISTS").
			With("email", emailKey).
			Wrap(auth.ErrExists)
	}

	stored := *account
	r.accounts[account.Username] = &stored
	r.emails[emailKey] = account.Username
	return nil
}

// GetByUsername retrieves an account by exact username.
func (r *AccountRepository) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[username]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	copied := *account
	return &copied, nil
}

// GetByEmail retrieves an account by email, case-insensitively.
func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username, ok := r.emails[strings.ToLower(email)]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	copied := *r.accounts[username]
	return &copied, nil
}

// UpdatePassword replaces the password hash for a username.
func (r *AccountRepository) UpdatePassword(_ context.Context, username, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[username]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = time.Now()
	return nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
