// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the bcrypt work factor used when none is configured.
// Deliberately conservative; raising it slows both attackers and logins.
const DefaultBcryptCost = 12

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted, self-describing bcrypt hash of the password.
	Hash(password string) (string, error)

	// Verify checks the password against a stored hash. It fails closed:
	// empty inputs, malformed hashes, and mismatches all return false.
	Verify(password, storedHash string) bool

	// NeedsUpgrade returns true if the stored value is not a bcrypt hash
	// and must be re-hashed after the next successful verification.
	NeedsUpgrade(storedHash string) bool
}

// BcryptHasher implements PasswordHasher using bcrypt.
//
// Stored values that are not bcrypt-shaped are treated as legacy plaintext
// credentials and verified by constant-time equality. That bridge exists only
// for migrating pre-hashing accounts; callers must re-hash and persist after
// a legacy value matches. Deleting the plaintext branch in Verify and the
// prefix test in NeedsUpgrade ends the migration era in one place.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the given work factor.
// A non-positive cost selects DefaultBcryptCost; out-of-range values are
// clamped to the limits bcrypt supports.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash produces a bcrypt hash of the password. The output embeds algorithm,
// work factor, and salt, so verification is self-describing.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword(prehash(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("cost", h.cost).Wrap(err)
	}
	return string(hash), nil
}

// Verify checks the password against a stored hash, failing closed on every
// error path. Legacy plaintext values are matched by constant-time equality.
func (h *BcryptHasher) Verify(password, storedHash string) bool {
	if password == "" || storedHash == "" {
		return false
	}

	if isBcryptHash(storedHash) {
		return bcrypt.CompareHashAndPassword([]byte(storedHash), prehash(password)) == nil
	}

	// Legacy plaintext migration bridge.
	if len(password) != len(storedHash) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(storedHash)) == 1
}

// NeedsUpgrade returns true whenever the stored value is not bcrypt-shaped.
// Pure and side-effect free.
func (h *BcryptHasher) NeedsUpgrade(storedHash string) bool {
	return !isBcryptHash(storedHash)
}

// isBcryptHash reports whether the value carries a bcrypt modular-crypt
// prefix ($2a$, $2b$, $2y$).
func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}

// prehash runs the password through SHA-256 and hex-encodes the digest.
// bcrypt silently caps input at 72 bytes; pre-hashing keeps the full entropy
// of long passphrases inside that limit.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}
