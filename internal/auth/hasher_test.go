// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gradevault/gradevault/internal/auth"
)

func TestBcryptHasher_Hash(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	t.Run("produces a bcrypt hash", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"))
		assert.NotContains(t, hash, "correct horse")
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrEmptyPassword))
	})

	t.Run("same password hashes differently each time", func(t *testing.T) {
		h1, err := hasher.Hash("same-password-1")
		require.NoError(t, err)
		h2, err := hasher.Hash("same-password-1")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("passwords beyond the bcrypt input cap keep full entropy", func(t *testing.T) {
		long := strings.Repeat("a", 80) + "X"
		longOther := strings.Repeat("a", 80) + "Y"

		hash, err := hasher.Hash(long)
		require.NoError(t, err)
		assert.True(t, hasher.Verify(long, hash))
		assert.False(t, hasher.Verify(longOther, hash))
	})
}

func TestBcryptHasher_Verify(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("s3cret-Pass")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("s3cret-Pass", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		hash, err := hasher.Hash("s3cret-Pass")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("s3cret-Pas", hash))
	})

	t.Run("empty inputs fail closed", func(t *testing.T) {
		hash, err := hasher.Hash("s3cret-Pass")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("", hash))
		assert.False(t, hasher.Verify("s3cret-Pass", ""))
		assert.False(t, hasher.Verify("", ""))
	})

	t.Run("malformed stored hash fails", func(t *testing.T) {
		assert.False(t, hasher.Verify("s3cret-Pass", "$2a$garbage"))
	})

	t.Run("legacy plaintext matches by equality", func(t *testing.T) {
		assert.True(t, hasher.Verify("old-plain-password", "old-plain-password"))
		assert.False(t, hasher.Verify("old-plain-password", "other-plain-password"))
		assert.False(t, hasher.Verify("old-plain", "old-plain-password"))
	})
}

func TestBcryptHasher_NeedsUpgrade(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	t.Run("bcrypt hashes do not need upgrade", func(t *testing.T) {
		hash, err := hasher.Hash("some-Pass1")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsUpgrade(hash))
	})

	t.Run("plaintext values need upgrade", func(t *testing.T) {
		assert.True(t, hasher.NeedsUpgrade("plaintext-password"))
	})

	t.Run("is pure", func(t *testing.T) {
		stored := "plaintext-password"
		_ = hasher.NeedsUpgrade(stored)
		assert.Equal(t, "plaintext-password", stored)
		assert.True(t, hasher.NeedsUpgrade(stored))
	})
}

func TestNewBcryptHasher_CostClamping(t *testing.T) {
	t.Run("zero cost selects the default", func(t *testing.T) {
		hasher := auth.NewBcryptHasher(0)
		hash, err := hasher.Hash("clamped-Pass1")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultBcryptCost, cost)
	})

	t.Run("below-minimum cost is clamped up", func(t *testing.T) {
		hasher := auth.NewBcryptHasher(1)
		hash, err := hasher.Hash("clamped-Pass1")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
	})
}
