// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradevault/gradevault/internal/auth"
	"github.com/gradevault/gradevault/pkg/errutil"
)

var hexTokenRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestGenerateSessionToken(t *testing.T) {
	t.Run("token is 64 lowercase hex characters", func(t *testing.T) {
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.Regexp(t, hexTokenRegex, token)
		assert.Regexp(t, hexTokenRegex, hash)
		assert.NotEqual(t, token, hash)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			token, _, err := auth.GenerateSessionToken()
			require.NoError(t, err)
			assert.False(t, seen[token], "duplicate token generated")
			seen[token] = true
		}
	})

	t.Run("hash matches HashSessionToken", func(t *testing.T) {
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.Equal(t, auth.HashSessionToken(token), hash)
	})
}

func TestVerifySessionToken(t *testing.T) {
	token, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	t.Run("matching token verifies", func(t *testing.T) {
		assert.True(t, auth.VerifySessionToken(token, hash))
	})

	t.Run("wrong token fails", func(t *testing.T) {
		other, _, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.False(t, auth.VerifySessionToken(other, hash))
	})

	t.Run("empty inputs fail closed", func(t *testing.T) {
		assert.False(t, auth.VerifySessionToken("", hash))
		assert.False(t, auth.VerifySessionToken(token, ""))
	})
}

func TestNewSession(t *testing.T) {
	expiry := time.Now().Add(30 * time.Minute)

	t.Run("creates a session with a fresh ID", func(t *testing.T) {
		s1, err := auth.NewSession("alice", "hash1", expiry)
		require.NoError(t, err)
		s2, err := auth.NewSession("alice", "hash2", expiry)
		require.NoError(t, err)

		assert.NotEqual(t, s1.ID, s2.ID)
		assert.Equal(t, "alice", s1.Username)
		assert.Equal(t, expiry, s1.ExpiresAt)
		assert.False(t, s1.CreatedAt.IsZero())
		assert.False(t, s1.LastSeenAt.IsZero())
	})

	t.Run("rejects empty owner", func(t *testing.T) {
		_, err := auth.NewSession("", "hash", expiry)
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_OWNER")
	})

	t.Run("rejects empty token hash", func(t *testing.T) {
		_, err := auth.NewSession("alice", "", expiry)
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_HASH")
	})

	t.Run("rejects zero expiry", func(t *testing.T) {
		_, err := auth.NewSession("alice", "hash", time.Time{})
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_EXPIRY")
	})
}

func TestSession_IsExpiredAt(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := &auth.Session{
		Username:  "alice",
		TokenHash: "hash",
		ExpiresAt: expiry,
	}

	t.Run("before expiry is live", func(t *testing.T) {
		assert.False(t, session.IsExpiredAt(expiry.Add(-time.Second)))
	})

	t.Run("exactly at expiry is still live", func(t *testing.T) {
		assert.False(t, session.IsExpiredAt(expiry))
	})

	t.Run("after expiry is expired", func(t *testing.T) {
		assert.True(t, session.IsExpiredAt(expiry.Add(time.Second)))
	})
}
