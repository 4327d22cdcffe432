// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradevault/gradevault/internal/auth"
	"github.com/gradevault/gradevault/internal/auth/postgres"
)

func testSession() *auth.Session {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &auth.Session{
		ID:         ulid.Make(),
		Username:   "alice",
		TokenHash:  "deadbeefdeadbeefdeadbeefdeadbeef",
		ExpiresAt:  now.Add(30 * time.Minute),
		CreatedAt:  now,
		LastSeenAt: now,
	}
}

func TestSessionRepository_Create(t *testing.T) {
	t.Run("inserts a session row", func(t *testing.T) {
		mock := newMockPool(t)
		session := testSession()
		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(
				session.ID.String(),
				session.Username,
				session.TokenHash,
				session.ExpiresAt,
				session.CreatedAt,
				session.LastSeenAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := postgres.NewSessionRepository(mock)
		require.NoError(t, repo.Create(context.Background(), session))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate token hash surfaces as exists", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		repo := postgres.NewSessionRepository(mock)
		err := repo.Create(context.Background(), testSession())
		assert.True(t, errors.Is(err, auth.ErrExists))
	})
}

func TestSessionRepository_GetByTokenHash(t *testing.T) {
	t.Run("returns the stored session", func(t *testing.T) {
		mock := newMockPool(t)
		session := testSession()
		rows := pgxmock.NewRows([]string{"id", "username", "token_hash", "expires_at", "created_at", "last_seen_at"}).
			AddRow(session.ID.String(), session.Username, session.TokenHash, session.ExpiresAt, session.CreatedAt, session.LastSeenAt)
		mock.ExpectQuery(`SELECT id, username, token_hash, expires_at, created_at, last_seen_at`).
			WithArgs(session.TokenHash).
			WillReturnRows(rows)

		repo := postgres.NewSessionRepository(mock)
		got, err := repo.GetByTokenHash(context.Background(), session.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
		assert.Equal(t, "alice", got.Username)
		assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("absent hash is not found", func(t *testing.T) {
		mock := newMockPool(t)
		rows := pgxmock.NewRows([]string{"id", "username", "token_hash", "expires_at", "created_at", "last_seen_at"})
		mock.ExpectQuery(`SELECT id, username, token_hash, expires_at, created_at, last_seen_at`).
			WithArgs("missing").
			WillReturnRows(rows)

		repo := postgres.NewSessionRepository(mock)
		_, err := repo.GetByTokenHash(context.Background(), "missing")
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})
}

func TestSessionRepository_UpdateExpiry(t *testing.T) {
	t.Run("bumps expiry and last seen", func(t *testing.T) {
		mock := newMockPool(t)
		id := ulid.Make()
		expiresAt := time.Now().Add(30 * time.Minute)
		lastSeen := time.Now()
		mock.ExpectExec(`UPDATE sessions SET expires_at`).
			WithArgs(id.String(), expiresAt, lastSeen).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := postgres.NewSessionRepository(mock)
		require.NoError(t, repo.UpdateExpiry(context.Background(), id, expiresAt, lastSeen))
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		mock := newMockPool(t)
		id := ulid.Make()
		mock.ExpectExec(`UPDATE sessions SET expires_at`).
			WithArgs(id.String(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := postgres.NewSessionRepository(mock)
		err := repo.UpdateExpiry(context.Background(), id, time.Now(), time.Now())
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})
}

func TestSessionRepository_Deletes(t *testing.T) {
	t.Run("delete by token hash is idempotent", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM sessions WHERE token_hash`).
			WithArgs("somehash").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := postgres.NewSessionRepository(mock)
		assert.NoError(t, repo.DeleteByTokenHash(context.Background(), "somehash"))
	})

	t.Run("delete by username removes every row", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM sessions WHERE username`).
			WithArgs("alice").
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		repo := postgres.NewSessionRepository(mock)
		assert.NoError(t, repo.DeleteByUsername(context.Background(), "alice"))
	})

	t.Run("delete expired reports the count", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM sessions WHERE expires_at`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("DELETE", 7))

		repo := postgres.NewSessionRepository(mock)
		count, err := repo.DeleteExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM sessions WHERE expires_at`).
			WillReturnError(errors.New("connection reset"))

		repo := postgres.NewSessionRepository(mock)
		_, err := repo.DeleteExpired(context.Background())
		assert.Error(t, err)
	})
}
