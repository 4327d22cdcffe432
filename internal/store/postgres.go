// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

// Package store provides database connectivity and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	// connectBaseBackoff is the initial delay between connection attempts.
	connectBaseBackoff = 500 * time.Millisecond

	// connectMaxRetries bounds the total number of ping retries on startup.
	connectMaxRetries = 5
)

// Connect opens a pgx connection pool and verifies connectivity with a
// pinned number of exponential-backoff ping attempts. The database may
// still be starting when the service comes up, so transient ping failures
// are retried.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectMaxRetries, retry.NewExponential(connectBaseBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_PING_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}
