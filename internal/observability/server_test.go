// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package observability_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradevault/gradevault/internal/observability"
)

func startServer(t *testing.T, ready observability.ReadinessChecker) *observability.Server {
	t.Helper()
	server := observability.NewServer("127.0.0.1:0", ready)
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, server.Stop(ctx))
	})
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test URL from local listener
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Endpoints(t *testing.T) {
	server := startServer(t, func() bool { return true })
	base := fmt.Sprintf("http://%s", server.Addr())

	t.Run("liveness always succeeds", func(t *testing.T) {
		status, body := get(t, base+"/healthz/liveness")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok\n", body)
	})

	t.Run("readiness reflects the checker", func(t *testing.T) {
		status, _ := get(t, base+"/healthz/readiness")
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("metrics include registered counters", func(t *testing.T) {
		observability.RecordAuthAttempt("success")
		observability.RecordLockout()
		observability.RecordSessionsSwept(3)

		status, body := get(t, base+"/metrics")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "gradevault_auth_attempts_total")
		assert.Contains(t, body, "gradevault_auth_lockouts_total")
		assert.Contains(t, body, "gradevault_sessions_swept_total")
	})
}

func TestServer_NotReady(t *testing.T) {
	server := startServer(t, func() bool { return false })
	base := fmt.Sprintf("http://%s", server.Addr())

	status, body := get(t, base+"/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "not ready\n", body)
}

func TestServer_Lifecycle(t *testing.T) {
	t.Run("double start is rejected", func(t *testing.T) {
		server := observability.NewServer("127.0.0.1:0", nil)
		_, err := server.Start()
		require.NoError(t, err)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(ctx)
		}()

		_, err = server.Start()
		assert.Error(t, err)
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		server := observability.NewServer("127.0.0.1:0", nil)
		assert.NoError(t, server.Stop(context.Background()))
	})
}
