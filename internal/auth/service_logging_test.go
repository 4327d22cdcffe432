// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gradevault/gradevault/internal/auth"
	"github.com/gradevault/gradevault/internal/auth/memory"
)

// securityEvent mirrors the JSON shape of an emitted security event record.
type securityEvent struct {
	Msg     string `json:"msg"`
	Event   string `json:"event"`
	Subject string `json:"subject"`
	Success bool   `json:"success"`
}

// captureEvents builds a service whose security events land in the returned
// decoder function.
func captureEvents(t *testing.T) (*auth.Service, func() []securityEvent) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	limiter := auth.NewRateLimiter(auth.RateLimiterConfig{})
	service, err := auth.NewServiceWithLogger(
		memory.NewAccountRepository(),
		memory.NewSessionRepository(),
		auth.NewBcryptHasher(bcrypt.MinCost),
		limiter,
		auth.DefaultSessionTimeout,
		logger,
	)
	require.NoError(t, err)

	events := func() []securityEvent {
		var out []securityEvent
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			var ev securityEvent
			require.NoError(t, json.Unmarshal([]byte(line), &ev))
			if ev.Msg == "security event" {
				out = append(out, ev)
			}
		}
		return out
	}
	return service, events
}

func TestService_SecurityEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("registration emits a success event", func(t *testing.T) {
		service, events := captureEvents(t)
		require.NoError(t, service.Register(ctx, "alice", "Str0ng-pass", "alice@example.com"))

		evs := events()
		require.Len(t, evs, 1)
		assert.Equal(t, "account registered", evs[0].Event)
		assert.Equal(t, "alice", evs[0].Subject)
		assert.True(t, evs[0].Success)
	})

	t.Run("failed login emits a failure event", func(t *testing.T) {
		service, events := captureEvents(t)
		require.NoError(t, service.Register(ctx, "alice", "Str0ng-pass", "alice@example.com"))

		service.Authenticate(ctx, "alice", "Wrong-pass1", "10.0.0.1")

		evs := events()
		require.Len(t, evs, 2)
		assert.Equal(t, "login failed: bad credentials", evs[1].Event)
		assert.Equal(t, "alice", evs[1].Subject)
		assert.False(t, evs[1].Success)
	})

	t.Run("unknown subject falls back to a placeholder", func(t *testing.T) {
		service, events := captureEvents(t)
		service.Authenticate(ctx, "", "Wrong-pass1", "10.0.0.1")

		evs := events()
		require.Len(t, evs, 1)
		assert.Equal(t, "unknown", evs[0].Subject)
		assert.False(t, evs[0].Success)
	})

	t.Run("events never carry passwords", func(t *testing.T) {
		service, events := captureEvents(t)
		require.NoError(t, service.Register(ctx, "alice", "Str0ng-pass", "alice@example.com"))
		service.Authenticate(ctx, "alice", "Str0ng-pass", "10.0.0.1")

		for _, ev := range events() {
			assert.NotContains(t, ev.Event, "Str0ng-pass")
			assert.NotContains(t, ev.Subject, "Str0ng-pass")
		}
	})
}
