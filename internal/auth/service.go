// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/gradevault/gradevault/internal/observability"
	"github.com/gradevault/gradevault/pkg/errutil"
)

// dummyPasswordHash is verified when a username does not resolve, so unknown
// and known accounts take comparable time. This is NOT a real credential -
// it is a fake hash that will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$2a$12$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates credential hashing, input validation, rate limiting,
// and session lifecycle for the calling application. All public operations
// are total: invalid, missing, and failing inputs produce negative results,
// never panics, and persistence failures degrade to negatives after being
// logged.
type Service struct {
	accounts AccountRepository
	sessions SessionRepository
	hasher   PasswordHasher
	limiter  *RateLimiter
	logger   *slog.Logger

	sessionTimeout time.Duration
	now            func() time.Time
}

// NewService creates a Service logging to slog.Default().
// A non-positive sessionTimeout selects DefaultSessionTimeout.
func NewService(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, limiter *RateLimiter, sessionTimeout time.Duration) (*Service, error) {
	return NewServiceWithLogger(accounts, sessions, hasher, limiter, sessionTimeout, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger for
// security events.
func NewServiceWithLogger(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, limiter *RateLimiter, sessionTimeout time.Duration, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("accounts repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if limiter == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("rate limiter is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	if sessionTimeout <= 0 {
		sessionTimeout = DefaultSessionTimeout
	}

	return &Service{
		accounts:       accounts,
		sessions:       sessions,
		hasher:         hasher,
		limiter:        limiter,
		logger:         logger,
		sessionTimeout: sessionTimeout,
		now:            time.Now,
	}, nil
}

// Register validates all three fields, hashes the password, and persists the
// account. All-or-nothing: any validation or persistence failure leaves
// nothing behind and is reported with its specific reason.
func (s *Service) Register(ctx context.Context, username, password, email string) error {
	uname, err := ValidateUsername(username)
	if err != nil {
		s.event("account registration rejected", uname, false)
		return err
	}
	if _, err := ValidatePassword(password); err != nil {
		s.event("account registration rejected", uname, false)
		return err
	}
	normEmail, err := ValidateEmail(email)
	if err != nil {
		s.event("account registration rejected", uname, false)
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.event("account registration failed", uname, false)
		return oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	account, err := NewAccount(uname, hash, normEmail)
	if err != nil {
		s.event("account registration failed", uname, false)
		return oops.Code("AUTH_REGISTER_FAILED").With("operation", "build account").Wrap(err)
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		s.event("account registration failed", uname, false)
		if errors.Is(err, ErrExists) {
			return err
		}
		errutil.LogError(s.logger, "account create failed", err)
		return oops.Code("AUTH_REGISTER_FAILED").With("operation", "persist account").Wrap(err)
	}

	s.event("account registered", uname, true)
	return nil
}

// Authenticate verifies a credential and returns the owning username, or ""
// for every negative outcome: rate limited, unknown account, empty stored
// hash, mismatch, or persistence failure (logged). Legacy stored values are
// silently re-hashed on success before the call returns.
func (s *Service) Authenticate(ctx context.Context, usernameOrEmail, password, clientID string) string {
	if s.limiter.IsLimited(clientID) {
		s.event("login blocked: rate limited", usernameOrEmail, false)
		observability.RecordAuthAttempt("rate_limited")
		return ""
	}

	account := s.resolveAccount(ctx, usernameOrEmail)
	if account == nil {
		// Burn a verification anyway so unknown usernames cost the same.
		s.hasher.Verify(password, dummyPasswordHash)
		s.limiter.RecordFailure(clientID)
		s.event("login failed: unknown account", usernameOrEmail, false)
		observability.RecordAuthAttempt("unknown_account")
		return ""
	}

	// Empty hash is the "no password set" sentinel; it never authenticates
	// through this path.
	if account.PasswordHash == "" {
		s.limiter.RecordFailure(clientID)
		s.event("login failed: no password set", account.Username, false)
		observability.RecordAuthAttempt("no_password")
		return ""
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		s.limiter.RecordFailure(clientID)
		if s.limiter.IsLimited(clientID) {
			observability.RecordLockout()
		}
		s.event("login failed: bad credentials", account.Username, false)
		observability.RecordAuthAttempt("bad_credentials")
		return ""
	}

	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		s.upgradeCredential(ctx, account.Username, password)
	}

	s.limiter.Clear(clientID)
	s.event("login succeeded", account.Username, true)
	observability.RecordAuthAttempt("success")
	return account.Username
}

// ChangePassword validates and hashes the new password, persists it, then
// invalidates every session for the username so all other devices must
// re-authenticate.
func (s *Service) ChangePassword(ctx context.Context, username, newPassword string) error {
	if _, err := ValidatePassword(newPassword); err != nil {
		s.event("password change rejected", username, false)
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.event("password change failed", username, false)
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "hash password").Wrap(err)
	}

	if err := s.accounts.UpdatePassword(ctx, username, hash); err != nil {
		s.event("password change failed", username, false)
		if errors.Is(err, ErrNotFound) {
			return err
		}
		errutil.LogError(s.logger, "password update failed", err)
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "persist password").Wrap(err)
	}

	// Cascade: force re-authentication everywhere the account is signed in.
	if err := s.sessions.DeleteByUsername(ctx, username); err != nil {
		errutil.LogError(s.logger, "session cascade invalidation failed", err)
		s.event("password changed, session invalidation failed", username, false)
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "invalidate sessions").Wrap(err)
	}

	s.event("password changed", username, true)
	return nil
}

// CreateSession issues a new session token for the username, or "" if the
// identity does not resolve to an existing account or persistence fails
// (logged). A missing account is a legitimate negative, not an error.
func (s *Service) CreateSession(ctx context.Context, username string) string {
	if _, err := s.accounts.GetByUsername(ctx, username); err != nil {
		if !errors.Is(err, ErrNotFound) {
			errutil.LogError(s.logger, "account lookup failed", err)
		}
		s.event("session create refused: unknown account", username, false)
		return ""
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		errutil.LogError(s.logger, "session token generation failed", err)
		s.event("session create failed", username, false)
		return ""
	}

	session, err := NewSession(username, tokenHash, s.now().Add(s.sessionTimeout))
	if err != nil {
		errutil.LogError(s.logger, "session construction failed", err)
		s.event("session create failed", username, false)
		return ""
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		errutil.LogError(s.logger, "session persist failed", err)
		s.event("session create failed", username, false)
		return ""
	}

	s.event("session created", username, true)
	return token
}

// ValidateSession resolves a session token to its owning username and, as a
// side effect, extends the expiry by the session timeout (sliding
// expiration). Returns "" for missing, malformed, or expired tokens; expired
// rows are left for the sweep.
func (s *Service) ValidateSession(ctx context.Context, token string) string {
	if len(token) != SessionTokenBytes*2 {
		return ""
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			errutil.LogError(s.logger, "session lookup failed", err)
		}
		return ""
	}

	now := s.now()
	if session.IsExpiredAt(now) {
		return ""
	}

	// Best effort: validation succeeds even if the extension write fails.
	if err := s.sessions.UpdateExpiry(ctx, session.ID, now.Add(s.sessionTimeout), now); err != nil {
		errutil.LogError(s.logger, "session expiry extension failed", err)
	}

	return session.Username
}

// InvalidateSession deletes the session for the given token. Idempotent:
// invalidating an absent or already-invalidated token is a no-op.
func (s *Service) InvalidateSession(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.DeleteByTokenHash(ctx, HashSessionToken(token)); err != nil {
		errutil.LogError(s.logger, "session invalidation failed", err)
		return
	}
	s.event("session invalidated", "", true)
}

// InvalidateAllSessions deletes every session owned by the username.
func (s *Service) InvalidateAllSessions(ctx context.Context, username string) {
	if err := s.sessions.DeleteByUsername(ctx, username); err != nil {
		errutil.LogError(s.logger, "session invalidation failed", err)
		s.event("all sessions invalidated", username, false)
		return
	}
	s.event("all sessions invalidated", username, true)
}

// SweepExpired deletes all expired session rows and returns the count.
// Intended to run periodically (see Sweeper), not on every request.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").Wrap(err)
	}
	if count > 0 {
		observability.RecordSessionsSwept(count)
	}
	return count, nil
}

// IsRateLimited reports whether the identifier is currently locked out.
func (s *Service) IsRateLimited(clientID string) bool {
	return s.limiter.IsLimited(clientID)
}

// RemainingLockoutSeconds returns the seconds left on an identifier's
// lockout, rounded up so callers can show a countdown that only reaches
// zero when the lockout has actually elapsed.
func (s *Service) RemainingLockoutSeconds(clientID string) int64 {
	remaining := s.limiter.RemainingLockout(clientID)
	if remaining <= 0 {
		return 0
	}
	return int64((remaining + time.Second - 1) / time.Second)
}

// resolveAccount maps a username-or-email to an account. Values containing a
// domain-style "@" are looked up by email first, falling back to username.
// Returns nil for not-found and for persistence failures (logged).
func (s *Service) resolveAccount(ctx context.Context, usernameOrEmail string) *Account {
	if strings.Contains(usernameOrEmail, "@") {
		account, err := s.accounts.GetByEmail(ctx, usernameOrEmail)
		if err == nil {
			return account
		}
		if !errors.Is(err, ErrNotFound) {
			errutil.LogError(s.logger, "account lookup by email failed", err)
			return nil
		}
	}

	account, err := s.accounts.GetByUsername(ctx, usernameOrEmail)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			errutil.LogError(s.logger, "account lookup failed", err)
		}
		return nil
	}
	return account
}

// upgradeCredential re-hashes a legacy stored value with the current
// algorithm and persists it. Best effort: authentication succeeds either way.
func (s *Service) upgradeCredential(ctx context.Context, username, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogError(s.logger, "credential upgrade hash failed", err)
		return
	}
	if err := s.accounts.UpdatePassword(ctx, username, newHash); err != nil {
		errutil.LogError(s.logger, "credential upgrade persist failed", err)
		return
	}
	s.event("credential upgraded", username, true)
}

// event emits one structured security-event record. Events are pure
// observations; they never alter control flow.
func (s *Service) event(description, subject string, success bool) {
	if subject == "" {
		subject = "unknown"
	}
	s.logger.Info("security event",
		slog.String("event", description),
		slog.String("subject", subject),
		slog.Bool("success", success),
	)
}
