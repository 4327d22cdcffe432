// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

// Package auth implements the authentication and session-security subsystem
// of GradeVault.
//
// # Domain Types
//
// Domain types (Account, Session) should be created using their respective
// constructors:
//   - NewAccount - creates an Account with a validated username, hash, and email
//   - NewSession - creates a Session with a validated owner, token hash, and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Service
//
// Service coordinates the subsystem: account registration, authentication
// with rate limiting and silent credential upgrade, password changes with
// cascading session invalidation, and the full session lifecycle
// (create/validate/invalidate/sweep). Every coordinator operation emits a
// structured security event through the configured slog.Logger; events are
// observations only and never alter control flow.
//
// The calling application (UI, reporting, export) is expected to treat this
// package as its single entry point for anything credential- or
// session-related.
package auth
