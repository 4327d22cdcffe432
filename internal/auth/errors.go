// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account or session does not exist.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when an account with the same username or email
// already exists.
var ErrExists = errors.New("already exists")
