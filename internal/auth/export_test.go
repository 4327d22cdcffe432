// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth

import "time"

// SetNow overrides the limiter's clock for deterministic tests.
func (rl *RateLimiter) SetNow(now func() time.Time) {
	rl.now = now
}

// SetServiceNow overrides the service's clock for deterministic tests.
func (s *Service) SetServiceNow(now func() time.Time) {
	s.now = now
}
