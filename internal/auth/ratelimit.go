// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default rate limiting values.
const (
	// DefaultMaxAttempts is the number of in-window failures that triggers
	// a lockout.
	DefaultMaxAttempts = 5

	// DefaultWindow is the sliding window within which failures are counted.
	DefaultWindow = 15 * time.Minute

	// DefaultLockout is how long an identifier stays locked, measured from
	// its most recent failure.
	DefaultLockout = 30 * time.Minute
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// MaxAttempts is the failure threshold that triggers a lockout.
	// Defaults to DefaultMaxAttempts if zero or negative.
	MaxAttempts int

	// Window is the sliding counting window. Defaults to DefaultWindow.
	Window time.Duration

	// Lockout is the lockout duration, counted from the last failure.
	// Defaults to DefaultLockout. Typically longer than Window: an
	// identifier can age out of the counting window and still be locked.
	Lockout time.Duration
}

// failureRecord tracks failure timestamps for one identifier. Each record
// carries its own mutex so unrelated identifiers never serialize on a
// shared lock.
type failureRecord struct {
	mu sync.Mutex

	// failures holds timestamps within the window; pruned on every access.
	failures []time.Time

	// lastFailure is retained even after pruning; the lockout clock runs
	// from here.
	lastFailure time.Time

	// locked is set the moment the in-window count reaches the threshold
	// and survives window pruning until the lockout elapses.
	locked bool

	// gone marks a record removed from the map; writers that loaded it
	// concurrently must retry.
	gone bool
}

// RateLimiter is a sliding-window failure counter with lockout, keyed by an
// arbitrary caller-chosen identifier (client address, username, or a
// composite). It is safe for concurrent use; state is per-identifier and
// in-memory only.
//
// Stale identifiers are pruned on access; call Cleanup periodically (the
// Sweeper does) to also drop idle map entries.
type RateLimiter struct {
	records sync.Map // string -> *failureRecord

	maxAttempts int
	window      time.Duration
	lockout     time.Duration

	// now is swapped out by tests.
	now func() time.Time

	// identifierGauge tracks map size (nil if no registry provided).
	identifierGauge prometheus.Gauge
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return newRateLimiter(cfg, nil)
}

// NewRateLimiterWithRegistry creates a rate limiter and registers a tracked-
// identifier gauge with the provided Prometheus registry.
func NewRateLimiterWithRegistry(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	return newRateLimiter(cfg, reg)
}

func newRateLimiter(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	lockout := cfg.Lockout
	if lockout <= 0 {
		lockout = DefaultLockout
	}

	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
		now:         time.Now,
	}

	if reg != nil {
		rl.identifierGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gradevault_ratelimiter_identifiers",
			Help: "Current number of tracked rate limiter identifiers",
		})
		reg.MustRegister(rl.identifierGauge)
	}

	return rl
}

// IsLimited reports whether the identifier is currently locked out. An empty
// identifier is always limited (fail closed). Timestamps older than the
// window are pruned as a side effect.
func (rl *RateLimiter) IsLimited(id string) bool {
	if id == "" {
		return true
	}
	v, ok := rl.records.Load(id)
	if !ok {
		return false
	}
	rec := v.(*failureRecord)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.gone {
		return false
	}
	return rl.limitedLocked(rec)
}

// RecordFailure appends a failure timestamp for the identifier and prunes
// entries older than the window. An empty identifier is a no-op.
func (rl *RateLimiter) RecordFailure(id string) {
	if id == "" {
		return
	}
	for {
		v, _ := rl.records.LoadOrStore(id, &failureRecord{})
		rec := v.(*failureRecord)

		rec.mu.Lock()
		if rec.gone {
			// Lost a race with Clear/Cleanup; start over with a fresh record.
			rec.mu.Unlock()
			continue
		}

		now := rl.now()
		rec.failures = append(rec.failures, now)
		rec.lastFailure = now
		rl.pruneLocked(rec, now)
		if len(rec.failures) >= rl.maxAttempts {
			rec.locked = true
		}
		rec.mu.Unlock()
		return
	}
}

// Clear removes the identifier's failure state entirely. Used on successful
// authentication. An empty identifier is a no-op.
func (rl *RateLimiter) Clear(id string) {
	if id == "" {
		return
	}
	v, ok := rl.records.Load(id)
	if !ok {
		return
	}
	rec := v.(*failureRecord)

	rec.mu.Lock()
	rec.gone = true
	rec.mu.Unlock()
	rl.records.Delete(id)
}

// RemainingLockout returns how long the identifier stays locked, or zero if
// it is not locked.
func (rl *RateLimiter) RemainingLockout(id string) time.Duration {
	if id == "" {
		return 0
	}
	v, ok := rl.records.Load(id)
	if !ok {
		return 0
	}
	rec := v.(*failureRecord)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.gone || !rl.limitedLocked(rec) {
		return 0
	}
	remaining := rl.lockout - rl.now().Sub(rec.lastFailure)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Cleanup removes identifiers whose lockout has elapsed and whose failures
// have all aged out of the window. Pruning on access already bounds each
// record; this bounds the map itself.
func (rl *RateLimiter) Cleanup() {
	count := 0
	rl.records.Range(func(key, value any) bool {
		rec := value.(*failureRecord)
		rec.mu.Lock()
		rl.pruneLocked(rec, rl.now())
		idle := len(rec.failures) == 0 && !rl.limitedLocked(rec)
		if idle {
			rec.gone = true
		}
		rec.mu.Unlock()

		if idle {
			rl.records.Delete(key)
		} else {
			count++
		}
		return true
	})

	if rl.identifierGauge != nil {
		rl.identifierGauge.Set(float64(count))
	}
}

// IdentifierCount returns the number of tracked identifiers. Useful for
// testing and monitoring.
func (rl *RateLimiter) IdentifierCount() int {
	count := 0
	rl.records.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// limitedLocked evaluates lockout state. Caller holds rec.mu.
//
// The locked flag outlives window pruning: an identifier can show zero
// countable in-window failures and still be limited, because the lockout
// clock runs from the last failure, not from window membership.
func (rl *RateLimiter) limitedLocked(rec *failureRecord) bool {
	now := rl.now()
	rl.pruneLocked(rec, now)

	if len(rec.failures) >= rl.maxAttempts {
		rec.locked = true
	}
	if !rec.locked {
		return false
	}
	if now.Sub(rec.lastFailure) >= rl.lockout {
		rec.locked = false
		return false
	}
	return true
}

// pruneLocked drops timestamps older than the window. Caller holds rec.mu.
func (rl *RateLimiter) pruneLocked(rec *failureRecord, now time.Time) {
	cutoff := now.Add(-rl.window)
	kept := rec.failures[:0]
	for _, t := range rec.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	rec.failures = kept
}
