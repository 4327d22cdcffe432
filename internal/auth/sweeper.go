// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the Sweeper runs when no interval is
// configured.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes expired session rows and idle rate-limiter
// entries. Both cleanups deliberately share one timer; neither needs its own
// scheduler. Call Close to stop the goroutine and release resources.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSweeper creates a Sweeper for the given service. A non-positive
// interval selects DefaultSweepInterval.
func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (sw *Sweeper) Start() {
	sw.wg.Add(1)
	go sw.loop()
}

// Sweep runs one maintenance pass immediately. Called automatically by the
// background loop, but usable on its own (the CLI sweep command does).
func (sw *Sweeper) Sweep(ctx context.Context) {
	count, err := sw.service.SweepExpired(ctx)
	if err != nil {
		sw.logger.Error("expired session sweep failed", "error", err)
	} else if count > 0 {
		sw.logger.Info("expired sessions removed", "count", count)
	}

	sw.service.limiter.Cleanup()
}

// Close stops the background loop and blocks until it has exited.
func (sw *Sweeper) Close() {
	close(sw.stopChan)
	sw.wg.Wait()
}

func (sw *Sweeper) loop() {
	defer sw.wg.Done()

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sw.stopChan:
			return
		case <-ticker.C:
			sw.Sweep(context.Background())
		}
	}
}
