// Package worker runs the background janitor that sweeps expired
// authorization states out of storage.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/stagepay/partner-connect/internal/core/ports/driven"
)

// DefaultSweepInterval is how often expired states are swept.
const DefaultSweepInterval = 5 * time.Minute

// Janitor periodically removes expired OAuth states. The Postgres store
// needs this; the Redis store expires keys natively and its Cleanup is a
// no-op, so running the janitor against it is harmless.
type Janitor struct {
	states   driven.OAuthStateStore
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// JanitorConfig holds configuration for the janitor.
type JanitorConfig struct {
	StateStore driven.OAuthStateStore
	Interval   time.Duration
	Logger     *slog.Logger
}

// NewJanitor creates a new state janitor.
func NewJanitor(cfg JanitorConfig) *Janitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		states:   cfg.StateStore,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the sweep loop. It runs until Stop is called or the context
// is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	j.logger.Info("state janitor starting", "interval", j.interval)

	go j.loop(ctx)
}

// Stop gracefully stops the janitor.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopCh)
	j.mu.Unlock()

	<-j.doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()

	j.logger.Info("state janitor stopped")
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	start := time.Now()
	if err := j.states.Cleanup(ctx); err != nil {
		j.logger.Error("state sweep failed", "err", err)
		return
	}
	j.logger.Debug("state sweep completed", "duration", time.Since(start))
}
