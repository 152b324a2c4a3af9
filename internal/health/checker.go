// Package health provides automated health checks with auto-recovery.
// Checks run every 60 seconds: store connectivity, data-directory presence, and a
// derived-stats invariant scan that repairs violations via a full
// recompute.
package health

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/stride-labs/stride/internal/app/completion"
	"github.com/stride-labs/stride/internal/infra/metrics"
	"github.com/stride-labs/stride/internal/infra/sqlite"
)

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// NewChecker creates a health checker with the standard checks.
func NewChecker(db *sqlite.DB, dataDir string, commits *completion.Service) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		checks: []Check{
			{
				Name: "sqlite",
				CheckFn: func(ctx context.Context) error {
					return db.Ping()
				},
				RecoverFn: func(ctx context.Context) error {
					return nil // SQLite auto-recovers via WAL
				},
			},
			{
				Name: "data_dir",
				CheckFn: func(ctx context.Context) error {
					return checkDataDir(dataDir)
				},
				RecoverFn: func(ctx context.Context) error {
					return nil // manual cleanup
				},
			},
			{
				Name: "streak_invariants",
				CheckFn: func(ctx context.Context) error {
					broken, err := db.ListBrokenInvariants()
					if err != nil {
						return err
					}
					if len(broken) > 0 {
						return fmt.Errorf("%d habit(s) with longest_streak < current_streak", len(broken))
					}
					return nil
				},
				RecoverFn: func(ctx context.Context) error {
					broken, err := db.ListBrokenInvariants()
					if err != nil {
						return err
					}
					for _, h := range broken {
						metrics.InvariantViolations.Inc()
						log.Printf("[health] ERROR: invariant violation on habit %s — repairing", h.ID)
						if _, err := commits.Recalculate(ctx, h.ID); err != nil {
							return fmt.Errorf("repair habit %s: %w", h.ID, err)
						}
					}
					return nil
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

// runAll executes every check, attempting recovery on failure.
func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, 0, len(c.checks))
	for _, check := range c.checks {
		err := check.CheckFn(ctx)
		if err != nil && check.RecoverFn != nil {
			if rerr := check.RecoverFn(ctx); rerr != nil {
				log.Printf("[health] %s: recovery failed: %v", check.Name, rerr)
			} else {
				err = check.CheckFn(ctx) // re-check after recovery
			}
		}
		st := Status{Name: check.Name, Healthy: err == nil, CheckedAt: time.Now()}
		if err != nil {
			st.Error = err.Error()
		}
		statuses = append(statuses, st)
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the most recent check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Status, len(c.statuses))
	copy(out, c.statuses)
	return out
}

// Healthy reports whether every check passed on the last run.
func (c *Checker) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// checkDataDir verifies the data directory is present and writable.
func checkDataDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Not created yet, that's fine
		}
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
