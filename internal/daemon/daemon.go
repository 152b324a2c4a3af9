package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stride-labs/stride/internal/api"
	"github.com/stride-labs/stride/internal/app/completion"
	"github.com/stride-labs/stride/internal/app/forgiveness"
	"github.com/stride-labs/stride/internal/app/timeline"
	"github.com/stride-labs/stride/internal/health"
	_ "github.com/stride-labs/stride/internal/infra/metrics" // Register Prometheus metrics
	"github.com/stride-labs/stride/internal/infra/sqlite"
)

// Daemon is the core Stride runtime. It wires together all services.
type Daemon struct {
	Config  Config
	DB      *sqlite.DB
	Commits *completion.Service
	Pass    *forgiveness.Scheduler
	Server  *api.Server
	Health  *health.Checker
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	dir := cfg.Store.Dir
	if dir == "" {
		dir = strideHome()
	}
	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	clock := timeline.SystemClock{}
	commits := completion.NewService(db, clock, nil)
	pass := forgiveness.NewScheduler(db, clock, nil)

	srv := api.NewServer(db, commits, pass)
	if cfg.Server.Metrics {
		srv.EnableMetrics()
	}

	checker := health.NewChecker(db, dir, commits)
	srv.SetHealth(checker)

	return &Daemon{
		Config:  cfg,
		DB:      db,
		Commits: commits,
		Pass:    pass,
		Server:  srv,
		Health:  checker,
	}, nil
}

// Serve runs the HTTP server, health loop, and forgiveness loop until the
// context is cancelled or a shutdown signal arrives.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	go d.Health.Run(ctx)
	if d.Config.Forgiveness.Enabled {
		go d.forgivenessLoop(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.Server.Host, d.Config.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           d.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on http://%s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	case sig := <-sigCh:
		log.Printf("[daemon] received %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	return nil
}

// forgivenessLoop fires the daily pass once the reference-zone wall clock
// crosses the configured run_at time, at most once per calendar day.
func (d *Daemon) forgivenessLoop(ctx context.Context) {
	loc := timeline.Zone(d.Config.Forgiveness.Timezone)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	var lastRunDay string
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			local := now.In(loc)
			day := local.Format("2006-01-02")
			if day == lastRunDay || local.Format("15:04") < d.Config.Forgiveness.RunAt {
				continue
			}
			lastRunDay = day

			summary, err := d.Pass.RunDailyPass(ctx, now)
			if err != nil {
				log.Printf("[daemon] forgiveness pass failed: %v", err)
				continue
			}
			log.Printf("[daemon] forgiveness pass: protected=%d tokens=%d notified=%d",
				summary.HabitsProtected, summary.TokensUsed, summary.NotificationsSent)
		}
	}
}

// Close releases daemon resources.
func (d *Daemon) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	return d.DB.Close()
}
