package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"roastreel/internal/config"
	"roastreel/internal/history"
	"roastreel/internal/logging"
	"roastreel/internal/mediastore"
	"roastreel/internal/notifications"
	"roastreel/internal/pipeline"
)

// Daemon owns the long-running services and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	orchestrator *pipeline.Orchestrator
	store        mediastore.Store
	ledger       *history.Store

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StoreDir     string
	LockFilePath string
	Sessions     int
}

// New constructs a daemon with initialized dependencies. The history ledger
// may be nil.
func New(cfg *config.Config, orchestrator *pipeline.Orchestrator, store mediastore.Store, ledger *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || orchestrator == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, orchestrator, media store, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "roastreeld.lock")
	d := &Daemon{
		cfg:          cfg,
		logger:       logger,
		orchestrator: orchestrator,
		store:        store,
		ledger:       ledger,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another roastreel daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			_ = d.lock.Unlock()
			cancel()
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("roastreel daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("roastreel daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.ledger != nil {
		return d.ledger.Close()
	}
	return nil
}

// Orchestrator exposes the pipeline orchestrator to the API layer.
func (d *Daemon) Orchestrator() *pipeline.Orchestrator {
	return d.orchestrator
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StoreDir:     d.cfg.Paths.StoreDir,
		LockFilePath: d.lockPath,
		Sessions:     len(d.orchestrator.Sessions()),
	}
}
