package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"driftclean/internal/config"
	"driftclean/internal/detect"
	"driftclean/internal/logging"
	"driftclean/internal/pathguard"
	"driftclean/internal/recovery"
	"driftclean/internal/scanner"
	"driftclean/internal/syncgate"
	"driftclean/internal/watcher"
)

// State is the daemon lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// pendingDelete is one debounced detection awaiting action.
type pendingDelete struct {
	det     detect.DetectedFile
	readyAt time.Time
}

// Daemon owns the detection-to-deletion pipeline.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *detect.Registry
	scanner  *scanner.Scanner
	gate     *syncgate.Gate
	guard    *pathguard.Guard
	store    *recovery.Store // nil when recovery is disabled
	dryRun   bool

	lockPath string
	lock     *flock.Flock

	state atomic.Int32

	// pending is only ever touched from the Run loop; no lock needed.
	pending map[string]pendingDelete
	// retried tracks paths whose recovery already failed once.
	retried map[string]struct{}

	stats counters
}

// Options carries the collaborators the daemon orchestrates.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *detect.Registry
	Scanner  *scanner.Scanner
	Gate     *syncgate.Gate
	Guard    *pathguard.Guard
	Store    *recovery.Store
	DryRun   bool
}

// New constructs a daemon with initialized dependencies.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Registry == nil || opts.Scanner == nil || opts.Gate == nil || opts.Guard == nil {
		return nil, errors.New("daemon requires config, registry, scanner, gate, and guard")
	}
	if opts.Config.Daemon.WaitBeforeDelete <= 0 {
		return nil, errors.New("refusing to start with non-positive wait_before_delete")
	}

	lockPath := filepath.Join(opts.Config.Logging.Directory, "driftclean.lock")
	return &Daemon{
		cfg:      opts.Config,
		logger:   logging.NewComponentLogger(opts.Logger, "daemon"),
		registry: opts.Registry,
		scanner:  opts.Scanner,
		gate:     opts.Gate,
		guard:    opts.Guard,
		store:    opts.Store,
		dryRun:   opts.DryRun,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		pending:  make(map[string]pendingDelete),
		retried:  make(map[string]struct{}),
	}, nil
}

// State returns the current lifecycle phase.
func (d *Daemon) State() State {
	return State(d.state.Load())
}

// Stats returns a snapshot of the run counters.
func (d *Daemon) Stats() Stats {
	return d.stats.snapshot()
}

// Run executes the daemon until ctx is cancelled, then drains and stops.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("daemon is %s, not idle", d.State())
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		d.state.Store(int32(StateStopped))
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		d.state.Store(int32(StateStopped))
		return errors.New("another driftclean instance is already running")
	}
	defer func() {
		if unlockErr := d.lock.Unlock(); unlockErr != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(unlockErr))
		}
	}()

	w, err := watcher.New(d.cfg.WatchDirectories, d.registry.Watchable(), d.logger)
	if err != nil {
		d.state.Store(int32(StateStopped))
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		d.state.Store(int32(StateStopped))
		return fmt.Errorf("start watcher: %w", err)
	}

	d.logger.Info("daemon started",
		logging.String("modules", strings.Join(d.registry.Names(), ",")),
		logging.Bool("dry_run", d.dryRun),
		logging.String("lock", d.lockPath))

	// Initial sweep so pre-existing conflicts are queued right away.
	d.enqueueAll(d.scanner.ScanAll())

	scanTick := time.NewTicker(time.Duration(d.cfg.Daemon.ScanInterval) * time.Second)
	processTick := time.NewTicker(time.Duration(d.cfg.Daemon.ProcessInterval) * time.Second)
	sweepTick := time.NewTicker(retentionSweepInterval)
	defer scanTick.Stop()
	defer processTick.Stop()
	defer sweepTick.Stop()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case det, ok := <-w.Detections():
			if !ok {
				break loop
			}
			d.enqueue(det)
		case <-scanTick.C:
			d.enqueueAll(d.scanner.ScanAll())
		case <-processTick.C:
			if err := d.processPending(ctx); err != nil {
				runErr = err
				break loop
			}
		case <-sweepTick.C:
			d.sweepRetention(ctx)
		}
	}

	d.drain(w)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// retentionSweepInterval is how often expired recovery entries are purged.
// Retention is measured in days, so an hourly cadence is plenty.
const retentionSweepInterval = time.Hour

// RunOnce performs a single scan-and-process cycle plus a retention sweep.
func (d *Daemon) RunOnce(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("daemon is %s, not idle", d.State())
	}
	defer d.state.Store(int32(StateStopped))

	detected := d.scanner.ScanAll()
	d.enqueueAll(detected)

	// Recovery-eligible detections still honor the debounce window so the
	// sync agent can settle; direct removals proceed immediately.
	if d.anyPendingRecoverable() {
		wait := time.Duration(d.cfg.Daemon.WaitBeforeDelete) * time.Second
		d.logger.Info("waiting debounce window before processing", logging.Duration("wait", wait))
		select {
		case <-ctx.Done():
			d.flushPending()
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	for path, entry := range d.pending {
		entry.readyAt = time.Now()
		d.pending[path] = entry
	}
	if err := d.processPending(ctx); err != nil {
		d.flushPending()
		return err
	}

	d.sweepRetention(ctx)
	d.logStats()
	return nil
}

func (d *Daemon) anyPendingRecoverable() bool {
	for _, entry := range d.pending {
		if entry.det.RecoveryEnabled {
			return true
		}
	}
	return false
}

// enqueue adds a watcher-originated detection to the pending set. The file
// just changed, so a re-detection of a pending path restarts its wait window.
func (d *Daemon) enqueue(det detect.DetectedFile) {
	d.admit(det, true)
}

// enqueueAll adds scan-originated detections. A periodic scan re-reports
// every candidate that is still on disk, so an already-pending path keeps
// its original deadline; refreshing here would postpone deletion forever
// whenever the scan interval is shorter than the wait window.
func (d *Daemon) enqueueAll(detected []detect.DetectedFile) {
	for _, det := range detected {
		d.admit(det, false)
	}
}

func (d *Daemon) admit(det detect.DetectedFile, refresh bool) {
	if d.State() != StateRunning {
		return
	}
	if existing, ok := d.pending[det.Path]; ok {
		if refresh {
			existing.det = det
			existing.readyAt = det.DetectedAt.Add(time.Duration(d.cfg.Daemon.WaitBeforeDelete) * time.Second)
			d.pending[det.Path] = existing
		}
		return
	}
	d.pending[det.Path] = pendingDelete{
		det:     det,
		readyAt: det.DetectedAt.Add(time.Duration(d.cfg.Daemon.WaitBeforeDelete) * time.Second),
	}
	d.stats.detected++
	d.logger.Info("queued for cleanup",
		logging.String(logging.FieldModule, det.Module),
		logging.String(logging.FieldPath, det.Path),
		logging.String(logging.FieldReason, det.Reason))
}

// drain stops intake, releases the watch subscription, flushes the pending
// map, and moves the daemon to its terminal state.
func (d *Daemon) drain(w *watcher.Watcher) {
	d.state.Store(int32(StateDraining))
	d.logger.Info("draining")
	w.Stop()
	d.flushPending()
	d.state.Store(int32(StateStopped))
	d.logStats()
}

func (d *Daemon) flushPending() {
	if len(d.pending) > 0 {
		d.logger.Debug("discarding pending entries", logging.Int("count", len(d.pending)))
	}
	d.pending = make(map[string]pendingDelete)
}

func (d *Daemon) sweepRetention(ctx context.Context) {
	if d.store == nil || d.dryRun {
		return
	}
	removed, err := d.store.SweepExpired(ctx, time.Now())
	if err != nil {
		d.logger.Error("retention sweep failed", logging.Error(err))
		return
	}
	if removed > 0 {
		d.logger.Info("expired recovery entries purged", logging.Int("count", removed))
	}
}

func (d *Daemon) logStats() {
	stats := d.stats.snapshot()
	d.logger.Info("daemon stopped",
		logging.Int("detected", stats.Detected),
		logging.Int("recovered", stats.Recovered),
		logging.Int("deleted", stats.Deleted),
		logging.Int("skipped", stats.Skipped),
		logging.Int("errors", stats.Errors))
}
