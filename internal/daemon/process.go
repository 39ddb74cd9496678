package daemon

import (
	"context"
	"errors"
	"os"
	"sort"
	"time"

	"driftclean/internal/detect"
	"driftclean/internal/logging"
	"driftclean/internal/recovery"
)

// processPending acts on every pending entry whose debounce window has
// elapsed. Ready entries are collected first so the map can be mutated
// freely during processing.
func (d *Daemon) processPending(ctx context.Context) error {
	now := time.Now()
	var ready []pendingDelete
	for _, entry := range d.pending {
		if !entry.readyAt.After(now) {
			ready = append(ready, entry)
		}
	}
	if len(ready) == 0 {
		return nil
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].det.Path < ready[j].det.Path
	})

	for _, entry := range ready {
		delete(d.pending, entry.det.Path)
		if err := d.processOne(ctx, entry.det); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			d.stats.errors++
			d.logger.Error("processing failed",
				logging.String(logging.FieldModule, entry.det.Module),
				logging.String(logging.FieldPath, entry.det.Path),
				logging.Error(err))
		}
	}
	return nil
}

// processOne carries one detection through the verification, guard, sync
// gate, and removal stages. Only context errors are returned; everything
// else is handled locally so one bad file never stops the loop.
func (d *Daemon) processOne(ctx context.Context, det detect.DetectedFile) error {
	// The file may have been removed or renamed since detection. Re-verify
	// with the owning module so a stale queue entry cannot delete a path
	// that no longer qualifies.
	if _, err := os.Lstat(det.Path); err != nil {
		d.stats.skipped++
		d.logger.Debug("pending file vanished", logging.String(logging.FieldPath, det.Path))
		return nil
	}
	if !d.reclassify(det) {
		d.stats.skipped++
		d.logger.Info("no longer matches, skipping",
			logging.String(logging.FieldModule, det.Module),
			logging.String(logging.FieldPath, det.Path))
		return nil
	}

	if !d.guard.Allowed(det.Path) {
		d.stats.skipped++
		d.logger.Warn("path is protected, skipping",
			logging.String(logging.FieldPath, det.Path))
		return nil
	}

	if det.RecoveryEnabled {
		verdict, err := d.gate.AwaitSynced(ctx, det.Path)
		if err != nil {
			return err
		}
		if verdict.TimedOut {
			d.logger.Warn("sync wait timed out, proceeding",
				logging.String(logging.FieldPath, det.Path),
				logging.String("status", verdict.Status.String()))
		}
		if !verdict.Proceed() {
			d.stats.skipped++
			d.logger.Info("still syncing, deferring",
				logging.String(logging.FieldPath, det.Path))
			d.enqueue(det)
			return nil
		}
	}

	if d.dryRun {
		d.stats.skipped++
		d.logger.Info("dry run, would remove",
			logging.String(logging.FieldModule, det.Module),
			logging.String(logging.FieldPath, det.Path),
			logging.Bool("recoverable", det.RecoveryEnabled && d.store != nil))
		return nil
	}

	if det.RecoveryEnabled && d.store != nil {
		return d.recoverOne(ctx, det)
	}
	return d.removeDirect(det)
}

// reclassify re-runs the owning module's classifier. A detection whose
// module disappeared from the registry no longer qualifies.
func (d *Daemon) reclassify(det detect.DetectedFile) bool {
	for _, module := range d.registry.Modules() {
		if module.Name() != det.Module {
			continue
		}
		_, ok := module.Classify(det.Path)
		return ok
	}
	return false
}

// recoverOne moves a file to the trash store. The first failure re-queues
// the detection for one more attempt; a second failure drops it so the
// original stays untouched on disk.
func (d *Daemon) recoverOne(ctx context.Context, det detect.DetectedFile) error {
	_, err := d.store.Recover(ctx, det)
	if err == nil {
		delete(d.retried, det.Path)
		d.stats.recovered++
		d.stats.perModule(det.Module).Recovered++
		return nil
	}
	if !errors.Is(err, recovery.ErrRecoveryFailed) {
		return err
	}

	if _, already := d.retried[det.Path]; already {
		delete(d.retried, det.Path)
		d.stats.errors++
		d.logger.Error("recovery failed twice, leaving file in place",
			logging.String(logging.FieldPath, det.Path), logging.Error(err))
		return nil
	}

	d.retried[det.Path] = struct{}{}
	d.logger.Warn("recovery failed, will retry once",
		logging.String(logging.FieldPath, det.Path), logging.Error(err))
	d.enqueue(det)
	return nil
}

func (d *Daemon) removeDirect(det detect.DetectedFile) error {
	if err := os.RemoveAll(det.Path); err != nil {
		d.stats.errors++
		d.logger.Error("removal failed",
			logging.String(logging.FieldPath, det.Path), logging.Error(err))
		return nil
	}
	d.stats.deleted++
	d.stats.perModule(det.Module).Deleted++
	d.logger.Info("removed",
		logging.String(logging.FieldModule, det.Module),
		logging.String(logging.FieldPath, det.Path),
		logging.String(logging.FieldReason, det.Reason))
	return nil
}
