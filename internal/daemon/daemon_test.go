package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"driftclean/internal/config"
	"driftclean/internal/detect"
	"driftclean/internal/logging"
	"driftclean/internal/pathguard"
	"driftclean/internal/recovery"
	"driftclean/internal/scanner"
	"driftclean/internal/syncgate"
	"driftclean/internal/testsupport"
)

// openTestStore opens a recovery store rooted at the config's recovery
// directory and closes it when the test finishes.
func openTestStore(t testing.TB, cfg *config.Config) *recovery.Store {
	t.Helper()

	store, err := recovery.Open(cfg.Recovery.Directory, cfg.Recovery.RetentionDays, logging.NewNop())
	if err != nil {
		t.Fatalf("open recovery store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close recovery store: %v", err)
		}
	})
	return store
}

// syncedOracle reports every file as fully synced.
type syncedOracle struct{}

func (syncedOracle) Check(ctx context.Context, path string) syncgate.Status {
	return syncgate.StatusSynced
}

type daemonEnv struct {
	cfg    *config.Config
	root   string
	store  *recovery.Store
	daemon *Daemon
}

func newDaemonEnv(t *testing.T, dryRun bool) *daemonEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	root := cfg.WatchDirectories[0]
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	logger := logging.NewNop()
	registry, err := detect.NewRegistry(cfg, logger)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	store := openTestStore(t, cfg)

	d, err := New(Options{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Scanner:  scanner.New(registry, logger),
		Gate:     syncgate.NewGate(cfg, syncedOracle{}, logger),
		Guard:    pathguard.NewWithHome(filepath.Dir(root)),
		Store:    store,
		DryRun:   dryRun,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &daemonEnv{cfg: cfg, root: root, store: store, daemon: d}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
}

func TestNewRejectsZeroDebounce(t *testing.T) {
	env := newDaemonEnv(t, false)
	env.cfg.Daemon.WaitBeforeDelete = 0

	logger := logging.NewNop()
	registry, err := detect.NewRegistry(env.cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(Options{
		Config:   env.cfg,
		Logger:   logger,
		Registry: registry,
		Scanner:  scanner.New(registry, logger),
		Gate:     syncgate.NewGate(env.cfg, syncedOracle{}, logger),
		Guard:    pathguard.New(),
	})
	if err == nil {
		t.Fatal("expected error for non-positive debounce")
	}
}

func TestRunOnceRecoversConflicts(t *testing.T) {
	env := newDaemonEnv(t, false)

	duplicate := testsupport.WriteConflictPair(t, env.root, "thesis", 2, ".docx")
	original := filepath.Join(env.root, "thesis.docx")

	if err := env.daemon.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if _, err := os.Stat(duplicate); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("duplicate should be moved to trash")
	}
	if _, err := os.Stat(original); err != nil {
		t.Fatalf("original must stay untouched: %v", err)
	}

	entry, err := env.store.FindByOriginal(context.Background(), duplicate)
	if err != nil {
		t.Fatalf("FindByOriginal: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a recovery entry for the duplicate")
	}

	stats := env.daemon.Stats()
	if stats.Detected != 1 || stats.Recovered != 1 {
		t.Fatalf("stats = %+v, want 1 detected and 1 recovered", stats)
	}
	if ms := stats.ByModule[detect.ConflictsModuleName]; ms.Recovered != 1 {
		t.Fatalf("per-module stats = %+v, want 1 recovered", ms)
	}
}

func TestRunOnceDeletesCachesOutright(t *testing.T) {
	env := newDaemonEnv(t, false)

	cache := filepath.Join(env.root, "node_modules")
	testsupport.WriteFile(t, filepath.Join(cache, "pkg", "index.js"), "code")

	if err := env.daemon.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if _, err := os.Stat(cache); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("cache directory should be deleted outright")
	}
	entries, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cache deletion must not create recovery entries, got %d", len(entries))
	}

	stats := env.daemon.Stats()
	if stats.Deleted != 1 {
		t.Fatalf("stats = %+v, want 1 deleted", stats)
	}
}

func TestRunOnceDryRunMutatesNothing(t *testing.T) {
	env := newDaemonEnv(t, true)

	duplicate := testsupport.WriteConflictPair(t, env.root, "photo", 3, ".jpg")
	cache := filepath.Join(env.root, "__pycache__")
	testsupport.WriteFile(t, filepath.Join(cache, "mod.pyc"), "bytecode")

	if err := env.daemon.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if _, err := os.Stat(duplicate); err != nil {
		t.Fatalf("dry run must not move the duplicate: %v", err)
	}
	if _, err := os.Stat(cache); err != nil {
		t.Fatalf("dry run must not delete the cache: %v", err)
	}

	stats := env.daemon.Stats()
	if stats.Detected != 2 {
		t.Fatalf("stats = %+v, want 2 detected", stats)
	}
	if stats.Recovered != 0 || stats.Deleted != 0 {
		t.Fatalf("stats = %+v, want zero mutations", stats)
	}
	if stats.Skipped != 2 {
		t.Fatalf("stats = %+v, want 2 skipped", stats)
	}
}

func TestScanRedetectionKeepsDeadline(t *testing.T) {
	env := newDaemonEnv(t, false)
	d := env.daemon
	d.state.Store(int32(StateRunning))

	det := detect.DetectedFile{
		Path:       filepath.Join(env.root, "report 2.txt"),
		Module:     detect.ConflictsModuleName,
		DetectedAt: time.Now(),
	}
	d.enqueueAll([]detect.DetectedFile{det})
	first := d.pending[det.Path].readyAt

	// A later periodic scan re-reports the same still-present file; its
	// deadline must not move.
	rescan := det
	rescan.DetectedAt = det.DetectedAt.Add(time.Minute)
	d.enqueueAll([]detect.DetectedFile{rescan})
	if got := d.pending[det.Path].readyAt; !got.Equal(first) {
		t.Fatalf("rescan moved readyAt from %v to %v", first, got)
	}

	// A watcher event means the file changed again, so the window restarts.
	d.enqueue(rescan)
	if got := d.pending[det.Path].readyAt; !got.After(first) {
		t.Fatalf("watcher re-detection should restart the wait window, readyAt = %v", got)
	}

	if d.stats.detected != 1 {
		t.Fatalf("detected = %d, want 1 for a single path", d.stats.detected)
	}
}

func TestRunProcessesDespitePeriodicRescans(t *testing.T) {
	env := newDaemonEnv(t, false)
	// Scan interval (1s) shorter than the wait window: rescans land inside
	// the window and must not postpone the deletion.
	env.cfg.Daemon.WaitBeforeDelete = 2

	duplicate := testsupport.WriteConflictPair(t, env.root, "ledger", 2, ".csv")
	original := filepath.Join(env.root, "ledger.csv")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- env.daemon.Run(ctx) }()

	// The wait window holds: nothing is removed before it elapses.
	time.Sleep(1200 * time.Millisecond)
	if _, err := os.Stat(duplicate); err != nil {
		t.Fatalf("duplicate removed before the wait window elapsed: %v", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for {
		if _, err := os.Stat(duplicate); errors.Is(err, os.ErrNotExist) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("duplicate still present; rescans kept postponing the deletion")
		}
		time.Sleep(100 * time.Millisecond)
	}
	if _, err := os.Stat(original); err != nil {
		t.Fatalf("original must stay untouched: %v", err)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if env.daemon.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", env.daemon.State())
	}
	if got := env.daemon.Stats().Detected; got != 1 {
		t.Fatalf("detected = %d, want 1 despite repeated scans", got)
	}
}

func TestRunOnceSkipsVanishedFiles(t *testing.T) {
	env := newDaemonEnv(t, false)

	duplicate := testsupport.WriteConflictPair(t, env.root, "memo", 2, ".txt")
	// The user resolved the conflict by deleting the original, so the
	// duplicate no longer qualifies.
	if err := os.Remove(filepath.Join(env.root, "memo.txt")); err != nil {
		t.Fatal(err)
	}

	if err := env.daemon.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if _, err := os.Stat(duplicate); err != nil {
		t.Fatalf("duplicate must stay when it no longer classifies: %v", err)
	}
}

func TestRunOnceTwiceFails(t *testing.T) {
	env := newDaemonEnv(t, false)

	if err := env.daemon.RunOnce(context.Background()); err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}
	if err := env.daemon.RunOnce(context.Background()); err == nil {
		t.Fatal("a stopped daemon must not run again")
	}
	if env.daemon.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", env.daemon.State())
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateIdle:     "idle",
		StateRunning:  "running",
		StateDraining: "draining",
		StateStopped:  "stopped",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
