package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"driftclean/internal/detect"
	"driftclean/internal/logging"
)

// settleDelay is how long a path must stay quiet before classification.
// Sync agents frequently write a file and immediately rename it; acting on
// the first event would classify a half-written state.
const settleDelay = 500 * time.Millisecond

// detectionBuffer bounds the channel to the daemon. When the daemon falls
// behind, new detections are dropped with a warning; the periodic scan will
// pick them up again.
const detectionBuffer = 256

// Watcher subscribes to filesystem notifications for the watch roots.
type Watcher struct {
	roots   []string
	modules []detect.Module
	logger  *slog.Logger

	fsw        *fsnotify.Watcher
	detections chan detect.DetectedFile
	done       chan struct{}
	wg         sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// New builds a watcher over the given roots routing events through the
// watch-capable modules.
func New(roots []string, modules []detect.Module, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		roots:      roots,
		modules:    modules,
		logger:     logging.NewComponentLogger(logger, "watcher"),
		fsw:        fsw,
		detections: make(chan detect.DetectedFile, detectionBuffer),
		done:       make(chan struct{}),
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Detections returns the channel of coalesced detections. It is closed when
// the watcher stops.
func (w *Watcher) Detections() <-chan detect.DetectedFile {
	return w.detections
}

// Start subscribes to the watch roots and begins processing events.
func (w *Watcher) Start() error {
	for _, root := range w.roots {
		if _, err := os.Stat(root); err != nil {
			w.logger.Warn("watch root does not exist", logging.String(logging.FieldPath, root))
			continue
		}
		if err := w.addRecursive(root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		w.logger.Info("watching directory", logging.String(logging.FieldPath, root))
	}

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop cancels pending classifications, closes the subscription, and closes
// the detections channel once in-flight work has drained.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.done)
	_ = w.fsw.Close()
	w.wg.Wait()
	close(w.detections)
	w.logger.Info("watcher stopped")
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Debug("cannot watch directory",
				logging.String(logging.FieldPath, path), logging.Error(err))
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Creates cover both new files and rename destinations; the Rename op
	// fires for the vacated source path, which needs no classification.
	if event.Op&fsnotify.Create == 0 {
		return
	}

	if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
		// New directories join the watch set so their contents are seen.
		_ = w.addRecursive(event.Name)
	}

	w.schedule(event.Name)
}

// schedule arms (or re-arms) the settle timer for a path. Re-arming on every
// event coalesces bursts without dropping the final state.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.flush(path)
	})
}

func (w *Watcher) flush(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	var result detect.DetectedFile
	matched := false
	for _, module := range w.modules {
		if result, matched = module.Classify(path); matched {
			break
		}
	}
	if !matched {
		return
	}

	// The lock is held through the non-blocking send so Stop cannot close
	// the channel between the closed check and the send.
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	select {
	case w.detections <- result:
		w.logger.Debug("detected",
			logging.String(logging.FieldModule, result.Module),
			logging.String(logging.FieldPath, path))
	default:
		w.logger.Warn("detection channel full, dropping",
			logging.String(logging.FieldPath, path))
	}
}
