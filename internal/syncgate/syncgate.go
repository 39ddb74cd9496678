package syncgate

import (
	"context"
	"log/slog"
	"time"

	"driftclean/internal/config"
	"driftclean/internal/logging"
)

// Status is one state of a file's sync lifecycle as seen by the oracle.
type Status int

const (
	// StatusUnknown means the oracle could not determine the sync state.
	StatusUnknown Status = iota
	// StatusSynced means no pending upload or download was observed.
	StatusSynced
	// StatusSyncing means the sync agent still has a transfer in flight.
	StatusSyncing
)

func (s Status) String() string {
	switch s {
	case StatusSynced:
		return "synced"
	case StatusSyncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// Oracle answers whether the sync agent still considers a file in flight.
type Oracle interface {
	Check(ctx context.Context, path string) Status
}

// Verdict is the outcome of waiting on the gate.
type Verdict struct {
	// Status is the last oracle answer observed.
	Status Status
	// TimedOut reports that the wait budget elapsed before the file synced.
	// The pipeline proceeds anyway; the flag exists so callers log it.
	TimedOut bool
}

// Proceed reports whether the deletion pipeline may continue.
func (v Verdict) Proceed() bool {
	return v.Status != StatusSyncing || v.TimedOut
}

// Gate polls an oracle until a file is synced or the wait budget elapses.
type Gate struct {
	oracle       Oracle
	pollInterval time.Duration
	maxWait      time.Duration
	logger       *slog.Logger
}

func NewGate(cfg *config.Config, oracle Oracle, logger *slog.Logger) *Gate {
	pollInterval := time.Duration(cfg.Sync.PollInterval) * time.Second
	if pollInterval < time.Second {
		pollInterval = time.Second
	}
	return &Gate{
		oracle:       oracle,
		pollInterval: pollInterval,
		maxWait:      time.Duration(cfg.Sync.MaxWait) * time.Second,
		logger:       logging.NewComponentLogger(logger, "syncgate"),
	}
}

// AwaitSynced blocks until the path is synced, the wait budget elapses, or
// ctx is cancelled. Cancellation is returned as an error and never swallowed.
func (g *Gate) AwaitSynced(ctx context.Context, path string) (Verdict, error) {
	deadline := time.Now().Add(g.maxWait)
	last := StatusUnknown

	for {
		last = g.oracle.Check(ctx, path)
		if last == StatusSynced {
			return Verdict{Status: last}, nil
		}
		if !time.Now().Add(g.pollInterval).Before(deadline) {
			g.logger.Debug("sync wait budget elapsed",
				logging.String(logging.FieldPath, path),
				logging.String("status", last.String()))
			return Verdict{Status: last, TimedOut: true}, nil
		}

		select {
		case <-ctx.Done():
			return Verdict{Status: last}, ctx.Err()
		case <-time.After(g.pollInterval):
		}
	}
}
