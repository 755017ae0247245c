// Package watch re-runs one system's diagnostics against a data file on
// an interval and raises a notification when the overall health flips.
// It sits outside the engine: the runner stays schedule-free and the
// watcher is just another caller of RunDiagnostics.
package watch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/datadiag/datadiag/internal/diag"
	"github.com/datadiag/datadiag/internal/notify"
	"github.com/datadiag/datadiag/internal/payload"
	"github.com/datadiag/datadiag/internal/runner"
)

type Watcher struct {
	Logger   *zap.Logger
	Runner   *runner.Runner
	Notifier notify.Notifier
	System   string
	DataFile string
	Interval time.Duration
	Cooldown time.Duration

	lastUnhealthy bool
	lastSentAt    time.Time
	ran           bool
}

func New(logger *zap.Logger, r *runner.Runner, n notify.Notifier, system, dataFile string, interval, cooldown time.Duration) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		Logger:   logger,
		Runner:   r,
		Notifier: n,
		System:   system,
		DataFile: dataFile,
		Interval: interval,
		Cooldown: cooldown,
	}
}

// Run starts the loop: an immediate pass, then one per tick until ctx is
// cancelled. A zero interval disables the watcher.
func (w *Watcher) Run(ctx context.Context) {
	if w.Interval == 0 || w.System == "" {
		w.Logger.Info("watcher_disabled")
		return
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("watcher_stopped")
			return
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	data, err := payload.Load(w.DataFile)
	if err != nil {
		w.Logger.Warn("watcher_load_error",
			zap.String("data_file", w.DataFile),
			zap.Error(err),
		)
		return
	}

	summary := w.Runner.RunDiagnostics(ctx, w.System, data)
	unhealthy := summary.UnhealthyCount() > 0

	w.Logger.Debug("watcher_pass",
		zap.String("system", w.System),
		zap.Int("tests", len(summary.Results)),
		zap.Int("unhealthy", summary.UnhealthyCount()),
	)

	// First pass establishes the baseline; it only alerts when already
	// unhealthy. After that, only transitions alert.
	transition := unhealthy != w.lastUnhealthy
	if !w.ran {
		transition = unhealthy
	}
	w.ran = true
	w.lastUnhealthy = unhealthy
	if !transition {
		return
	}

	now := time.Now()
	if unhealthy {
		// Cooldown suppresses noisy flapping for unhealthy alerts only;
		// recoveries always go out.
		if !w.lastSentAt.IsZero() && now.Sub(w.lastSentAt) < w.Cooldown {
			return
		}
		w.send(ctx, "Diagnostics UNHEALTHY", summary)
		w.lastSentAt = now
		return
	}
	w.send(ctx, "Diagnostics RECOVERED", summary)
}

func (w *Watcher) send(ctx context.Context, title string, summary diag.Summary) {
	if w.Notifier == nil {
		return
	}
	text := fmt.Sprintf(
		"System: %s\nTests: %d\nPass: %d\nFail: %d\nWarning: %d\nError: %d\nRun: %s",
		summary.SystemName, len(summary.Results),
		summary.PassCount(), summary.FailCount(), summary.WarningCount(), summary.ErrorCount(),
		summary.Timestamp.Format(time.RFC3339),
	)
	if err := w.Notifier.Send(ctx, title, text); err != nil {
		w.Logger.Warn("watcher_notify_error", zap.Error(err))
	}
}
