package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/datadiag/datadiag/internal/catalog"
	"github.com/datadiag/datadiag/internal/diag"
	"github.com/datadiag/datadiag/internal/payload"
)

// Runner drives registered entries against a data value. Tests run as a
// batch with per-check fault isolation: every possible outcome of a test
// function becomes a well-formed Result, and no test can stop the ones
// after it. Plots and reports are invoked one at a time by explicit
// request, so their failures surface directly to the caller instead.
type Runner struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

func New(c *catalog.Catalog, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{catalog: c, logger: logger}
}

// RunDiagnostics runs every test registered for the system, in
// registration order, and always returns a complete summary. An unknown
// system is not an error: the summary is just empty. Cancelling ctx stops
// new checks from starting; results collected so far are still returned.
func (r *Runner) RunDiagnostics(ctx context.Context, systemName string, data payload.Payload) diag.Summary {
	start := time.Now().UTC()
	tests := r.catalog.Tests(systemName)
	results := make([]diag.Result, 0, len(tests))

	for _, t := range tests {
		if ctx.Err() != nil {
			r.logger.Warn("run_cancelled",
				zap.String("system", systemName),
				zap.Int("completed", len(results)),
				zap.Int("registered", len(tests)),
			)
			break
		}
		res := r.invoke(t, data)
		r.logger.Debug("test_finished",
			zap.String("system", systemName),
			zap.String("test", t.Name),
			zap.String("status", string(res.Status)),
		)
		results = append(results, res)
	}

	summary := diag.Summary{SystemName: systemName, Results: results, Timestamp: start}
	r.logger.Info("diagnostics_run",
		zap.String("system", systemName),
		zap.Int("tests", len(summary.Results)),
		zap.Int("pass", summary.PassCount()),
		zap.Int("fail", summary.FailCount()),
		zap.Int("warning", summary.WarningCount()),
		zap.Int("error", summary.ErrorCount()),
	)
	return summary
}

// invoke yields exactly one tagged outcome per test: the result as
// returned, a synthesized Error for a contract violation, or a
// synthesized Error carrying the fault and its stack trace.
func (r *Runner) invoke(t catalog.Test, data payload.Payload) (res diag.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = diag.NewResult(t.Name, diag.StatusError,
				fmt.Sprintf("Test panicked: %v", p),
				diag.Detail{Key: "panic", Value: fmt.Sprint(p)},
				diag.Detail{Key: "stack", Value: string(debug.Stack())},
			)
		}
	}()

	out, err := t.Fn(data)
	if err != nil {
		return diag.NewResult(t.Name, diag.StatusError,
			fmt.Sprintf("Test returned an error: %v", err),
			diag.Detail{Key: "error", Value: err.Error()},
		)
	}
	if !out.WellFormed() {
		return diag.NewResult(t.Name, diag.StatusError,
			fmt.Sprintf("Test %q did not return a well-formed diagnostic result.", t.Name))
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	return out
}

// GeneratePlot invokes the named plot function and returns its figure
// unmodified. Faults from the plot function itself are not caught.
func (r *Runner) GeneratePlot(ctx context.Context, systemName, plotName string, data payload.Payload) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, p := range r.catalog.Plots(systemName) {
		if p.Name == plotName {
			return p.Fn(data)
		}
	}
	return nil, &NotFoundError{System: systemName, Kind: "plot", Name: plotName}
}

// GenerateReport invokes the named report function and returns its text
// unmodified. Same contract as GeneratePlot.
func (r *Runner) GenerateReport(ctx context.Context, systemName, reportName string, data payload.Payload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, rep := range r.catalog.Reports(systemName) {
		if rep.Name == reportName {
			return rep.Fn(data)
		}
	}
	return "", &NotFoundError{System: systemName, Kind: "report", Name: reportName}
}
