package catalog

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/datadiag/datadiag/internal/diag"
	"github.com/datadiag/datadiag/internal/payload"
)

// TestFunc produces one diagnostic result from a data value. A returned
// error, a panic, or a malformed result is recorded by the runner as an
// Error result; it never aborts the batch.
type TestFunc func(data payload.Payload) (diag.Result, error)

// PlotFunc produces a renderable figure. The figure type is opaque to the
// engine; the presentation layer decides how to serialize it.
type PlotFunc func(data payload.Payload) (any, error)

// ReportFunc produces a textual report (plain text or markdown).
type ReportFunc func(data payload.Payload) (string, error)

type Test struct {
	Name        string
	Description string
	Fn          TestFunc
}

type Plot struct {
	Name        string
	Description string
	Fn          PlotFunc
}

type Report struct {
	Name        string
	Description string
	Fn          ReportFunc
}

// SystemInfo describes one registered data domain.
type SystemInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// Catalog is the append-only registry of systems and their entries.
// Plugins register into it during single-threaded startup via their
// Register functions; after that it is shared read-only by every run, so
// any number of concurrent runs is safe. The process wires exactly one.
type Catalog struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	systems map[string]SystemInfo
	tests   map[string][]Test
	plots   map[string][]Plot
	reports map[string][]Report
}

func New(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		logger:  logger,
		systems: make(map[string]SystemInfo),
		tests:   make(map[string][]Test),
		plots:   make(map[string][]Plot),
		reports: make(map[string][]Report),
	}
}

// AddSystem inserts or silently overwrites the info for a system and
// makes sure its entry slices exist. Entries already registered under the
// name are kept.
func (c *Catalog) AddSystem(name, description, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systems[name] = SystemInfo{Name: name, Description: description, Version: version}
	c.ensureLocked(name)
}

// AddTest appends a test for the system, creating the system's slice if
// the system was never declared. A plugin may register tests before its
// AddSystem call runs; that is fine, load order is not an API contract.
func (c *Catalog) AddTest(system string, t Test) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnDuplicate("test", system, t.Name, testNames(c.tests[system]))
	c.tests[system] = append(c.tests[system], t)
}

func (c *Catalog) AddPlot(system string, p Plot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnDuplicate("plot", system, p.Name, plotNames(c.plots[system]))
	c.plots[system] = append(c.plots[system], p)
}

func (c *Catalog) AddReport(system string, r Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnDuplicate("report", system, r.Name, reportNames(c.reports[system]))
	c.reports[system] = append(c.reports[system], r)
}

// Systems returns a snapshot of all registered system info. Mutating the
// returned map does not touch the catalog.
func (c *Catalog) Systems() map[string]SystemInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]SystemInfo, len(c.systems))
	for k, v := range c.systems {
		out[k] = v
	}
	return out
}

// SystemNames returns the registered system names, sorted.
func (c *Catalog) SystemNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.systems))
	for name := range c.systems {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Tests returns a copy of the system's tests in registration order. The
// copy is always non-nil, so a declared system observably has an empty
// list. Unknown systems also yield an empty slice, never an error.
func (c *Catalog) Tests(system string) []Test {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Test, len(c.tests[system]))
	copy(out, c.tests[system])
	return out
}

func (c *Catalog) Plots(system string) []Plot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Plot, len(c.plots[system]))
	copy(out, c.plots[system])
	return out
}

func (c *Catalog) Reports(system string) []Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Report, len(c.reports[system]))
	copy(out, c.reports[system])
	return out
}

// ensureLocked guarantees the entry slices for a system exist. Caller
// holds c.mu.
func (c *Catalog) ensureLocked(name string) {
	if c.tests[name] == nil {
		c.tests[name] = []Test{}
	}
	if c.plots[name] == nil {
		c.plots[name] = []Plot{}
	}
	if c.reports[name] == nil {
		c.reports[name] = []Report{}
	}
}

// warnDuplicate logs when a name is registered twice for the same system.
// Both entries are retained; consumers address entries by position, so a
// collision is suspicious but never fatal.
func (c *Catalog) warnDuplicate(kind, system, name string, existing []string) {
	for _, n := range existing {
		if n == name {
			c.logger.Warn("duplicate_registration",
				zap.String("kind", kind),
				zap.String("system", system),
				zap.String("name", name),
			)
			return
		}
	}
}

func testNames(ts []Test) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func plotNames(ps []Plot) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func reportNames(rs []Report) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}
