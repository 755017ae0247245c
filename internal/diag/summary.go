package diag

import "time"

// Summary aggregates one diagnostics run for a system. Results are in
// registration order, one per test that was attempted. The summary owns
// its result slice; it is independent of the catalog the run came from.
type Summary struct {
	SystemName string    `json:"system_name"`
	Results    []Result  `json:"results"`
	Timestamp  time.Time `json:"timestamp"`
}

// Counts are derived by scanning, never cached, so they always reflect
// the current result sequence.

func (s Summary) PassCount() int    { return s.countWhere(StatusPass) }
func (s Summary) FailCount() int    { return s.countWhere(StatusFail) }
func (s Summary) WarningCount() int { return s.countWhere(StatusWarning) }
func (s Summary) ErrorCount() int   { return s.countWhere(StatusError) }

// UnhealthyCount counts results with Fail or Error status.
func (s Summary) UnhealthyCount() int {
	return s.FailCount() + s.ErrorCount()
}

func (s Summary) countWhere(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}
