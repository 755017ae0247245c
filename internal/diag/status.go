package diag

// Status classifies the outcome of a single diagnostic test.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusFail, StatusWarning, StatusError:
		return true
	}
	return false
}

// Unhealthy reports whether s should alarm a caller-facing summary.
// Fail and Error both count; Warning does not.
func (s Status) Unhealthy() bool {
	return s == StatusFail || s == StatusError
}
