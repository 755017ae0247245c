package diag

import "time"

// Result is the outcome of one named diagnostic test. It is a value type:
// once appended to a Summary it is never mutated.
type Result struct {
	TestName  string    `json:"test_name"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	Details   Details   `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewResult builds a Result stamped with the current time.
func NewResult(testName string, status Status, message string, details ...Detail) Result {
	return Result{
		TestName:  testName,
		Status:    status,
		Message:   message,
		Details:   Details(details),
		Timestamp: time.Now().UTC(),
	}
}

// WellFormed reports whether the result honors the check contract: a known
// status and a non-empty message.
func (r Result) WellFormed() bool {
	return r.Status.Valid() && r.Message != ""
}
