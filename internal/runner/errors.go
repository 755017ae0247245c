package runner

import (
	"errors"
	"fmt"
)

// NotFoundError reports a plot or report name that is not registered for
// a system. It is the only error the engine itself raises to a caller.
type NotFoundError struct {
	System string
	Kind   string // "plot" or "report"
	Name   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found for system %q", e.Kind, e.Name, e.System)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
