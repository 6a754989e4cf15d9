package periods

import (
	"errors"
	"strings"
)

// ErrPeriodConflict is returned when a period would overlap an existing one.
var ErrPeriodConflict = errors.New("score period overlaps an existing score period")

// ValidationError lists every reason a period request was rejected.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid score period: " + strings.Join(e.Reasons, "; ")
}
