package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrThreadNotFound is returned by a Platform when a thread does not resolve to a forum thread.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrPeriodShapeMismatch is returned when merging period lists of different lengths.
	ErrPeriodShapeMismatch = errors.New("score period lists differ in length")
)

// ScoringError reports that messages could not be fetched while rescoring,
// so the committed scores do not reflect the current rules.
type ScoringError struct {
	ThreadID string
	Err      error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("failed to rescore thread %s: %v", e.ThreadID, e.Err)
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}
