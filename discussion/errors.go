package discussion

import (
	"errors"
	"fmt"
)

var (
	// ErrTrackingDisabled is returned when a course has no discussion specs yet.
	ErrTrackingDisabled = errors.New("discussion tracking is not enabled for this course")
	// ErrTrackingEnabled is returned when enabling tracking twice.
	ErrTrackingEnabled = errors.New("discussion tracking is already enabled for this course")
	// ErrInvalidEmoji is returned for award input that is not exactly one emoji.
	ErrInvalidEmoji = errors.New("award must be exactly one emoji")
	// ErrAwardNotFound is returned when removing an emoji that has no award.
	ErrAwardNotFound = errors.New("no award is configured for that emoji")
	// ErrInvalidSpecs is returned for negative thresholds.
	ErrInvalidSpecs = errors.New("minimum length, paragraphs and links cannot be negative")
)

// DatabaseError reports that the course store could not be read or written.
// Changes made by the failed action were not persisted.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}
