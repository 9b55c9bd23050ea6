package cohort

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks a week/category combination no participant has
// data for. The baseline entry is omitted and the condition reported as a
// warning; it never aborts the run.
var ErrInsufficientData = errors.New("insufficient data for baseline")

// InsufficientDataError identifies the missing combination.
type InsufficientDataError struct {
	Group    string
	Week     int
	Category string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("group %q has no data for category %q in week %d", e.Group, e.Category, e.Week)
}

// Unwrap lets errors.Is(err, ErrInsufficientData) succeed.
func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }
