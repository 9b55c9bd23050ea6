package scoring

import (
	"errors"
	"fmt"

	"github.com/maumcare/pulse/internal/domain/model"
)

// ErrInvalidValue marks a raw answer outside the instrument's declared range.
// Such values are excluded from averaging and reported, never silently dropped.
var ErrInvalidValue = errors.New("answer value out of range")

// InvalidValueError carries the details of an out-of-range answer.
type InvalidValueError struct {
	Instrument model.Instrument
	ItemID     string
	Value      float64
	Min, Max   float64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("value %v for %s/%s outside range [%v, %v]",
		e.Value, e.Instrument, e.ItemID, e.Min, e.Max)
}

// Unwrap lets errors.Is(err, ErrInvalidValue) succeed.
func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }
