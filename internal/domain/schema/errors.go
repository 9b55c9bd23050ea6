package schema

import (
	"errors"
	"fmt"

	"github.com/maumcare/pulse/internal/domain/model"
)

// Sentinel kinds for schema errors. These allow errors.Is/As from callers.
var (
	ErrSchemaMismatch    = errors.New("item not present in instrument schema")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrInvalidSchema     = errors.New("invalid instrument schema")
)

// MismatchError reports a raw item id that no (category, type) pair claims.
// It indicates a data-integrity problem upstream, e.g. a renamed spreadsheet
// column, and stops processing of the affected record.
type MismatchError struct {
	Instrument model.Instrument
	ItemID     string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("item %q not present in schema for instrument %q", e.ItemID, e.Instrument)
}

// Unwrap lets errors.Is(err, ErrSchemaMismatch) succeed.
func (e *MismatchError) Unwrap() error { return ErrSchemaMismatch }
