package ingest

import (
	"errors"
	"fmt"
)

// Sentinel kinds for ingestion errors.
var (
	// ErrUnknownAnswer marks an answer label with no score mapping and no
	// numeric reading. The item is dropped from the response set.
	ErrUnknownAnswer = errors.New("answer label has no score mapping")

	// ErrMalformedRow marks a CSV row that cannot carry the expected item
	// block. The row is dropped.
	ErrMalformedRow = errors.New("malformed survey row")

	// ErrDuplicateAnswer marks a repeated submission of the same
	// participant/week/item. The later value wins.
	ErrDuplicateAnswer = errors.New("duplicate answer")

	// ErrBadHeader aborts a file whose header lacks the identity columns.
	ErrBadHeader = errors.New("survey header missing identity columns")
)

// UnknownAnswerError carries the offending label for reporting.
type UnknownAnswerError struct {
	Instrument string
	ItemID     string
	Label      string
}

func (e *UnknownAnswerError) Error() string {
	return fmt.Sprintf("item %s of %s: %v: %q", e.ItemID, e.Instrument, ErrUnknownAnswer, e.Label)
}

func (e *UnknownAnswerError) Unwrap() error { return ErrUnknownAnswer }
