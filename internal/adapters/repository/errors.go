package repository

import "errors"

// Sentinel kinds for analysis store errors.
var (
	ErrNotFound    = errors.New("participant not found")
	ErrPersistence = errors.New("analysis store persistence failed")
)
