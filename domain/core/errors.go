package core

import "errors"

// Domain errors - centralized error definitions
var (
	// Configuration errors are caller bugs and are never retried.
	ErrConfiguration   = errors.New("invalid configuration")
	ErrMissingMetadata = errors.New("metric metadata missing")

	// Statistical errors are reported per group.
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrNoBaseline       = errors.New("baseline threshold not present")

	ErrNotFound = errors.New("resource not found")
)
