package analytics

import "errors"

var (
	// ErrNotFound is returned when a store or product id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidParameter is returned for a rejected horizon or period type.
	ErrInvalidParameter = errors.New("invalid parameter")
)
