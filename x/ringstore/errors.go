package ringstore

import "errors"

var (
	// ErrNotFound is returned when a timestamp is unknown, maps to a slot that
	// has since been overwritten, or is the zero sentinel.
	ErrNotFound = errors.New("ringstore: root not found")

	// ErrOrderingViolation is returned by Record in strict mode when a write
	// does not advance both the step and the timestamp. It signals an
	// integration fault in the write authority, not a recoverable condition.
	ErrOrderingViolation = errors.New("ringstore: non-monotonic write")
)
