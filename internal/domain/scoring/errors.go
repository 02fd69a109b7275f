package scoring

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidInput reports non-finite coordinates or a malformed location.
	ErrInvalidInput = errors.New("invalid input")
)
