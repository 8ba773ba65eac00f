package handles

import "errors"

var (
	// ErrFull indicates the slot cap set by WithMaxSlots was reached.
	ErrFull = errors.New("handles: slot limit reached")

	// ErrBadOption indicates an invalid option value.
	ErrBadOption = errors.New("handles: invalid option")

	// ErrNilHandle indicates a weak handle was requested from a nil strong one.
	ErrNilHandle = errors.New("handles: nil strong handle")
)
