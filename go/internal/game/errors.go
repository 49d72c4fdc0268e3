package game

import (
	"errors"
	"fmt"
)

// ErrValidation is the base of every command-rejection error. The API layer
// maps anything wrapping it to a 400; the command leaves state untouched.
var ErrValidation = errors.New("invalid command")

// ErrPeriodNotEnded rejects interval.start before the main clock has run a
// period down to zero.
var ErrPeriodNotEnded = fmt.Errorf("%w: period not ended", ErrValidation)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
