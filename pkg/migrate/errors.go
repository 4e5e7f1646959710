package migrate

import (
	"errors"
	"fmt"
)

// Planner errors.
var (
	// ErrModeViolation is returned when creation mode is requested against
	// a non-empty current snapshot.
	ErrModeViolation = errors.New("creation mode requires an empty current snapshot")

	// ErrContractViolation indicates the generator asked the model for an
	// object that classification claimed exists. It is a bug in the
	// planner's own bookkeeping, not a data error, and must not be caught
	// or retried.
	ErrContractViolation = errors.New("planner bookkeeping contract violated")
)

// contractf wraps ErrContractViolation with detail about the broken lookup.
func contractf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...))
}
