package schema

import (
	"errors"
	"fmt"
)

// Model errors. Structural violations carry detail text and are matched
// with errors.Is against ErrStructuralViolation.
var (
	ErrNotFound            = errors.New("schema object not found")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrStructuralViolation = errors.New("structural violation")
)

// structuralf wraps ErrStructuralViolation with a formatted detail message.
func structuralf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructuralViolation, fmt.Sprintf(format, args...))
}

// missing wraps ErrNotFound with the kind and scope of the absent object.
func missing(kind, scope, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s on table %q", ErrNotFound, kind, scope)
	}
	return fmt.Errorf("%w: %s %q on table %q", ErrNotFound, kind, name, scope)
}

// duplicated wraps ErrDuplicateName with the kind and scope of the clash.
func duplicated(kind, scope, name string) error {
	return fmt.Errorf("%w: %s %q on table %q", ErrDuplicateName, kind, name, scope)
}
