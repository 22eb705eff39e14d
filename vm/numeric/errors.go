package numeric

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is matched by every UnsupportedError.
	ErrUnsupported = errors.New("operation not supported for this kind")

	ErrDivideByZero = errors.New("division by zero")
	ErrInvalidValue = errors.New("invalid numeric value")
	ErrSyntax       = errors.New("invalid numeric literal")
)

// UnsupportedError reports an operation that is undefined for a kind.
type UnsupportedError struct {
	Op   string
	Kind Kind
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: operation not supported for kind %s", e.Op, e.Kind)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

func unsupported(op string, k Kind) error {
	return &UnsupportedError{Op: op, Kind: k}
}
