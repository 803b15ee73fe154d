package purchase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be 1 or more")
	ErrInvalidRequest  = errors.New("invalid purchase request")
	ErrUnknownProducts = errors.New("unknown product codes")
)

// ValidationError rejects a purchase before anything is written.
// Codes lists the offending product codes, sorted, when the problem is
// tied to specific cart lines.
type ValidationError struct {
	Err    error
	Reason string
	Codes  []string
}

func (e *ValidationError) Error() string {
	if len(e.Codes) == 0 {
		return e.Message()
	}
	return e.Message() + " [" + strings.Join(e.Codes, ", ") + "]"
}

// Message describes the problem without the code list.
func (e *ValidationError) Message() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistenceError means the store failed and the unit of work was rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
