package reconcile

import (
	"errors"
	"fmt"
)

// ErrNotFoundLocally is returned by Lookup when the local mirror holds no task
// with the requested id. Operations that tolerate a missing id (ToggleComplete,
// StartEdit) treat it as a silent no-op instead.
var ErrNotFoundLocally = errors.New("task not found locally")

// ValidationError reports a precondition detected before any store call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StoreError reports a failure returned by the task store.
type StoreError struct {
	Op     string // insert, update, toggle, delete, load
	Reason string // the store's message
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s task: %s", e.Op, e.Reason)
}

// Unwrap returns the store's original error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

func newStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Reason: err.Error(), Err: err}
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsStore reports whether err is or wraps a *StoreError.
func IsStore(err error) bool {
	var s *StoreError
	return errors.As(err, &s)
}
