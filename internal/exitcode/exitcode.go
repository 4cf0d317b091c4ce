// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskmirror/internal/reconcile"
	"taskmirror/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, bad task reference, empty title).
	UserError = 1

	// AuthError indicates a config or credentials error.
	AuthError = 2

	// BackendError indicates a store, database or network error.
	BackendError = 3
)

// FromError maps an error returned by the reconciler or a store to an exit code.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case reconcile.IsValidation(err), errors.Is(err, service.ErrInvalidTask):
		return UserError
	case errors.Is(err, service.ErrUnauthorized):
		return AuthError
	default:
		return BackendError
	}
}
