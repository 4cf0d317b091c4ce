// Package service defines the backend-agnostic contract for the tasks relation.
package service

import (
	"context"
	"errors"
)

// Store-level errors. Implementations wrap these with %w so callers can
// match them with errors.Is regardless of backend.
var (
	// ErrNotFound is returned when no row exists for the given id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTask is returned when a row would violate the table's
	// constraints, for example an empty title.
	ErrInvalidTask = errors.New("invalid task")

	// ErrUnauthorized is returned when the backend rejects the stored
	// credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// Store defines the durable CRUD access to the tasks relation.
// The store assigns ids and creation timestamps and is the source of truth.
// Commands and the reconciler never import a backend SDK directly.
type Store interface {
	// List returns every task ordered by CreatedAt, newest first.
	List(ctx context.Context) ([]Task, error)

	// Insert creates a task and returns it with its assigned ID and CreatedAt.
	Insert(ctx context.Context, title string, isComplete bool) (Task, error)

	// UpdateTitle sets the title of an existing task.
	UpdateTitle(ctx context.Context, id, title string) error

	// UpdateComplete sets the completion flag of an existing task to the
	// given value.
	UpdateComplete(ctx context.Context, id string, isComplete bool) error

	// Delete removes a task.
	Delete(ctx context.Context, id string) error
}
