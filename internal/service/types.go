// Package service defines the backend-agnostic contract for the tasks relation.
package service

import "time"

// Task represents a single row of the tasks relation.
type Task struct {
	ID         string
	Title      string
	IsComplete bool
	CreatedAt  time.Time // assigned by the store, used for ordering only
}
