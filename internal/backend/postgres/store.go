// Package postgres implements service.Store on a PostgreSQL tasks table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"taskmirror/internal/logger"
	"taskmirror/internal/service"
)

const (
	// DefaultTimeout bounds every query when no timeout is configured.
	DefaultTimeout = 5 * time.Second

	// DriverName is the database/sql driver registered by pgx.
	DriverName = "pgx"
)

// DBTX is the subset of *sql.DB and *sql.Tx the store needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements service.Store using PostgreSQL.
type Store struct {
	db      DBTX
	timeout time.Duration
}

// New creates a Store over db. A non-positive timeout selects DefaultTimeout.
func New(db DBTX, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{db: db, timeout: timeout}
}

// Close closes the underlying pool if the store was built over one. A store
// over a transaction or a test double has nothing to close.
func (s *Store) Close() error {
	if c, ok := s.db.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Open opens and pings a connection pool for the given URL.
func Open(ctx context.Context, url string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open(DriverName, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// List returns every task, newest first.
func (s *Store) List(ctx context.Context) ([]service.Task, error) {
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, is_complete, created_at
		FROM tasks
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		log.Error("failed to query tasks", "error", err)
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer rows.Close()

	var tasks []service.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", "error", err)
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", "error", err)
		return nil, fmt.Errorf("error iterating task rows: %w", MapError(err))
	}

	return tasks, nil
}

// Insert creates a task. The database assigns id and created_at.
func (s *Store) Insert(ctx context.Context, title string, isComplete bool) (service.Task, error) {
	if strings.TrimSpace(title) == "" {
		return service.Task{}, fmt.Errorf("%w: empty title", service.ErrInvalidTask)
	}

	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (title, is_complete)
		VALUES ($1, $2)
		RETURNING id, title, is_complete, created_at
	`, title, isComplete)

	t, err := scanTask(row)
	if err != nil {
		log.Error("failed to insert task", "error", err)
		return service.Task{}, fmt.Errorf("failed to insert task: %w", MapError(err))
	}

	log.Debug("task inserted", "task_id", t.ID)
	return t, nil
}

// UpdateTitle sets the title of an existing task.
func (s *Store) UpdateTitle(ctx context.Context, id, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: empty title", service.ErrInvalidTask)
	}
	return s.exec(ctx, "update task title", id, `UPDATE tasks SET title = $2 WHERE id = $1`, title)
}

// UpdateComplete sets the completion flag of an existing task.
func (s *Store) UpdateComplete(ctx context.Context, id string, isComplete bool) error {
	return s.exec(ctx, "update task completion", id, `UPDATE tasks SET is_complete = $2 WHERE id = $1`, isComplete)
}

// Delete removes a task.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.exec(ctx, "delete task", id, `DELETE FROM tasks WHERE id = $1`)
}

// exec runs a statement keyed by id and requires it to touch a row.
// Ids that are not UUIDs cannot match a row and fail without a round trip.
func (s *Store) exec(ctx context.Context, op, id, query string, args ...any) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: task %s", service.ErrNotFound, id)
	}

	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, append([]any{uid}, args...)...)
	if err != nil {
		log.Error("failed to "+op, "task_id", id, "error", err)
		return fmt.Errorf("failed to %s: %w", op, MapError(err))
	}
	if err := checkRowsAffected(result, id); err != nil {
		log.Warn("no task found with ID", "task_id", id, "op", op)
		return err
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (service.Task, error) {
	var (
		id uuid.UUID
		t  service.Task
	)
	if err := row.Scan(&id, &t.Title, &t.IsComplete, &t.CreatedAt); err != nil {
		return service.Task{}, err
	}
	t.ID = id.String()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}
