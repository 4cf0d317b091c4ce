// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmirror/internal/service"
)

// BaseTime is the creation time the fake assigns to its first inserted task
// when no tasks were seeded.
var BaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeStore is an in-memory implementation of service.Store for testing.
type FakeStore struct {
	mu    sync.RWMutex
	tasks []service.Task // newest first
	calls []string

	// Error injection for testing
	ListErr           error
	InsertErr         error
	UpdateTitleErr    error
	UpdateCompleteErr error
	DeleteErr         error

	// Hooks run once the operation has been applied and before it returns,
	// without the store lock held. Tests use them to interleave reconciler
	// calls with a store call that has committed but not yet resolved.
	AfterList           func()
	AfterInsert         func(t service.Task)
	AfterUpdateTitle    func(id, title string)
	AfterUpdateComplete func(id string, isComplete bool)
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// AddTask seeds a task. Tasks are kept ordered by CreatedAt, newest first.
func (f *FakeStore) AddTask(id, title string, isComplete bool, createdAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, service.Task{
		ID:         id,
		Title:      title,
		IsComplete: isComplete,
		CreatedAt:  createdAt,
	})
	f.sortLocked()
}

// Get returns the stored copy of a task.
func (f *FakeStore) Get(id string) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Calls returns the operations invoked so far, e.g. "insert", "delete:<id>".
func (f *FakeStore) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// ResetCalls clears the recorded operations.
func (f *FakeStore) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// List implements service.Store.
func (f *FakeStore) List(ctx context.Context) ([]service.Task, error) {
	f.record("list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.RLock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	f.mu.RUnlock()

	if f.AfterList != nil {
		f.AfterList()
	}
	return result, nil
}

// Insert implements service.Store.
func (f *FakeStore) Insert(ctx context.Context, title string, isComplete bool) (service.Task, error) {
	f.record("insert")
	if f.InsertErr != nil {
		return service.Task{}, f.InsertErr
	}
	if strings.TrimSpace(title) == "" {
		return service.Task{}, fmt.Errorf("%w: empty title", service.ErrInvalidTask)
	}
	f.mu.Lock()
	createdAt := BaseTime
	if len(f.tasks) > 0 {
		createdAt = f.tasks[0].CreatedAt.Add(time.Second)
	}
	t := service.Task{
		ID:         uuid.NewString(),
		Title:      title,
		IsComplete: isComplete,
		CreatedAt:  createdAt,
	}
	f.tasks = append(f.tasks, t)
	f.sortLocked()
	f.mu.Unlock()

	if f.AfterInsert != nil {
		f.AfterInsert(t)
	}
	return t, nil
}

// UpdateTitle implements service.Store.
func (f *FakeStore) UpdateTitle(ctx context.Context, id, title string) error {
	f.record("update_title:" + id)
	if f.UpdateTitleErr != nil {
		return f.UpdateTitleErr
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: empty title", service.ErrInvalidTask)
	}
	if err := f.apply(id, func(t *service.Task) { t.Title = title }); err != nil {
		return err
	}
	if f.AfterUpdateTitle != nil {
		f.AfterUpdateTitle(id, title)
	}
	return nil
}

// UpdateComplete implements service.Store.
func (f *FakeStore) UpdateComplete(ctx context.Context, id string, isComplete bool) error {
	f.record(fmt.Sprintf("update_complete:%s:%t", id, isComplete))
	if f.UpdateCompleteErr != nil {
		return f.UpdateCompleteErr
	}
	if err := f.apply(id, func(t *service.Task) { t.IsComplete = isComplete }); err != nil {
		return err
	}
	if f.AfterUpdateComplete != nil {
		f.AfterUpdateComplete(id, isComplete)
	}
	return nil
}

// Delete implements service.Store.
func (f *FakeStore) Delete(ctx context.Context, id string) error {
	f.record("delete:" + id)
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: task %s", service.ErrNotFound, id)
}

// apply mutates the stored task matching id.
func (f *FakeStore) apply(id string, fn func(*service.Task)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			fn(&f.tasks[i])
			return nil
		}
	}
	return fmt.Errorf("%w: task %s", service.ErrNotFound, id)
}

func (f *FakeStore) sortLocked() {
	sort.SliceStable(f.tasks, func(i, j int) bool {
		return f.tasks[i].CreatedAt.After(f.tasks[j].CreatedAt)
	})
}
