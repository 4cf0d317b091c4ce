// Package reconcile keeps a local mirror of the tasks relation consistent with
// the remote store.
//
// Every mutation is confirm-then-apply: the store is called first and the local
// collection changes only after it reports success. A failed call leaves every
// piece of local state exactly as it was.
package reconcile

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"taskmirror/internal/logger"
	"taskmirror/internal/service"
)

// State is a consistent snapshot of everything the presentation layer renders.
type State struct {
	Tasks     []service.Task
	Pending   []service.Task
	Completed []service.Task
	Editing   *service.Task
	Draft     string
	Loading   bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for mutation and failure records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// Reconciler owns the in-memory task collection and mediates every change
// through a service.Store.
//
// The mutex guards local state only and is never held across a store call.
// Results are applied against whatever the local state is when the call
// resolves, so a toggle that lands after a delete does not resurrect the row.
type Reconciler struct {
	store service.Store
	log   *slog.Logger

	mu       sync.Mutex
	tasks    []service.Task // newest first; replaced wholesale, never mutated in place
	editing  *service.Task
	draft    string
	inflight int // loads in progress
}

// New creates a Reconciler with an empty collection.
func New(store service.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the local collection with the store's full list.
// On failure the previous collection stays in place.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	r.inflight++
	r.mu.Unlock()

	tasks, err := r.store.List(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight--

	if err != nil {
		r.log.Warn("load failed", "error", err)
		return newStoreError("load", err)
	}

	fresh := make([]service.Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			r.log.Warn("store returned duplicate task id", "task_id", t.ID)
			continue
		}
		seen[t.ID] = struct{}{}
		fresh = append(fresh, t)
	}
	r.tasks = fresh

	if r.editing != nil {
		if i := indexOf(r.tasks, r.editing.ID); i >= 0 {
			t := r.tasks[i]
			r.editing = &t
		} else {
			r.log.Debug("edited task gone after reload", "task_id", r.editing.ID)
			r.editing = nil
			r.draft = ""
		}
	}

	r.log.Debug("tasks loaded", "count", len(r.tasks))
	return nil
}

// Submit is the save action. With no editing target it creates a task;
// otherwise it updates the target's title. The draft is cleared on success.
func (r *Reconciler) Submit(ctx context.Context, draftTitle string) error {
	title := strings.TrimSpace(draftTitle)
	if title == "" {
		return &ValidationError{Field: "title", Message: "task title cannot be empty"}
	}

	r.mu.Lock()
	var target *service.Task
	if r.editing != nil {
		t := *r.editing
		target = &t
	}
	r.mu.Unlock()

	if target == nil {
		return r.create(ctx, title)
	}
	return r.update(ctx, *target, title)
}

func (r *Reconciler) create(ctx context.Context, title string) error {
	created, err := r.store.Insert(ctx, title, false)
	if err != nil {
		r.log.Warn("insert failed", "error", err)
		return newStoreError("insert", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A reload that resolved first may already hold the new row.
	if indexOf(r.tasks, created.ID) < 0 {
		next := make([]service.Task, 0, len(r.tasks)+1)
		next = append(next, created)
		next = append(next, r.tasks...)
		r.tasks = next
	}
	r.draft = ""

	r.log.Debug("task created", "task_id", created.ID)
	return nil
}

func (r *Reconciler) update(ctx context.Context, target service.Task, title string) error {
	if err := r.store.UpdateTitle(ctx, target.ID, title); err != nil {
		r.log.Warn("update failed", "task_id", target.ID, "error", err)
		return newStoreError("update", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = replace(r.tasks, target.ID, func(t *service.Task) { t.Title = title })
	if r.editing != nil && r.editing.ID == target.ID {
		r.editing = nil
		r.draft = ""
	}

	r.log.Debug("task updated", "task_id", target.ID)
	return nil
}

// ToggleComplete flips the completion flag of the task with the given id.
// The new value is computed from the local copy and sent as-is to the store.
// An id unknown to the local mirror is a no-op.
func (r *Reconciler) ToggleComplete(ctx context.Context, id string) error {
	r.mu.Lock()
	i := indexOf(r.tasks, id)
	if i < 0 {
		r.mu.Unlock()
		r.log.Debug("toggle ignored", "task_id", id, "reason", ErrNotFoundLocally)
		return nil
	}
	want := !r.tasks[i].IsComplete
	r.mu.Unlock()

	if err := r.store.UpdateComplete(ctx, id, want); err != nil {
		r.log.Warn("toggle failed", "task_id", id, "error", err)
		return newStoreError("toggle", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = replace(r.tasks, id, func(t *service.Task) { t.IsComplete = want })
	if r.editing != nil && r.editing.ID == id {
		r.editing.IsComplete = want
	}

	r.log.Debug("task toggled", "task_id", id, "is_complete", want)
	return nil
}

// StartEdit makes the task with the given id the editing target and seeds the
// draft with its title. Returns false, changing nothing, if the id is unknown.
func (r *Reconciler) StartEdit(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.tasks, id)
	if i < 0 {
		return false
	}
	t := r.tasks[i]
	r.editing = &t
	r.draft = t.Title
	return true
}

// CancelEdit leaves edit mode and clears the draft. Nothing is sent to the store.
func (r *Reconciler) CancelEdit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editing = nil
	r.draft = ""
}

// Remove deletes the task with the given id. If it was the editing target,
// edit mode ends, but only once the store confirms the delete.
func (r *Reconciler) Remove(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); err != nil {
		r.log.Warn("delete failed", "task_id", id, "error", err)
		return newStoreError("delete", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i := indexOf(r.tasks, id); i >= 0 {
		next := make([]service.Task, 0, len(r.tasks)-1)
		next = append(next, r.tasks[:i]...)
		next = append(next, r.tasks[i+1:]...)
		r.tasks = next
	}
	if r.editing != nil && r.editing.ID == id {
		r.editing = nil
		r.draft = ""
	}

	r.log.Debug("task removed", "task_id", id)
	return nil
}

// Tasks returns a copy of the local collection, newest first.
func (r *Reconciler) Tasks() []service.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.tasks)
}

// PendingView returns the tasks that are not complete, in collection order.
func (r *Reconciler) PendingView() []service.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filter(r.tasks, false)
}

// CompletedView returns the tasks that are complete, in collection order.
func (r *Reconciler) CompletedView() []service.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filter(r.tasks, true)
}

// EditingTarget returns the task under edit, if any.
func (r *Reconciler) EditingTarget() (service.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.editing == nil {
		return service.Task{}, false
	}
	return *r.editing, true
}

// Draft returns the current draft input.
func (r *Reconciler) Draft() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

// SetDraft replaces the draft input, as typing into the text field would.
func (r *Reconciler) SetDraft(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft = s
}

// Loading reports whether a Load is in flight.
func (r *Reconciler) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight > 0
}

// Lookup returns the local copy of the task with the given id.
func (r *Reconciler) Lookup(id string) (service.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.tasks, id)
	if i < 0 {
		return service.Task{}, ErrNotFoundLocally
	}
	return r.tasks[i], nil
}

// Snapshot returns every projection taken under a single lock.
func (r *Reconciler) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := State{
		Tasks:     clone(r.tasks),
		Pending:   filter(r.tasks, false),
		Completed: filter(r.tasks, true),
		Draft:     r.draft,
		Loading:   r.inflight > 0,
	}
	if r.editing != nil {
		t := *r.editing
		s.Editing = &t
	}
	return s
}

// FromContext is a convenience for building a Reconciler that logs through the
// logger carried by ctx.
func FromContext(ctx context.Context, store service.Store) *Reconciler {
	return New(store, WithLogger(logger.FromContext(ctx)))
}

func indexOf(tasks []service.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// replace returns a copy of tasks with fn applied to the task matching id.
// If no task matches, tasks is returned unchanged.
func replace(tasks []service.Task, id string, fn func(*service.Task)) []service.Task {
	i := indexOf(tasks, id)
	if i < 0 {
		return tasks
	}
	next := clone(tasks)
	fn(&next[i])
	return next
}

func filter(tasks []service.Task, complete bool) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsComplete == complete {
			out = append(out, t)
		}
	}
	return out
}

func clone(tasks []service.Task) []service.Task {
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	return out
}
