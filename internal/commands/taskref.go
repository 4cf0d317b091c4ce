package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"taskmirror/internal/output"
	"taskmirror/internal/reconcile"
	"taskmirror/internal/service"
)

// View selects which projection a task number indexes.
type View int

const (
	// PendingView numbers the tasks still to complete.
	PendingView View = iota
	// CompletedView numbers the completed tasks.
	CompletedView
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	View    View
	TaskNum int // 1-based position in the view
}

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrTaskOutOfRange indicates the number is beyond the view.
	ErrTaskOutOfRange = errors.New("task number out of range")
)

// ParseTaskRef parses the task reference in args[0].
//
//   - all digits: the Nth pending task (e.g. 3)
//   - c followed by digits: the Nth completed task (e.g. c2)
//   - c alone, or no args: ErrTaskRefRequired
//   - anything else: invalid task reference
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}

	arg := args[0]
	view := PendingView
	digits := arg
	if rest, found := strings.CutPrefix(arg, output.CompletedPrefix); found {
		if rest == "" {
			return TaskRef{}, ErrTaskRefRequired
		}
		view, digits = CompletedView, rest
	}

	if !isAllDigits(digits) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	num, err := strconv.Atoi(digits)
	if err != nil {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{View: view, TaskNum: num}, nil
}

// String formats the reference the way it is typed.
func (ref TaskRef) String() string {
	if ref.View == CompletedView {
		return output.CompletedPrefix + strconv.Itoa(ref.TaskNum)
	}
	return strconv.Itoa(ref.TaskNum)
}

// Resolve returns the task ref points at in r's current views.
func (ref TaskRef) Resolve(r *reconcile.Reconciler) (service.Task, error) {
	view := r.PendingView()
	if ref.View == CompletedView {
		view = r.CompletedView()
	}
	if ref.TaskNum < 1 || ref.TaskNum > len(view) {
		return service.Task{}, fmt.Errorf("%w: %s", ErrTaskOutOfRange, ref)
	}
	return view[ref.TaskNum-1], nil
}

// resolveArgs parses args[0] and resolves it against r.
func resolveArgs(r *reconcile.Reconciler, args []string) (service.Task, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, err
	}
	return ref.Resolve(r)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
