// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskmirror/internal/service"
)

const (
	// ListSeparator is the separator line framing section headers.
	ListSeparator = "------------"

	// PendingHeader titles the pending view.
	PendingHeader = "Tasks to Complete"

	// CompletedHeader titles the completed view.
	CompletedHeader = "Completed Tasks"

	// EditingMarker is appended to the row of the task under edit.
	EditingMarker = " [editing]"

	// CompletedPrefix prefixes references into the completed view.
	CompletedPrefix = "c"
)

// ViewOptions controls how Views renders the two projections.
type ViewOptions struct {
	// PendingOnly omits the completed section.
	PendingOnly bool

	// EditingID marks the row with this id, if any.
	EditingID string
}

// FormatSection writes a section header framed by separator lines.
func FormatSection(w io.Writer, title string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, ListSeparator)
}

// FormatPending formats a pending row.
// Format: "{N:>4}  {TITLE}\n"
func FormatPending(w io.Writer, num int, task service.Task, editing bool) {
	fmt.Fprintf(w, "%4d  %s%s\n", num, normalizeTitle(task.Title), marker(editing))
}

// FormatCompleted formats a completed row, referenced as cN.
// Format: "{cN:>4}  {TITLE}\n"
func FormatCompleted(w io.Writer, num int, task service.Task, editing bool) {
	ref := fmt.Sprintf("%s%d", CompletedPrefix, num)
	fmt.Fprintf(w, "%4s  %s%s\n", ref, normalizeTitle(task.Title), marker(editing))
}

// Views writes the pending section followed by the completed section.
// It returns false, writing nothing, when there is nothing to show.
func Views(w io.Writer, pending, completed []service.Task, opts ViewOptions) bool {
	if len(pending) == 0 && (opts.PendingOnly || len(completed) == 0) {
		return false
	}

	FormatSection(w, PendingHeader)
	for i, t := range pending {
		FormatPending(w, i+1, t, isEditing(t, opts.EditingID))
	}

	if opts.PendingOnly {
		return true
	}

	FormatSection(w, CompletedHeader)
	for i, t := range completed {
		FormatCompleted(w, i+1, t, isEditing(t, opts.EditingID))
	}
	return true
}

func isEditing(t service.Task, editingID string) bool {
	return editingID != "" && t.ID == editingID
}

func marker(editing bool) string {
	if editing {
		return EditingMarker
	}
	return ""
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
