// Package googletasks implements service.Store on a single Google Tasks list.
//
// The list plays the role of the tasks table. Google Tasks exposes no creation
// timestamp, so a task's "updated" time stands in for CreatedAt and List sorts
// on it.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskmirror/internal/config"
	"taskmirror/internal/logger"
	"taskmirror/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks requested per page.
	PageSize = 100

	// APITimeout is the timeout for API calls when none is configured.
	APITimeout = 5 * time.Second

	// TasksScope is the OAuth scope for Google Tasks.
	TasksScope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Store using Google Tasks API.
type Client struct {
	svc     *tasks.Service
	listID  string
	timeout time.Duration
}

// New creates a new Google Tasks client from the config directory.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, err
	}

	// Token source refreshes the access token as needed.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	return NewWithOptions(ctx, cfg.Settings.GoogleTasks.ListID, cfg.Settings.RequestTimeout,
		option.WithHTTPClient(httpClient))
}

// NewWithOptions creates a client for listID with arbitrary client options,
// e.g. option.WithEndpoint for tests.
func NewWithOptions(ctx context.Context, listID string, timeout time.Duration, opts ...option.ClientOption) (*Client, error) {
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	if listID == "" {
		listID = DefaultListID
	}
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &Client{svc: svc, listID: listID, timeout: timeout}, nil
}

// List returns every task in the list, including completed and hidden ones,
// newest first.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result []service.Task
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, item := range resp.Items {
				result = append(result, toTask(item))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Insert creates a task at the top of the list.
func (c *Client) Insert(ctx context.Context, title string, isComplete bool) (service.Task, error) {
	if strings.TrimSpace(title) == "" {
		return service.Task{}, fmt.Errorf("%w: empty title", service.ErrInvalidTask)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.svc.Tasks.Insert(c.listID, &tasks.Task{
		Title:  title,
		Status: status(isComplete),
	}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}

	logger.FromContext(ctx).Debug("task inserted", "task_id", created.Id)
	return toTask(created), nil
}

// UpdateTitle sets the title of an existing task.
func (c *Client) UpdateTitle(ctx context.Context, id, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: empty title", service.ErrInvalidTask)
	}
	return c.patch(ctx, id, &tasks.Task{Title: title})
}

// UpdateComplete marks a task completed or back to needsAction.
// Reopening a task also clears its completion date.
func (c *Client) UpdateComplete(ctx context.Context, id string, isComplete bool) error {
	patch := &tasks.Task{Status: status(isComplete)}
	if !isComplete {
		patch.NullFields = []string{"Completed"}
	}
	return c.patch(ctx, id, patch)
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func (c *Client) patch(ctx context.Context, id string, patch *tasks.Task) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.svc.Tasks.Patch(c.listID, id, patch).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func status(isComplete bool) string {
	if isComplete {
		return statusCompleted
	}
	return statusNeedsAction
}

// toTask converts an API task. Unparseable timestamps become the zero time,
// which sorts last.
func toTask(t *tasks.Task) service.Task {
	updated, _ := time.Parse(time.RFC3339, t.Updated)
	return service.Task{
		ID:         t.Id,
		Title:      t.Title,
		IsComplete: t.Status == statusCompleted,
		CreatedAt:  updated.UTC(),
	}
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	// Check for timeout
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: token expired or revoked (run: taskmirror login)", service.ErrUnauthorized)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", service.ErrNotFound, apiMessage(apiErr))
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", service.ErrInvalidTask, apiMessage(apiErr))
		}
	}

	return err
}

func apiMessage(e *googleapi.Error) string {
	if e.Message != "" {
		return e.Message
	}
	return strings.ToLower(http.StatusText(e.Code))
}
