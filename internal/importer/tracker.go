// Package importer tracks CV import tasks from upload to a terminal state
// and hands finished extractions over to profile normalization.
package importer

import (
	"context"
	"fmt"
	"time"

	"careerarc/pkg/models"
)

const (
	// DefaultMaxAttempts is the poll budget of a task before it is timed out
	DefaultMaxAttempts = 30

	// DefaultPollTimeout bounds one status check, rate limiter wait included
	DefaultPollTimeout = 30 * time.Second
)

// TerminalHook runs once, right after a task reaches a terminal status.
// report is the status report that caused the transition; it is empty when
// the task timed out locally.
type TerminalHook func(ctx context.Context, task *models.ImportTask, report StatusReport)

// Tracker drives the lifecycle of import tasks. Each poll performs at most one
// status call and statuses only ever move forward.
type Tracker struct {
	store       TaskStore
	service     ExtractionService
	maxAttempts int
	pollTimeout time.Duration
	now         func() time.Time
	logger      *CompletionLogger
	onTerminal  TerminalHook
}

// TrackerOption configures a Tracker
type TrackerOption func(*Tracker)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithPollTimeout bounds each status check. Non-positive values keep
// DefaultPollTimeout.
func WithPollTimeout(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.pollTimeout = d
		}
	}
}

// WithTerminalHook registers a hook for terminal transitions
func WithTerminalHook(hook TerminalHook) TrackerOption {
	return func(t *Tracker) { t.onTerminal = hook }
}

// NewTracker creates a tracker. A non-positive maxAttempts uses DefaultMaxAttempts.
func NewTracker(store TaskStore, service ExtractionService, maxAttempts int, opts ...TrackerOption) *Tracker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	t := &Tracker{
		store:       store,
		service:     service,
		maxAttempts: maxAttempts,
		pollTimeout: DefaultPollTimeout,
		now:         time.Now,
		logger:      NewCompletionLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submit hands the upload to the extraction service and records a pending
// task under the ID the service issued. It does not poll.
func (t *Tracker) Submit(ctx context.Context, upload Upload) (*models.ImportTask, error) {
	taskID, err := t.service.Submit(ctx, upload)
	if err != nil {
		return nil, fmt.Errorf("failed to submit upload: %w", err)
	}
	if taskID == "" {
		return nil, fmt.Errorf("extraction service returned an empty task id")
	}

	now := t.now()
	task := &models.ImportTask{
		ID:        taskID,
		UserID:    upload.UserID,
		Status:    models.ImportStatusPending,
		SourceRef: sourceRef(upload),
		CreatedAt: now,
		UpdatedAt: now,
		AuthToken: upload.AuthToken,
	}
	if err := t.store.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to store task: %w", err)
	}

	t.logger.LogTaskAccepted(task)
	return task, nil
}

// Poll performs one status check for the task and returns the updated task.
// A terminal task is returned unchanged without contacting the service.
// Status-check failures are recorded on the task, not returned: the task keeps
// its status and the attempt still counts toward the time-out budget.
func (t *Tracker) Poll(ctx context.Context, taskID string) (*models.ImportTask, error) {
	acquired, err := t.store.AcquirePoll(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrPollInFlight
	}
	defer func() {
		// release even when the caller's context is already done
		_ = t.store.ReleasePoll(context.WithoutCancel(ctx), taskID)
	}()

	task, err := t.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return task, nil
	}

	from := task.Status
	statusCtx, cancel := context.WithTimeout(ctx, t.pollTimeout)
	report, statusErr := t.service.Status(statusCtx, taskID, task.AuthToken)
	cancel()
	task.Attempts++
	task.UpdatedAt = t.now()

	if statusErr != nil {
		task.LastPollError = statusErr.Error()
		t.logger.LogPollError(task, statusErr)
		report = StatusReport{}
	} else {
		t.apply(task, report)
	}

	if !task.Status.IsTerminal() && task.Attempts >= t.maxAttempts {
		task.Status = models.ImportStatusTimedOut
		task.ErrorDetail = stringPtr(fmt.Sprintf("no terminal status after %d status checks", task.Attempts))
		report = StatusReport{}
	}

	if task.Status.IsTerminal() {
		completedAt := task.UpdatedAt
		task.CompletedAt = &completedAt
	}

	if err := t.store.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	switch {
	case task.Status.IsTerminal():
		t.logger.LogTaskCompletion(task)
		if t.onTerminal != nil {
			t.onTerminal(ctx, task.Clone(), report)
		}
	case task.Status != from:
		t.logger.LogTransition(task, from)
	}
	return task, nil
}

// apply folds a status report into the task without ever moving backwards
func (t *Tracker) apply(task *models.ImportTask, report StatusReport) {
	if !report.Status.IsValid() {
		task.LastPollError = fmt.Sprintf("unknown import status %q", report.Status)
		return
	}
	task.LastPollError = ""

	if report.Summary != nil {
		s := *report.Summary
		task.Summary = &s
	}
	if report.Status.Rank() <= task.Status.Rank() {
		return
	}

	task.Status = report.Status
	switch report.Status {
	case models.ImportStatusCompletedWithErrors, models.ImportStatusFailed:
		detail := "extraction failed"
		if report.Status == models.ImportStatusCompletedWithErrors {
			detail = "extraction completed with errors"
		}
		if report.Error != nil && *report.Error != "" {
			detail = *report.Error
		}
		task.ErrorDetail = &detail
	}
}

// Get returns a task
func (t *Tracker) Get(ctx context.Context, taskID string) (*models.ImportTask, error) {
	return t.store.Get(ctx, taskID)
}

// List returns the tasks of a user, newest first
func (t *Tracker) List(ctx context.Context, userID string) ([]*models.ImportTask, error) {
	return t.store.List(ctx, userID)
}

// Cleanup forgets tasks created more than maxAge ago
func (t *Tracker) Cleanup(ctx context.Context, maxAge time.Duration) error {
	return t.store.Cleanup(ctx, t.now().Add(-maxAge))
}

// PollTimeout returns the bound of one status check
func (t *Tracker) PollTimeout() time.Duration {
	return t.pollTimeout
}

// Delete forgets a task. The extraction service is not told to cancel.
func (t *Tracker) Delete(ctx context.Context, taskID string) error {
	return t.store.Delete(ctx, taskID)
}

func sourceRef(upload Upload) string {
	if upload.SourceRef != "" {
		return upload.SourceRef
	}
	return upload.Filename
}

func stringPtr(s string) *string {
	return &s
}
