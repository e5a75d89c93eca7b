package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"careerarc/internal/config"
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
	"careerarc/internal/profile"
	"careerarc/internal/profilestore"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

var (
	ErrEmptyFile    = errors.New("uploaded file is empty")
	ErrFileTooLarge = errors.New("uploaded file exceeds the size limit")
)

// Archiver keeps a copy of uploaded files
type Archiver interface {
	UploadCV(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
}

// ProfilePublisher receives the outcome of successful imports
type ProfilePublisher interface {
	Publish(ctx context.Context, userID string, raw profile.RawProfile, taskID string, warning *string) (*profilestore.Entry, error)
	Invalidate(ctx context.Context, userID string) error
}

// Service is the import subsystem as seen by the API: it archives uploads,
// submits them, watches them to completion and publishes the result
type Service struct {
	tracker     *Tracker
	watcher     *Watcher
	archive     Archiver
	profiles    ProfilePublisher
	maxFileSize int64
	trackerOpts []TrackerOption
	logger      types.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithArchiver enables upload archiving
func WithArchiver(a Archiver) ServiceOption {
	return func(s *Service) { s.archive = a }
}

// WithTrackerOptions passes options through to the tracker
func WithTrackerOptions(opts ...TrackerOption) ServiceOption {
	return func(s *Service) { s.trackerOpts = append(s.trackerOpts, opts...) }
}

// NewService wires the tracker and watcher for the configured import settings
func NewService(cfg *config.Config, store TaskStore, extraction ExtractionService, profiles ProfilePublisher, opts ...ServiceOption) *Service {
	s := &Service{
		profiles:    profiles,
		maxFileSize: cfg.Imports.MaxFileSize,
		logger:      logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	trackerOpts := append([]TrackerOption{WithPollTimeout(cfg.Imports.RequestTimeout)}, s.trackerOpts...)
	trackerOpts = append(trackerOpts, WithTerminalHook(s.handleTerminal))
	s.tracker = NewTracker(store, extraction, cfg.Imports.MaxAttempts, trackerOpts...)
	s.watcher = NewWatcher(s.tracker, cfg.Imports.PollInterval, cfg.Imports.MaxWatchers,
		WithRetention(cfg.Imports.TaskTTL, cfg.Imports.CleanupInterval))
	return s
}

// Start starts watching submitted imports
func (s *Service) Start(ctx context.Context) error {
	return s.watcher.Start(ctx)
}

// Stop abandons watched imports
func (s *Service) Stop(ctx context.Context) error {
	return s.watcher.Stop(ctx)
}

// IsHealthy reports whether new imports are watched
func (s *Service) IsHealthy() bool {
	return s.watcher.IsHealthy()
}

// Import submits an upload and starts watching it. When the watcher is
// saturated the task is still returned; it then advances only through
// caller-driven polls.
func (s *Service) Import(ctx context.Context, upload Upload) (*models.ImportTask, error) {
	if len(upload.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if s.maxFileSize > 0 && int64(len(upload.Data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(upload.Data), s.maxFileSize)
	}

	if s.archive != nil {
		key := utils.CVObjectKey(upload.UserID, uuid.New().String(), upload.Filename)
		ref, err := s.archive.UploadCV(ctx, key, upload.Data, upload.ContentType)
		if err != nil {
			// archiving is best effort, the import itself does not need it
			s.logger.Warn("Failed to archive CV upload", map[string]interface{}{
				"user_id":  upload.UserID,
				"filename": upload.Filename,
				"error":    err.Error(),
			})
		} else {
			upload.SourceRef = ref
		}
	}

	task, err := s.tracker.Submit(ctx, upload)
	if err != nil {
		return nil, err
	}

	if err := s.watcher.Watch(task.ID); err != nil {
		s.logger.Warn("Import accepted without background watching", map[string]interface{}{
			"task_id": task.ID,
			"reason":  err.Error(),
		})
	}
	return task, nil
}

// Get returns a task owned by userID. An empty userID skips the ownership check.
func (s *Service) Get(ctx context.Context, userID, taskID string) (*models.ImportTask, error) {
	task, err := s.tracker.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(task, userID); err != nil {
		return nil, err
	}
	return task, nil
}

// Poll performs one caller-driven status check
func (s *Service) Poll(ctx context.Context, userID, taskID string) (*models.ImportTask, error) {
	if _, err := s.Get(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.tracker.Poll(ctx, taskID)
}

// List returns the tasks of userID, newest first
func (s *Service) List(ctx context.Context, userID string) ([]*models.ImportTask, error) {
	return s.tracker.List(ctx, userID)
}

// Delete forgets a task owned by userID
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := s.Get(ctx, userID, taskID); err != nil {
		return err
	}
	return s.tracker.Delete(ctx, taskID)
}

// handleTerminal makes the result of a successful import visible. Failed and
// timed out imports publish nothing.
func (s *Service) handleTerminal(ctx context.Context, task *models.ImportTask, report StatusReport) {
	if !task.ProfileAvailable() || s.profiles == nil || task.UserID == "" {
		return
	}

	if report.Profile != nil {
		if _, err := s.profiles.Publish(ctx, task.UserID, report.Profile, task.ID, task.ErrorDetail); err != nil {
			s.logger.Error("Failed to publish imported profile", map[string]interface{}{
				"task_id": task.ID,
				"user_id": task.UserID,
				"error":   err.Error(),
			})
		}
		return
	}

	// the extraction service wrote into the profile store; drop the stale copy
	if err := s.profiles.Invalidate(ctx, task.UserID); err != nil {
		s.logger.Warn("Failed to invalidate cached profile after import", map[string]interface{}{
			"task_id": task.ID,
			"user_id": task.UserID,
			"error":   err.Error(),
		})
	}
}

func checkOwner(task *models.ImportTask, userID string) error {
	if userID != "" && task.UserID != "" && task.UserID != userID {
		return ErrForbiddenTask
	}
	return nil
}
