// Package extraction is the in-process CV extraction backend. Uploaded files
// are queued to a bounded worker pool which extracts their text, has it
// structured into a profile document and reports the outcome through the
// same submit/status contract as the remote extraction service.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"careerarc/internal/config"
	"careerarc/internal/importer"
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
	"careerarc/internal/profile"
	"careerarc/pkg/models"
)

// Worker pool configuration constants
const (
	DefaultPoolSize  = 4
	DefaultQueueSize = 100

	MinPoolSize  = 1
	MinQueueSize = 1

	MaxPoolSize  = 256
	MaxQueueSize = 10000

	DefaultJobTimeout = 3 * time.Minute
	cleanupInterval   = 10 * time.Minute
)

var (
	ErrQueueFull      = errors.New("extraction queue is full")
	ErrNotRunning     = errors.New("extraction service is not running")
	ErrUnknownJob     = errors.New("unknown extraction job")
	ErrNoTextInUpload = errors.New("no text could be extracted from the file")
)

// Structurer turns CV text into a raw profile document
type Structurer interface {
	StructureProfile(ctx context.Context, cvText string) (profile.RawProfile, error)
}

type job struct {
	id        string
	upload    importer.Upload
	status    models.ImportStatus
	summary   *models.ExtractedSummary
	errDetail *string
	profile   profile.RawProfile
	createdAt time.Time
	doneAt    time.Time
}

// LocalService implements importer.ExtractionService in process
type LocalService struct {
	structurer Structurer
	logger     types.Logger
	poolSize   int
	queueSize  int
	jobTimeout time.Duration
	retention  time.Duration

	mu      sync.RWMutex
	jobs    map[string]*job
	queue   chan string
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// validatePoolConfig validates and returns safe worker pool values
func validatePoolConfig(cfg *config.Config) (poolSize, queueSize int, err error) {
	poolSize = cfg.Extraction.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	} else if poolSize < MinPoolSize {
		return 0, 0, fmt.Errorf("extraction pool size (%d) is below minimum (%d)", poolSize, MinPoolSize)
	} else if poolSize > MaxPoolSize {
		return 0, 0, fmt.Errorf("extraction pool size (%d) exceeds maximum (%d)", poolSize, MaxPoolSize)
	}

	queueSize = cfg.Extraction.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	} else if queueSize < MinQueueSize {
		return 0, 0, fmt.Errorf("extraction queue size (%d) is below minimum (%d)", queueSize, MinQueueSize)
	} else if queueSize > MaxQueueSize {
		return 0, 0, fmt.Errorf("extraction queue size (%d) exceeds maximum (%d)", queueSize, MaxQueueSize)
	}

	return poolSize, queueSize, nil
}

// NewLocalService creates the in-process extraction backend
func NewLocalService(cfg *config.Config, structurer Structurer) *LocalService {
	logger := logging.GetGlobalLogger()

	poolSize, queueSize, err := validatePoolConfig(cfg)
	if err != nil {
		logger.Warn("Extraction pool configuration validation failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		poolSize = DefaultPoolSize
		queueSize = DefaultQueueSize
	}

	timeout := cfg.Extraction.Timeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	retention := cfg.Imports.TaskTTL
	if retention <= 0 {
		retention = 24 * time.Hour
	}

	return &LocalService{
		structurer: structurer,
		logger:     logger,
		poolSize:   poolSize,
		queueSize:  queueSize,
		jobTimeout: timeout,
		retention:  retention,
		jobs:       make(map[string]*job),
		queue:      make(chan string, queueSize),
	}
}

// Start starts the worker pool
func (s *LocalService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("extraction service already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	for i := 0; i < s.poolSize; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.wg.Add(1)
	go s.cleanupRoutine()

	s.logger.Info("Local extraction service started", map[string]interface{}{
		"pool_size":  s.poolSize,
		"queue_size": s.queueSize,
	})
	return nil
}

// Stop cancels running jobs and waits for the workers to exit. Jobs still
// queued are abandoned.
func (s *LocalService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Local extraction service stopped gracefully", map[string]interface{}{})
	case <-ctx.Done():
		s.logger.Warn("Local extraction service shutdown timed out", map[string]interface{}{})
		return ctx.Err()
	}
	return nil
}

// IsHealthy reports whether the pool accepts work
func (s *LocalService) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Submit queues an upload and returns its job id
func (s *LocalService) Submit(ctx context.Context, upload importer.Upload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return "", ErrNotRunning
	}

	id := uuid.New().String()
	select {
	case s.queue <- id:
	default:
		return "", ErrQueueFull
	}

	s.jobs[id] = &job{
		id:        id,
		upload:    upload,
		status:    models.ImportStatusPending,
		createdAt: time.Now(),
	}
	return id, nil
}

// Status reports the current state of a job. The structured profile is
// attached once the job completed. Jobs live in process, so no credential
// is checked.
func (s *LocalService) Status(ctx context.Context, id, _ string) (importer.StatusReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return importer.StatusReport{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	report := importer.StatusReport{Status: j.status}
	if j.summary != nil {
		summary := *j.summary
		report.Summary = &summary
	}
	if j.errDetail != nil {
		detail := *j.errDetail
		report.Error = &detail
	}
	if j.status.ProfileAvailable() {
		report.Profile = j.profile
	}
	return report, nil
}

func (s *LocalService) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case id := <-s.queue:
			s.process(id)
		}
	}
}

func (s *LocalService) process(id string) {
	s.mu.Lock()
	j, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	j.status = models.ImportStatusProcessing
	upload := j.upload
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	raw, warning, err := s.extract(ctx, upload)

	s.mu.Lock()
	defer s.mu.Unlock()

	j.doneAt = time.Now()
	// the upload is no longer needed once processed
	j.upload.Data = nil

	fields := map[string]interface{}{
		"job_id":          id,
		"filename":        upload.Filename,
		"processing_time": time.Since(start).String(),
	}
	if err != nil {
		detail := err.Error()
		j.status = models.ImportStatusFailed
		j.errDetail = &detail
		fields["error"] = detail
		s.logger.Warn("CV extraction failed", fields)
		return
	}

	normalized := profile.Normalize(raw)
	j.profile = raw
	j.summary = summarize(normalized)
	j.status = models.ImportStatusCompleted
	if warning != "" {
		j.status = models.ImportStatusCompletedWithErrors
		j.errDetail = &warning
		fields["warning"] = warning
	}
	fields["work_experience"] = len(normalized.WorkExperience)
	fields["skills"] = len(normalized.Skills)
	s.logger.Info("CV extraction finished", fields)
}

// extract runs the pipeline for one upload. warning is set when malformed
// entries had to be dropped.
func (s *LocalService) extract(ctx context.Context, upload importer.Upload) (profile.RawProfile, string, error) {
	text, err := ExtractText(upload.Filename, upload.ContentType, upload.Data)
	if err != nil {
		return nil, "", err
	}
	if text == "" {
		return nil, "", ErrNoTextInUpload
	}
	if s.structurer == nil {
		return nil, "", fmt.Errorf("no CV structuring backend configured")
	}

	raw, err := s.structurer.StructureProfile(ctx, text)
	if err != nil {
		return nil, "", fmt.Errorf("failed to structure CV: %w", err)
	}

	clean, dropped := Sanitize(raw)
	if dropped > 0 {
		return clean, fmt.Sprintf("%d malformed entries were skipped", dropped), nil
	}
	return clean, "", nil
}

func (s *LocalService) cleanupRoutine() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(time.Now())
		}
	}
}

// cleanup forgets finished jobs older than the retention period
func (s *LocalService) cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, j := range s.jobs {
		if !j.doneAt.IsZero() && now.Sub(j.doneAt) > s.retention {
			delete(s.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("Cleaned up finished extraction jobs", map[string]interface{}{
			"removed": removed,
		})
	}
	return removed
}

func summarize(p *models.CareerProfile) *models.ExtractedSummary {
	return &models.ExtractedSummary{
		WorkExperienceCount: len(p.WorkExperience),
		EducationCount:      len(p.Education),
		SkillsCount:         len(p.Skills),
		ProjectsCount:       len(p.Projects),
		CertificationsCount: len(p.Certifications),
		TrainingCount:       len(p.Training),
	}
}
