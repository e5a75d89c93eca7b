package importer

import (
	"context"
	"sort"
	"sync"
	"time"

	"careerarc/pkg/models"
)

// TaskStore defines the interface for storing and retrieving import tasks.
// Implementations hand out copies, so a caller can never mutate a stored task
// without going through Update.
type TaskStore interface {
	// Create stores a new task
	Create(ctx context.Context, task *models.ImportTask) error

	// Get retrieves a task by ID
	Get(ctx context.Context, taskID string) (*models.ImportTask, error)

	// Update replaces an existing task
	Update(ctx context.Context, task *models.ImportTask) error

	// Delete removes a task
	Delete(ctx context.Context, taskID string) error

	// List returns the tasks of one user, or every task when userID is empty,
	// newest first
	List(ctx context.Context, userID string) ([]*models.ImportTask, error)

	// Cleanup removes tasks created before cutoff
	Cleanup(ctx context.Context, cutoff time.Time) error

	// AcquirePoll takes the poll lease of a task. It returns false when
	// another poller holds it.
	AcquirePoll(ctx context.Context, taskID string) (bool, error)

	// ReleasePoll gives the poll lease back
	ReleasePoll(ctx context.Context, taskID string) error
}

// InMemoryTaskStore implements TaskStore using in-memory storage
type InMemoryTaskStore struct {
	mu       sync.RWMutex
	tasks    map[string]*models.ImportTask
	inFlight map[string]struct{}
}

// NewInMemoryTaskStore creates a new in-memory task store
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks:    make(map[string]*models.ImportTask),
		inFlight: make(map[string]struct{}),
	}
}

// Create stores a new task
func (s *InMemoryTaskStore) Create(ctx context.Context, task *models.ImportTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return ErrTaskExists
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get retrieves a task by ID
func (s *InMemoryTaskStore) Get(ctx context.Context, taskID string) (*models.ImportTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, ErrTaskNotFound
	}
	return task.Clone(), nil
}

// Update replaces an existing task
func (s *InMemoryTaskStore) Update(ctx context.Context, task *models.ImportTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		return ErrTaskNotFound
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Delete removes a task
func (s *InMemoryTaskStore) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	delete(s.inFlight, taskID)
	return nil
}

// List returns the tasks of one user, newest first
func (s *InMemoryTaskStore) List(ctx context.Context, userID string) ([]*models.ImportTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*models.ImportTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		if userID != "" && task.UserID != userID {
			continue
		}
		results = append(results, task.Clone())
	}
	sortNewestFirst(results)
	return results, nil
}

// Cleanup removes tasks created before cutoff. Tasks being polled are kept.
func (s *InMemoryTaskStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, task := range s.tasks {
		if _, polling := s.inFlight[id]; polling {
			continue
		}
		if task.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
		}
	}
	return nil
}

// AcquirePoll takes the poll lease of a task
func (s *InMemoryTaskStore) AcquirePoll(ctx context.Context, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return false, ErrTaskNotFound
	}
	if _, held := s.inFlight[taskID]; held {
		return false, nil
	}
	s.inFlight[taskID] = struct{}{}
	return true, nil
}

// ReleasePoll gives the poll lease back
func (s *InMemoryTaskStore) ReleasePoll(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, taskID)
	return nil
}

func sortNewestFirst(tasks []*models.ImportTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// Common errors
var (
	ErrTaskNotFound   = NewTaskError("task not found", "TASK_NOT_FOUND")
	ErrTaskExists     = NewTaskError("task already exists", "TASK_EXISTS")
	ErrPollInFlight   = NewTaskError("task is already being polled", "POLL_IN_FLIGHT")
	ErrWatcherFull    = NewTaskError("too many imports are being watched", "WATCHER_FULL")
	ErrWatcherStopped = NewTaskError("import watcher is not running", "WATCHER_STOPPED")
	ErrForbiddenTask  = NewTaskError("task belongs to another user", "TASK_FORBIDDEN")
)

// TaskError represents an import task error
type TaskError struct {
	Message string
	Code    string
}

func NewTaskError(message, code string) *TaskError {
	return &TaskError{
		Message: message,
		Code:    code,
	}
}

func (e *TaskError) Error() string {
	return e.Message
}
