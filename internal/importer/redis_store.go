package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

const (
	redisTaskPrefix  = "careerarc:import:task:"
	redisAuthPrefix  = "careerarc:import:auth:"
	redisLeasePrefix = "careerarc:import:poll:"
	redisUserPrefix  = "careerarc:import:user:"
	redisAllTasksKey = "careerarc:import:tasks"

	// pollLeaseMargin covers the store round trips around one status check
	pollLeaseMargin = 30 * time.Second
)

// PollLease returns how long a poll lease is held. It outlives the longest
// status check, so a lease never expires under a running poll.
func PollLease(pollTimeout time.Duration) time.Duration {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return pollTimeout + pollLeaseMargin
}

// RedisTaskStore implements TaskStore on Redis so several service replicas
// share one task registry and one poll lease per task
type RedisTaskStore struct {
	client *utils.RedisClient
	ttl    time.Duration
	lease  time.Duration
	logger types.Logger
}

// NewRedisTaskStore creates a task store whose entries expire after ttl.
// pollTimeout is the tracker's bound on one status check.
func NewRedisTaskStore(client *utils.RedisClient, ttl, pollTimeout time.Duration) *RedisTaskStore {
	return &RedisTaskStore{
		client: client,
		ttl:    ttl,
		lease:  PollLease(pollTimeout),
		logger: logging.GetGlobalLogger(),
	}
}

func taskKey(id string) string      { return redisTaskPrefix + id }
func authKey(id string) string      { return redisAuthPrefix + id }
func leaseKey(id string) string     { return redisLeasePrefix + id }
func userTasksKey(id string) string { return redisUserPrefix + id }

// Create stores a new task
func (s *RedisTaskStore) Create(ctx context.Context, task *models.ImportTask) error {
	exists, err := s.client.Exists(ctx, taskKey(task.ID))
	if err != nil {
		return err
	}
	if exists {
		return ErrTaskExists
	}

	if err := s.client.SetJSON(ctx, taskKey(task.ID), task, s.ttl); err != nil {
		return err
	}
	// the credential is not part of the task document
	if task.AuthToken != "" {
		if err := s.client.SetJSON(ctx, authKey(task.ID), task.AuthToken, s.ttl); err != nil {
			return fmt.Errorf("failed to store task credential: %w", err)
		}
	}
	if err := s.client.AddToSet(ctx, redisAllTasksKey, task.ID); err != nil {
		return fmt.Errorf("failed to index task: %w", err)
	}
	if task.UserID != "" {
		if err := s.client.AddToSet(ctx, userTasksKey(task.UserID), task.ID); err != nil {
			return fmt.Errorf("failed to index task for user: %w", err)
		}
	}
	return nil
}

// Get retrieves a task by ID
func (s *RedisTaskStore) Get(ctx context.Context, taskID string) (*models.ImportTask, error) {
	var task models.ImportTask
	if err := s.client.GetJSON(ctx, taskKey(taskID), &task); err != nil {
		if errors.Is(err, utils.ErrRedisKeyNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if err := s.client.GetJSON(ctx, authKey(taskID), &task.AuthToken); err != nil && !errors.Is(err, utils.ErrRedisKeyNotFound) {
		return nil, err
	}
	return &task, nil
}

// Update replaces an existing task, keeping its remaining lifetime
func (s *RedisTaskStore) Update(ctx context.Context, task *models.ImportTask) error {
	key := taskKey(task.ID)
	exists, err := s.client.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTaskNotFound
	}

	ttl := s.client.KeepTTL(ctx, key)
	if ttl == 0 {
		ttl = s.ttl
	}
	return s.client.SetJSON(ctx, key, task, ttl)
}

// Delete removes a task
func (s *RedisTaskStore) Delete(ctx context.Context, taskID string) error {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.client.Delete(ctx, taskKey(taskID), authKey(taskID), leaseKey(taskID)); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	_ = s.client.RemoveFromSet(ctx, redisAllTasksKey, taskID)
	if task.UserID != "" {
		_ = s.client.RemoveFromSet(ctx, userTasksKey(task.UserID), taskID)
	}
	return nil
}

// List returns the tasks of one user, newest first. Index entries whose task
// has expired are skipped and pruned.
func (s *RedisTaskStore) List(ctx context.Context, userID string) ([]*models.ImportTask, error) {
	indexKey := redisAllTasksKey
	if userID != "" {
		indexKey = userTasksKey(userID)
	}

	ids, err := s.client.SetMembers(ctx, indexKey)
	if err != nil {
		return nil, err
	}

	results := make([]*models.ImportTask, 0, len(ids))
	for _, id := range ids {
		task, err := s.Get(ctx, id)
		if errors.Is(err, ErrTaskNotFound) {
			_ = s.client.RemoveFromSet(ctx, indexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, task)
	}
	sortNewestFirst(results)
	return results, nil
}

// Cleanup prunes index entries of expired tasks and removes tasks created
// before cutoff. Task documents expire on their own through their TTL.
func (s *RedisTaskStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	ids, err := s.client.SetMembers(ctx, redisAllTasksKey)
	if err != nil {
		return err
	}

	removed := 0
	for _, id := range ids {
		task, err := s.Get(ctx, id)
		switch {
		case errors.Is(err, ErrTaskNotFound):
			_ = s.client.RemoveFromSet(ctx, redisAllTasksKey, id)
			removed++
		case err != nil:
			return err
		case task.CreatedAt.Before(cutoff):
			if err := s.Delete(ctx, id); err != nil && !errors.Is(err, ErrTaskNotFound) {
				return err
			}
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("Pruned expired import tasks", map[string]interface{}{
			"removed": removed,
		})
	}
	return nil
}

// AcquirePoll takes the poll lease of a task
func (s *RedisTaskStore) AcquirePoll(ctx context.Context, taskID string) (bool, error) {
	exists, err := s.client.Exists(ctx, taskKey(taskID))
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrTaskNotFound
	}
	return s.client.SetNX(ctx, leaseKey(taskID), time.Now().UnixNano(), s.lease)
}

// ReleasePoll gives the poll lease back
func (s *RedisTaskStore) ReleasePoll(ctx context.Context, taskID string) error {
	return s.client.Delete(ctx, leaseKey(taskID))
}
