package profilestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
	"careerarc/internal/profile"
)

// Profile sources recorded on cache entries
const (
	SourceStore  = "profile_store"
	SourceImport = "import"
)

// Service serves normalized profiles: a cached entry when one exists,
// otherwise a fresh fetch from the profile store. Import completions publish
// into the same cache, which is how an imported profile becomes visible.
type Service struct {
	source Source
	cache  Cache
	group  singleflight.Group
	now    func() time.Time
	logger types.Logger
}

// NewService creates a profile service. source may be nil when no profile
// store is configured; only published profiles are served then.
func NewService(source Source, cache Cache) *Service {
	return &Service{
		source: source,
		cache:  cache,
		now:    time.Now,
		logger: logging.GetGlobalLogger(),
	}
}

// Load returns the user's normalized profile. Concurrent loads for the same
// user share a single profile store request.
func (s *Service) Load(ctx context.Context, userID, authToken string) (*Entry, error) {
	if userID != "" {
		entry, err := s.cache.Get(ctx, userID)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("Profile cache read failed, fetching from store", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	if s.source == nil {
		return nil, ErrNoProfile
	}

	key := userID
	if key == "" {
		key = "token:" + authToken
	}
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		raw, err := s.source.FetchProfile(ctx, authToken)
		if err != nil {
			return nil, err
		}
		entry := &Entry{
			Profile:   profile.Normalize(raw),
			Source:    SourceStore,
			UpdatedAt: s.now(),
		}
		if userID != "" {
			if err := s.cache.Put(ctx, userID, entry); err != nil {
				s.logger.Warn("Failed to cache profile", map[string]interface{}{
					"user_id": userID,
					"error":   err.Error(),
				})
			}
		}
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Profile fetch shared between concurrent requests", map[string]interface{}{
			"user_id": userID,
		})
	}
	cp := *v.(*Entry)
	return &cp, nil
}

// Publish normalizes a freshly imported document and makes it the user's
// current profile. warning carries the error detail of a partial import.
func (s *Service) Publish(ctx context.Context, userID string, raw profile.RawProfile, taskID string, warning *string) (*Entry, error) {
	if userID == "" {
		return nil, fmt.Errorf("cannot publish a profile without a user id")
	}

	entry := &Entry{
		Profile:   profile.Normalize(raw),
		Source:    SourceImport,
		TaskID:    taskID,
		Warning:   warning,
		UpdatedAt: s.now(),
	}
	if entry.Profile.UserID == "" {
		entry.Profile.UserID = userID
	}
	if err := s.cache.Put(ctx, userID, entry); err != nil {
		return nil, fmt.Errorf("failed to publish profile: %w", err)
	}

	s.logger.Info("Imported profile published", map[string]interface{}{
		"user_id":         userID,
		"task_id":         taskID,
		"work_experience": len(entry.Profile.WorkExperience),
		"skills":          len(entry.Profile.Skills),
		"partial":         warning != nil,
	})
	return entry, nil
}

// Refresh drops the cached profile and loads it again from the store
func (s *Service) Refresh(ctx context.Context, userID, authToken string) (*Entry, error) {
	if userID != "" {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to invalidate cached profile: %w", err)
		}
	}
	return s.Load(ctx, userID, authToken)
}

// Invalidate drops the cached profile of a user
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	return s.cache.Invalidate(ctx, userID)
}

// HasSource reports whether a profile store is configured
func (s *Service) HasSource() bool {
	return s.source != nil
}
