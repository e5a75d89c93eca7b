package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
)

// Watcher configuration constants
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultMaxWatchers     = 50
	DefaultCleanupInterval = time.Hour

	MinPollInterval = 10 * time.Millisecond
	MaxWatchers     = 10000
)

// Watcher runs one timer-driven poll loop per submitted task until the task
// reaches a terminal status. The number of concurrent loops is bounded.
// With retention enabled it also forgets old tasks periodically.
type Watcher struct {
	tracker  *Tracker
	interval time.Duration
	slots    chan struct{}
	logger   types.Logger

	cleanupEvery time.Duration
	retention    time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	active  map[string]struct{}
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithRetention removes tasks older than retention every cleanupEvery.
// A non-positive retention keeps tasks forever.
func WithRetention(retention, cleanupEvery time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.retention = retention
		if cleanupEvery > 0 {
			w.cleanupEvery = cleanupEvery
		}
	}
}

// NewWatcher creates a watcher polling every interval with at most
// maxWatchers tasks watched at once
func NewWatcher(tracker *Tracker, interval time.Duration, maxWatchers int, opts ...WatcherOption) *Watcher {
	logger := logging.GetGlobalLogger()

	if interval < MinPollInterval {
		logger.Warn("Poll interval below minimum, using default", map[string]interface{}{
			"interval": interval.String(),
			"default":  DefaultPollInterval.String(),
		})
		interval = DefaultPollInterval
	}
	if maxWatchers <= 0 || maxWatchers > MaxWatchers {
		maxWatchers = DefaultMaxWatchers
	}

	w := &Watcher{
		tracker:      tracker,
		interval:     interval,
		slots:        make(chan struct{}, maxWatchers),
		logger:       logger,
		cleanupEvery: DefaultCleanupInterval,
		active:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start enables watching
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("import watcher already running")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.running = true

	if w.retention > 0 {
		w.wg.Add(1)
		go w.cleanupRoutine(w.ctx)
	}

	w.logger.Info("Import watcher started", map[string]interface{}{
		"poll_interval": w.interval.String(),
		"max_watchers":  cap(w.slots),
		"retention":     w.retention.String(),
	})
	return nil
}

// Stop abandons every poll loop and waits for them to exit
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Import watcher stopped gracefully", map[string]interface{}{})
	case <-ctx.Done():
		w.logger.Warn("Import watcher shutdown timed out", map[string]interface{}{})
		return ctx.Err()
	}
	return nil
}

// Watch starts polling a task in the background. Watching a task that is
// already watched is a no-op.
func (w *Watcher) Watch(taskID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return ErrWatcherStopped
	}
	if _, watched := w.active[taskID]; watched {
		return nil
	}

	select {
	case w.slots <- struct{}{}:
	default:
		return ErrWatcherFull
	}

	w.active[taskID] = struct{}{}
	w.wg.Add(1)
	go w.watch(w.ctx, taskID)
	return nil
}

// Active returns the number of tasks being watched
func (w *Watcher) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.active)
}

// IsHealthy reports whether the watcher accepts new tasks
func (w *Watcher) IsHealthy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watch(ctx context.Context, taskID string) {
	defer func() {
		w.mu.Lock()
		delete(w.active, taskID)
		w.mu.Unlock()
		<-w.slots
		w.wg.Done()
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Stopped watching import task", map[string]interface{}{
				"task_id": taskID,
			})
			return
		case <-ticker.C:
		}

		task, err := w.tracker.Poll(ctx, taskID)
		switch {
		case errors.Is(err, ErrPollInFlight):
			// someone else is polling; try again on the next tick
			continue
		case errors.Is(err, ErrTaskNotFound):
			return
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			failures++
			w.logger.Error("Failed to poll import task", map[string]interface{}{
				"task_id":  taskID,
				"failures": failures,
				"error":    err.Error(),
			})
			if failures >= w.tracker.maxAttempts {
				return
			}
			continue
		}
		failures = 0

		if task.Status.IsTerminal() {
			return
		}
	}
}

// cleanupRoutine periodically forgets tasks past their retention
func (w *Watcher) cleanupRoutine(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.tracker.Cleanup(ctx, w.retention); err != nil && ctx.Err() == nil {
				w.logger.Error("Failed to clean up old import tasks", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}
