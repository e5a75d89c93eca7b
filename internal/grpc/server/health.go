package server

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"careerarc/internal/logging"
)

// ServicePrefix namespaces the per-dependency health service names
const ServicePrefix = "careerarc."

// DefaultCheckInterval is how often dependency statuses are refreshed
const DefaultCheckInterval = 15 * time.Second

const checkTimeout = 3 * time.Second

type healthMonitor struct {
	health   *health.Server
	required map[string]Check
	optional map[string]Check
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newHealthMonitor(h *health.Server, required, optional map[string]Check, interval time.Duration) *healthMonitor {
	return &healthMonitor{
		health:   h,
		required: required,
		optional: optional,
		interval: interval,
	}
}

func (m *healthMonitor) start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.refresh(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.refresh(ctx)
			}
		}
	}()
}

func (m *healthMonitor) stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.cancel()
	m.mu.Unlock()
	m.wg.Wait()
}

// refresh runs every check once and publishes the results
func (m *healthMonitor) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	overall := healthpb.HealthCheckResponse_SERVING
	for name, check := range m.required {
		if !m.publish(ctx, name, check) {
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	for name, check := range m.optional {
		m.publish(ctx, name, check)
	}
	m.health.SetServingStatus("", overall)
}

func (m *healthMonitor) publish(ctx context.Context, name string, check Check) bool {
	status := healthpb.HealthCheckResponse_SERVING
	if err := check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		logging.GetGlobalLogger().Debug("Dependency check failed", map[string]interface{}{
			"dependency": name,
			"error":      err.Error(),
		})
	}
	m.health.SetServingStatus(ServicePrefix+name, status)
	return status == healthpb.HealthCheckResponse_SERVING
}
