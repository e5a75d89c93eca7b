package interceptors

import (
	"context"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"
)

// MethodStats are the call counters of one gRPC method
type MethodStats struct {
	Method          string        `json:"method"`
	RequestCount    int64         `json:"request_count"`
	ErrorCount      int64         `json:"error_count"`
	AverageDuration time.Duration `json:"average_duration"`
	LastCalled      time.Time     `json:"last_called"`
}

// MetricsCollector counts calls per method
type MetricsCollector struct {
	mu      sync.Mutex
	methods map[string]*methodTotals
}

type methodTotals struct {
	requests int64
	errors   int64
	total    time.Duration
	last     time.Time
}

// NewMetricsCollector creates an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{methods: make(map[string]*methodTotals)}
}

// Record adds one call to the method's counters
func (c *MetricsCollector) Record(method string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.methods[method]
	if !ok {
		m = &methodTotals{}
		c.methods[method] = m
	}
	m.requests++
	m.total += duration
	m.last = time.Now()
	if err != nil {
		m.errors++
	}
}

// Snapshot returns the counters of every method seen so far, sorted by method
func (c *MetricsCollector) Snapshot() []MethodStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]MethodStats, 0, len(c.methods))
	for method, m := range c.methods {
		out = append(out, MethodStats{
			Method:          method,
			RequestCount:    m.requests,
			ErrorCount:      m.errors,
			AverageDuration: m.total / time.Duration(m.requests),
			LastCalled:      m.last,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out
}

// MetricsInterceptor records unary calls into c
func MetricsInterceptor(c *MetricsCollector) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		c.Record(info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// StreamMetricsInterceptor records streaming calls into c
func StreamMetricsInterceptor(c *MetricsCollector) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		c.Record(info.FullMethod, time.Since(start), err)
		return err
	}
}
