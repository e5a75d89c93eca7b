package server

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"careerarc/internal/config"
	"careerarc/internal/grpc/interceptors"
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
)

// Check reports whether one dependency is usable
type Check = func(ctx context.Context) error

// Server exposes the standard gRPC health service. Each dependency is
// published as its own health service name next to the overall status.
type Server struct {
	cfg        *config.Config
	grpcServer *grpc.Server
	health     *health.Server
	monitor    *healthMonitor
	metrics    *interceptors.MetricsCollector
	logger     types.Logger
}

// NewServer creates the gRPC server. required checks decide the overall
// serving status; optional ones are only published individually.
func NewServer(cfg *config.Config, required, optional map[string]Check) *Server {
	metrics := interceptors.NewMetricsCollector()
	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(),
			interceptors.LoggingInterceptor(),
			interceptors.MetricsInterceptor(metrics),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(),
			interceptors.StreamLoggingInterceptor(),
			interceptors.StreamMetricsInterceptor(metrics),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return &Server{
		cfg:        cfg,
		grpcServer: grpcServer,
		health:     healthServer,
		monitor:    newHealthMonitor(healthServer, required, optional, DefaultCheckInterval),
		metrics:    metrics,
		logger:     logging.GetGlobalLogger(),
	}
}

// Start serves on lis until Stop is called. Health statuses are refreshed in
// the background for as long as the server runs.
func (s *Server) Start(lis net.Listener) error {
	s.monitor.start()

	s.logger.Info("Starting gRPC server", map[string]interface{}{
		"address": lis.Addr().String(),
	})
	return s.grpcServer.Serve(lis)
}

// Stop marks every service as not serving and drains in-flight calls
func (s *Server) Stop() {
	s.logger.Info("Shutting down gRPC server", nil)
	s.monitor.stop()
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// Metrics returns the per-method call counters
func (s *Server) Metrics() []interceptors.MethodStats {
	return s.metrics.Snapshot()
}
