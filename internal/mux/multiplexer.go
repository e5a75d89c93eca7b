package mux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soheilhy/cmux"

	"careerarc/internal/config"
	"careerarc/internal/grpc/server"
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
)

// shutdownTimeout bounds the graceful stop of both servers
const shutdownTimeout = 30 * time.Second

// Multiplexer serves gRPC and HTTP on a single port, routing connections by
// protocol
type Multiplexer struct {
	grpcServer *server.Server
	httpServer *http.Server
	logger     types.Logger

	mux      cmux.CMux
	listener net.Listener

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewMultiplexer creates a multiplexer for the given servers
func NewMultiplexer(cfg *config.Config, grpcServer *server.Server, httpHandler http.Handler) *Multiplexer {
	return &Multiplexer{
		grpcServer: grpcServer,
		logger:     logging.GetGlobalLogger(),
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// Start listens on address and serves both protocols in the background
func (m *Multiplexer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return m.Serve(listener)
}

// Serve serves both protocols on an existing listener in the background
func (m *Multiplexer) Serve(listener net.Listener) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("multiplexer is already running")
	}
	m.listener = listener
	m.mux = cmux.New(listener)

	grpcListener := m.mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpListener := m.mux.Match(cmux.Any())

	address := listener.Addr().String()
	m.wg.Add(3)
	go func() {
		defer m.wg.Done()
		if err := m.grpcServer.Start(grpcListener); err != nil && !errors.Is(err, cmux.ErrListenerClosed) {
			m.logger.Error("gRPC server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting HTTP server", map[string]interface{}{"address": address})
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			m.logger.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	go func() {
		defer m.wg.Done()
		if err := m.mux.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			m.logger.Debug("Multiplexer stopped serving", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.running = true
	m.logger.Info("Multiplexer started", map[string]interface{}{"address": address})
	return nil
}

// Stop shuts down HTTP gracefully, drains gRPC and closes the listener
func (m *Multiplexer) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := m.httpServer.Shutdown(ctx); err != nil {
		m.logger.Error("HTTP server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	m.grpcServer.Stop()
	if err := m.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		m.logger.Error("Failed to close listener", map[string]interface{}{"error": err.Error()})
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Multiplexer stopped gracefully", nil)
		return nil
	case <-ctx.Done():
		m.logger.Warn("Multiplexer shutdown timed out", nil)
		return ctx.Err()
	}
}

// Addr returns the listening address, or "" before Start
func (m *Multiplexer) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}
