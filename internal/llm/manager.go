package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"careerarc/internal/config"
	"careerarc/internal/llm/processors"
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
	"careerarc/internal/profile"
	"careerarc/internal/scoring"
)

// ErrLLMUnavailable is returned when no healthy provider is configured
var ErrLLMUnavailable = errors.New("LLM provider is not available")

// Manager manages the LLM provider and its lifecycle
type Manager struct {
	config   *config.Config
	factory  *LLMFactory
	provider LLMProvider
	cleaner  *processors.HTMLCleaner
	logger   types.Logger
	mu       sync.RWMutex
	healthy  bool
}

// NewManager creates a new LLM manager instance
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:  cfg,
		factory: NewLLMFactory(cfg),
		cleaner: processors.NewHTMLCleaner(),
		logger:  logging.GetGlobalLogger(),
	}
}

// NewManagerWithProvider creates a started manager around an existing provider
func NewManagerWithProvider(cfg *config.Config, provider LLMProvider) *Manager {
	m := NewManager(cfg)
	m.provider = provider
	m.healthy = provider != nil
	return m
}

// Start creates the provider and checks that it answers. A failed check
// leaves the manager running with LLM features disabled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Starting LLM manager", map[string]interface{}{
		"provider": m.config.LLM.Provider,
	})

	provider, err := m.factory.CreateProvider()
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	m.provider = provider

	timeout := m.config.LLM.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := m.provider.IsHealthy(checkCtx); err != nil {
		m.logger.Warn("LLM provider health check failed, keyword extraction and CV structuring are disabled", map[string]interface{}{
			"provider": m.provider.GetProviderName(),
			"error":    err.Error(),
		})
		m.healthy = false
		return nil
	}

	m.healthy = true
	m.logger.Info("LLM manager started successfully", map[string]interface{}{
		"provider": m.provider.GetProviderName(),
	})
	return nil
}

// Stop shuts down the LLM manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping LLM manager", map[string]interface{}{})
	m.provider = nil
	m.healthy = false
	return nil
}

func (m *Manager) active() (LLMProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.provider == nil || !m.healthy {
		return nil, ErrLLMUnavailable
	}
	return m.provider, nil
}

// ExtractKeywords returns the cleaned, de-duplicated keywords of a plain text
// job description
func (m *Manager) ExtractKeywords(ctx context.Context, jobDescription string) ([]string, error) {
	provider, err := m.active()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	keywords, err := provider.ExtractKeywords(ctx, jobDescription)
	if err != nil {
		return nil, err
	}
	keywords = scoring.CleanKeywords(keywords)

	m.logger.Info("Keywords extracted from job description", map[string]interface{}{
		"provider":        provider.GetProviderName(),
		"keywords":        len(keywords),
		"processing_time": time.Since(start).String(),
	})
	return keywords, nil
}

// ExtractKeywordsFromHTML strips page markup from a job posting before
// extracting its keywords
func (m *Manager) ExtractKeywordsFromHTML(ctx context.Context, html string) ([]string, error) {
	text, err := m.cleaner.ExtractJobContent(html)
	if err != nil {
		return nil, fmt.Errorf("failed to clean job description HTML: %w", err)
	}
	if text == "" {
		return []string{}, nil
	}
	m.logger.Debug("Job description cleaned", map[string]interface{}{
		"html_length":      len(html),
		"text_length":      len(text),
		"estimated_tokens": m.cleaner.EstimateTokens(text),
	})
	return m.ExtractKeywords(ctx, text)
}

// StructureProfile turns extracted CV text into a raw profile document
func (m *Manager) StructureProfile(ctx context.Context, cvText string) (profile.RawProfile, error) {
	provider, err := m.active()
	if err != nil {
		return nil, err
	}
	return provider.StructureProfile(ctx, cvText)
}

// IsHealthy checks if the LLM manager and provider are healthy
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy && m.provider != nil
}

// GetProviderName returns the name of the current LLM provider
func (m *Manager) GetProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.provider != nil {
		return m.provider.GetProviderName()
	}
	return "none"
}

// CheckHealth re-runs the provider health check and records the result
func (m *Manager) CheckHealth(ctx context.Context) error {
	m.mu.RLock()
	provider := m.provider
	m.mu.RUnlock()

	if provider == nil {
		return ErrLLMUnavailable
	}

	err := provider.IsHealthy(ctx)

	m.mu.Lock()
	m.healthy = err == nil
	m.mu.Unlock()

	return err
}
