package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"careerarc/internal/api/middleware"
	"careerarc/internal/config"
	"careerarc/internal/importer"
	"careerarc/internal/llm"
	"careerarc/internal/prioritizer"
	"careerarc/internal/profilestore"
	"careerarc/internal/scoring"
)

func newTestEcho(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	profiles := profilestore.NewService(nil, profilestore.NewMemoryCache(time.Hour))
	e := echo.New()
	SetupRoutes(e, cfg, Dependencies{
		Imports:  importer.NewService(cfg, importer.NewInMemoryTaskStore(), nil, profiles),
		Profiles: profiles,
		Keywords: llm.NewManagerWithProvider(cfg, nil),
		Scorer:   scoring.NewScorer(cfg.Scoring.RecencyYears),
		Tiers:    prioritizer.DefaultTierMap,
	})
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestEcho(t, config.Default())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/status", http.StatusOK},
		{http.MethodGet, "/api/v1/documents/lengths", http.StatusOK},
		{http.MethodGet, "/api/v1/imports", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/profile", http.StatusNotFound},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s %s: code = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
		if rec.Header().Get(echo.HeaderXRequestID) == "" {
			t.Errorf("%s %s: missing request id", tt.method, tt.path)
		}
	}
}

func TestRequiredAuth(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Required = true
	e := newTestEcho(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/lengths", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: code = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/lengths", nil)
	req.Header.Set(middleware.HeaderUserID, "u1")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with user: code = %d", rec.Code)
	}
}
