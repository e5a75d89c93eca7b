package profilestore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"careerarc/internal/config"
	"careerarc/internal/profile"
)

func newStoreServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/profiles/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id": 42, "user_id": "u1"}`))
	})
	mux.HandleFunc("/profiles/42/all_sections", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"workExperience": [{"positionTitle": "Engineer", "companyName": "Acme", "startDate": "2020-01", "endDate": "Present"}],
			"skills": ["Go", "go", "SQL"]
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.ProfileStore.BaseURL = baseURL
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClientFetchProfile(t *testing.T) {
	var calls int32
	srv := newStoreServer(t, &calls)
	c := newTestClient(t, srv.URL)

	raw, err := c.FetchProfile(context.Background(), "good")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if raw["user_id"] != "u1" {
		t.Errorf("user_id = %v", raw["user_id"])
	}

	p := profile.Normalize(raw)
	if len(p.WorkExperience) != 1 || p.WorkExperience[0].Company != "Acme" || !p.WorkExperience[0].IsCurrent() {
		t.Errorf("work experience = %+v", p.WorkExperience)
	}
	if len(p.Skills) != 2 {
		t.Errorf("skills = %+v", p.Skills)
	}
}

func TestClientUnauthorized(t *testing.T) {
	var calls int32
	srv := newStoreServer(t, &calls)
	c := newTestClient(t, srv.URL)

	if _, err := c.FetchProfile(context.Background(), "bad"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestClientNoProfile(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)

	if _, err := c.FetchProfile(context.Background(), "good"); !errors.Is(err, ErrNoProfile) {
		t.Errorf("err = %v, want ErrNoProfile", err)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(config.Default()); err == nil {
		t.Error("expected an error without a base URL")
	}
}

type countingSource struct {
	mu    sync.Mutex
	calls int
	raw   profile.RawProfile
	err   error
}

func (s *countingSource) FetchProfile(ctx context.Context, authToken string) (profile.RawProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.raw, s.err
}

func TestServiceLoadCaches(t *testing.T) {
	src := &countingSource{raw: profile.RawProfile{"skills": "Go, Kubernetes"}}
	svc := NewService(src, NewMemoryCache(time.Hour))

	first, err := svc.Load(context.Background(), "u1", "tok")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.Source != SourceStore {
		t.Errorf("source = %q", first.Source)
	}
	if _, err := svc.Load(context.Background(), "u1", "tok"); err != nil {
		t.Fatal(err)
	}
	if src.calls != 1 {
		t.Errorf("profile store fetched %d times, want 1", src.calls)
	}

	if _, err := svc.Refresh(context.Background(), "u1", "tok"); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("Refresh did not refetch, calls = %d", src.calls)
	}
}

func TestServiceLoadWithoutSource(t *testing.T) {
	svc := NewService(nil, NewMemoryCache(0))
	if _, err := svc.Load(context.Background(), "u1", ""); !errors.Is(err, ErrNoProfile) {
		t.Errorf("err = %v, want ErrNoProfile", err)
	}
	if svc.HasSource() {
		t.Error("HasSource = true")
	}
}

func TestServicePublishReplacesCachedProfile(t *testing.T) {
	src := &countingSource{raw: profile.RawProfile{"skills": "Go"}}
	svc := NewService(src, NewMemoryCache(time.Hour))
	if _, err := svc.Load(context.Background(), "u1", "tok"); err != nil {
		t.Fatal(err)
	}

	warning := "1 entry skipped"
	if _, err := svc.Publish(context.Background(), "u1", profile.RawProfile{"skills": "Rust, Zig"}, "task-1", &warning); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	entry, err := svc.Load(context.Background(), "u1", "tok")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Source != SourceImport || entry.TaskID != "task-1" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Profile.UserID != "u1" {
		t.Errorf("user id = %q", entry.Profile.UserID)
	}
	if names := entry.Profile.SkillNames(); len(names) != 2 || names[0] != "Rust" {
		t.Errorf("skills = %v", names)
	}
	if src.calls != 1 {
		t.Errorf("profile store fetched %d times", src.calls)
	}

	if _, err := svc.Publish(context.Background(), "", profile.RawProfile{}, "t", nil); err == nil {
		t.Error("Publish without a user id should fail")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Put(context.Background(), "u1", &Entry{UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(context.Background(), "u1"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.Get(context.Background(), "u1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired entry err = %v", err)
	}
}
