package importer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"careerarc/internal/config"
	"careerarc/pkg/models"
)

func newTestExtractionClient(t *testing.T, handler http.Handler) *HTTPExtractionClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Imports.ExtractionURL = srv.URL + "/"
	cfg.Imports.RateLimit = 0
	c, err := NewHTTPExtractionClient(cfg)
	if err != nil {
		t.Fatalf("NewHTTPExtractionClient: %v", err)
	}
	return c
}

func TestHTTPExtractionClientSubmit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cv", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "cv.pdf" || string(data) != "%PDF" {
			t.Errorf("upload = %q %q", header.Filename, data)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"taskId": "remote-1"})
	})

	c := newTestExtractionClient(t, mux)
	id, err := c.Submit(context.Background(), Upload{Filename: "cv.pdf", ContentType: "application/pdf", Data: []byte("%PDF"), AuthToken: "tok"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "remote-1" {
		t.Errorf("task id = %q", id)
	}
}

func TestHTTPExtractionClientSubmitSnakeCaseID(t *testing.T) {
	c := newTestExtractionClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"task_id":"remote-2"}`))
	}))
	id, err := c.Submit(context.Background(), Upload{Filename: "cv.txt", Data: []byte("hi")})
	if err != nil {
		t.Fatal(err)
	}
	if id != "remote-2" {
		t.Errorf("task id = %q", id)
	}
}

func TestHTTPExtractionClientStatus(t *testing.T) {
	c := newTestExtractionClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cv/status/t1":
			_, _ = w.Write([]byte(`{"status":"completed_with_errors","extractedDataSummary":{"workExperienceCount":2,"skillsCount":7},"error":"one entry unreadable"}`))
		case "/cv/status/t2":
			_, _ = w.Write([]byte(`{"status":"processing"}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))

	report, err := c.Status(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.Status != models.ImportStatusCompletedWithErrors {
		t.Errorf("status = %s", report.Status)
	}
	if report.Error == nil || *report.Error != "one entry unreadable" {
		t.Errorf("error = %v", report.Error)
	}
	if report.Summary == nil || report.Summary.WorkExperienceCount != 2 || report.Summary.SkillsCount != 7 {
		t.Errorf("summary = %+v", report.Summary)
	}

	report, err = c.Status(context.Background(), "t2", "")
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != models.ImportStatusProcessing || report.Summary != nil || report.Error != nil {
		t.Errorf("report = %+v", report)
	}

	if _, err := c.Status(context.Background(), "t3", ""); err == nil {
		t.Error("expected an error for a 500 response")
	}
}

func TestHTTPExtractionClientStatusCredentials(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c := newTestExtractionClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"status":"processing"}`))
	}))

	if _, err := c.Status(context.Background(), "t1", "user-tok"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Status(context.Background(), "t1", ""); err != nil {
		t.Fatal(err)
	}
	c.serviceToken = "svc-tok"
	if _, err := c.Status(context.Background(), "t1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Status(context.Background(), "t1", "user-tok"); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"Bearer user-tok", "", "Bearer svc-tok", "Bearer user-tok"}
	if len(seen) != len(want) {
		t.Fatalf("requests = %d, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d Authorization = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestTrackerCompletesBehindAuthenticatedGateway(t *testing.T) {
	polls := 0
	gateway := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/cv":
			_, _ = w.Write([]byte(`{"taskId":"remote-1"}`))
		case "/cv/status/remote-1":
			polls++
			if polls < 2 {
				_, _ = w.Write([]byte(`{"status":"processing"}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"completed","extractedDataSummary":{"skillsCount":4}}`))
		default:
			http.NotFound(w, r)
		}
	})

	tr := NewTracker(NewInMemoryTaskStore(), newTestExtractionClient(t, gateway), 3)
	task, err := tr.Submit(context.Background(), Upload{Filename: "cv.pdf", Data: []byte("%PDF"), UserID: "u1", AuthToken: "tok"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	for i := 1; i <= 3 && !task.Status.IsTerminal(); i++ {
		task, err = tr.Poll(context.Background(), task.ID)
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if task.LastPollError != "" {
			t.Fatalf("poll %d: LastPollError = %q", i, task.LastPollError)
		}
	}
	if task.Status != models.ImportStatusCompleted {
		t.Fatalf("status = %s, want completed", task.Status)
	}
	if task.Summary == nil || task.Summary.SkillsCount != 4 {
		t.Errorf("summary = %+v", task.Summary)
	}
}

func TestNewHTTPExtractionClientRequiresURL(t *testing.T) {
	cfg := config.Default()
	cfg.Imports.ExtractionURL = ""
	if _, err := NewHTTPExtractionClient(cfg); err == nil {
		t.Error("expected an error without a URL")
	}
}

func TestParseRemoteStatus(t *testing.T) {
	tests := []struct {
		in   string
		want models.ImportStatus
	}{
		{"pending", models.ImportStatusPending},
		{"QUEUED", models.ImportStatusPending},
		{" processing ", models.ImportStatusProcessing},
		{"in_progress", models.ImportStatusProcessing},
		{"completed", models.ImportStatusCompleted},
		{"success", models.ImportStatusCompleted},
		{"partial", models.ImportStatusCompletedWithErrors},
		{"completed_with_errors", models.ImportStatusCompletedWithErrors},
		{"error", models.ImportStatusFailed},
	}
	for _, tt := range tests {
		if got := ParseRemoteStatus(tt.in); got != tt.want {
			t.Errorf("ParseRemoteStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if ParseRemoteStatus("exploded").IsValid() {
		t.Error("unknown status should not be valid")
	}
}
