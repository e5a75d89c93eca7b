package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"careerarc/internal/api/middleware"
	"careerarc/internal/config"
	"careerarc/internal/importer"
	"careerarc/internal/llm"
	"careerarc/internal/prioritizer"
	"careerarc/internal/profile"
	"careerarc/internal/profilestore"
	"careerarc/internal/scoring"
	"careerarc/pkg/models"
)

type stubKeywords struct {
	keywords []string
	err      error
	calls    int
	html     bool
}

func (s *stubKeywords) ExtractKeywords(ctx context.Context, jd string) ([]string, error) {
	s.calls++
	return s.keywords, s.err
}

func (s *stubKeywords) ExtractKeywordsFromHTML(ctx context.Context, html string) ([]string, error) {
	s.calls++
	s.html = true
	return s.keywords, s.err
}

func (s *stubKeywords) GetProviderName() string { return "stub" }

// pendingExtraction accepts every upload and never finishes
type pendingExtraction struct {
	mu   sync.Mutex
	next int
}

func (p *pendingExtraction) Submit(ctx context.Context, upload importer.Upload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	return "task-" + strings.Repeat("0", 5) + string(rune('0'+p.next)), nil
}

func (p *pendingExtraction) Status(ctx context.Context, taskID, authToken string) (importer.StatusReport, error) {
	return importer.StatusReport{Status: models.ImportStatusProcessing}, nil
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func testProfile() profile.RawProfile {
	return profile.RawProfile{
		"workExperience": []interface{}{
			map[string]interface{}{
				"id":            "we-current",
				"positionTitle": "Platform Engineer",
				"companyName":   "Acme",
				"startDate":     "2021-03",
				"current":       true,
				"description":   "• Ran Kubernetes clusters\n• Built CI pipelines",
			},
		},
		"skills": "Go, PostgreSQL",
	}
}

func newAnalysisServer(t *testing.T, kw KeywordSource) (*echo.Echo, *profilestore.Service) {
	t.Helper()
	profiles := profilestore.NewService(nil, profilestore.NewMemoryCache(time.Hour))
	e := echo.New()
	api := e.Group("/api/v1", middleware.RequestValidation(0), middleware.Auth(config.Default()))
	api.POST("/profile/normalize", NormalizeProfileHandler())
	api.GET("/profile", GetProfileHandler(profiles))
	api.POST("/analysis/keywords", ExtractKeywordsHandler(kw))
	api.POST("/analysis/score", ScoreHandler(scoring.NewScorer(5), kw, profiles))
	return e, profiles
}

func TestNormalizeProfileHandler(t *testing.T) {
	e, _ := newAnalysisServer(t, &stubKeywords{})

	rec := doJSON(t, e, http.MethodPost, "/api/v1/profile/normalize", map[string]interface{}{"profile": testProfile()}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp models.ProfileResponse
	decode(t, rec, &resp)
	if len(resp.Profile.WorkExperience) != 1 || resp.Profile.WorkExperience[0].Company != "Acme" {
		t.Errorf("work experience = %+v", resp.Profile.WorkExperience)
	}
	if len(resp.Profile.Skills) != 2 || resp.Source != "request" || resp.RequestID == "" {
		t.Errorf("response = %+v", resp)
	}

	rec = doJSON(t, e, http.MethodPost, "/api/v1/profile/normalize", map[string]interface{}{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing profile: code = %d", rec.Code)
	}
}

func TestGetProfileHandler(t *testing.T) {
	e, profiles := newAnalysisServer(t, &stubKeywords{})

	rec := doJSON(t, e, http.MethodGet, "/api/v1/profile", nil, map[string]string{middleware.HeaderUserID: "u1"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("no profile: code = %d", rec.Code)
	}

	if _, err := profiles.Publish(context.Background(), "u1", testProfile(), "task-1", nil); err != nil {
		t.Fatal(err)
	}
	rec = doJSON(t, e, http.MethodGet, "/api/v1/profile", nil, map[string]string{middleware.HeaderUserID: "u1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp models.ProfileResponse
	decode(t, rec, &resp)
	if resp.Source != profilestore.SourceImport || resp.Profile.UserID != "u1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestScoreHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]interface{}
		user      string
		kw        *stubKeywords
		wantCode  int
		wantScore *int
		wantCalls int
	}{
		{
			name: "inline profile and keywords",
			body: map[string]interface{}{
				"keywords": []string{"Go", "Kubernetes", "COBOL", " go "},
				"profile":  testProfile(),
			},
			kw:        &stubKeywords{},
			wantCode:  http.StatusOK,
			wantScore: intPtr(67),
		},
		{
			name:      "keywords extracted from the job description",
			body:      map[string]interface{}{"job_description": "We need Kubernetes and Go experience.", "profile": testProfile()},
			kw:        &stubKeywords{keywords: []string{"Kubernetes", "Go"}},
			wantCode:  http.StatusOK,
			wantScore: intPtr(100),
			wantCalls: 1,
		},
		{
			name:      "stored profile",
			body:      map[string]interface{}{"keywords": []string{"PostgreSQL"}},
			user:      "u1",
			kw:        &stubKeywords{},
			wantCode:  http.StatusOK,
			wantScore: intPtr(100),
		},
		{
			name:     "no keywords and no job description",
			body:     map[string]interface{}{"profile": testProfile()},
			kw:       &stubKeywords{},
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "no provider configured",
			body:      map[string]interface{}{"job_description": "Kubernetes, Go", "profile": testProfile()},
			kw:        &stubKeywords{err: llm.ErrLLMUnavailable},
			wantCode:  http.StatusServiceUnavailable,
			wantCalls: 1,
		},
		{
			name:      "provider failure",
			body:      map[string]interface{}{"job_description": "Kubernetes, Go", "profile": testProfile()},
			kw:        &stubKeywords{err: errors.New("rate limited")},
			wantCode:  http.StatusBadGateway,
			wantCalls: 1,
		},
		{
			name:     "stored profile missing",
			body:     map[string]interface{}{"keywords": []string{"Go"}},
			user:     "nobody",
			kw:       &stubKeywords{},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, profiles := newAnalysisServer(t, tt.kw)
			if _, err := profiles.Publish(context.Background(), "u1", testProfile(), "task-1", nil); err != nil {
				t.Fatal(err)
			}

			header := map[string]string{}
			if tt.user != "" {
				header[middleware.HeaderUserID] = tt.user
			}
			rec := doJSON(t, e, http.MethodPost, "/api/v1/analysis/score", tt.body, header)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d, body = %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.kw.calls != tt.wantCalls {
				t.Errorf("extractor calls = %d, want %d", tt.kw.calls, tt.wantCalls)
			}
			if tt.wantScore == nil {
				return
			}
			var resp models.ScoreResponse
			decode(t, rec, &resp)
			if resp.MatchScore == nil || *resp.MatchScore != *tt.wantScore {
				t.Errorf("match score = %v, want %d", resp.MatchScore, *tt.wantScore)
			}
			if resp.Summary.Total != len(resp.Assessments) {
				t.Errorf("summary = %+v, assessments = %d", resp.Summary, len(resp.Assessments))
			}
		})
	}
}

func TestScoreHandlerAssessments(t *testing.T) {
	e, _ := newAnalysisServer(t, &stubKeywords{})
	rec := doJSON(t, e, http.MethodPost, "/api/v1/analysis/score", map[string]interface{}{
		"keywords": []string{"Kubernetes", "COBOL"},
		"profile":  testProfile(),
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp models.ScoreResponse
	decode(t, rec, &resp)
	if len(resp.Assessments) != 2 {
		t.Fatalf("assessments = %+v", resp.Assessments)
	}
	if a := resp.Assessments[0]; a.Status != models.RAGGreen || len(a.EvidenceRefs) != 1 || a.EvidenceRefs[0] != "we-current" {
		t.Errorf("kubernetes = %+v", a)
	}
	if a := resp.Assessments[1]; a.Status != models.RAGRed || len(a.EvidenceRefs) != 0 {
		t.Errorf("cobol = %+v", a)
	}
	if resp.Summary.Band != models.MatchBandMedium {
		t.Errorf("band = %s", resp.Summary.Band)
	}
}

func TestExtractKeywordsHandler(t *testing.T) {
	kw := &stubKeywords{keywords: []string{"Go", "gRPC"}}
	e, _ := newAnalysisServer(t, kw)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/analysis/keywords", map[string]interface{}{
		"job_description": "<html><body><p>Senior Go engineer with gRPC experience</p></body></html>",
		"format":          "html",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp models.KeywordsResponse
	decode(t, rec, &resp)
	if !kw.html || len(resp.Keywords) != 2 || resp.Provider != "stub" {
		t.Errorf("response = %+v html = %v", resp, kw.html)
	}

	rec = doJSON(t, e, http.MethodPost, "/api/v1/analysis/keywords", map[string]interface{}{"job_description": "too short"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short description: code = %d", rec.Code)
	}
}

func TestFilterDocumentHandler(t *testing.T) {
	e := echo.New()
	e.POST("/documents/filter", FilterDocumentHandler(prioritizer.DefaultTierMap))
	e.GET("/documents/lengths", DocumentLengthsHandler(prioritizer.DefaultTierMap))

	draft := models.PrioritizedProfile{
		Summary: &models.PriorityContent{Content: "Engineer", Priority: 1},
		Achievements: []models.PriorityContent{
			{Content: "Cut latency", Priority: 1},
			{Content: "Won hackathon", Priority: 4},
		},
		Education: []models.PriorityContent{{Content: "BSc", Priority: 2}},
	}

	tests := []struct {
		name      string
		body      map[string]interface{}
		wantCode  int
		wantMax   int
		wantAchv  int
		wantEduca int
	}{
		{"length", map[string]interface{}{"profile": draft, "length": "short"}, http.StatusOK, 2, 1, 1},
		{"explicit priority wins", map[string]interface{}{"profile": draft, "length": "short", "max_priority": 5}, http.StatusOK, 5, 2, 1},
		{"section toggles", map[string]interface{}{"profile": draft, "max_priority": 5, "sections": map[string]bool{"include_achievements": true}}, http.StatusOK, 5, 2, 0},
		{"neither", map[string]interface{}{"profile": draft}, http.StatusBadRequest, 0, 0, 0},
		{"unknown length", map[string]interface{}{"profile": draft, "length": "epic"}, http.StatusBadRequest, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/documents/filter", tt.body, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d, body = %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp models.FilterResponse
			decode(t, rec, &resp)
			if resp.MaxPriority != tt.wantMax || len(resp.Profile.Achievements) != tt.wantAchv || len(resp.Profile.Education) != tt.wantEduca {
				t.Errorf("response = %+v", resp)
			}
		})
	}

	rec := doJSON(t, e, http.MethodGet, "/documents/lengths", nil, nil)
	var lengths models.DocumentLengthsResponse
	decode(t, rec, &lengths)
	if lengths.Lengths[models.DocumentLengthShort] != 2 || len(lengths.Lengths) != len(prioritizer.DefaultTierMap) {
		t.Errorf("lengths = %+v", lengths.Lengths)
	}
}

func newImportServer(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := config.Default()
	cfg.Imports.MaxFileSize = 64
	imports := importer.NewService(cfg, importer.NewInMemoryTaskStore(), &pendingExtraction{}, nil)

	e := echo.New()
	api := e.Group("/api/v1", middleware.RequestValidation(0), middleware.Auth(cfg))
	api.POST("/imports", CreateImportHandler(cfg, imports))
	api.GET("/imports", ListImportsHandler(imports))
	api.GET("/imports/:id", GetImportHandler(imports))
	api.POST("/imports/:id/poll", PollImportHandler(imports))
	api.DELETE("/imports/:id", DeleteImportHandler(imports))
	return e
}

func upload(t *testing.T, e *echo.Echo, user, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(middleware.HeaderUserID, user)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestImportLifecycle(t *testing.T) {
	e := newImportServer(t)
	owner := map[string]string{middleware.HeaderUserID: "u1"}
	other := map[string]string{middleware.HeaderUserID: "u2"}

	rec := upload(t, e, "u1", "cv.txt", []byte("Jane Doe\nEngineer at Acme"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload: code = %d body = %s", rec.Code, rec.Body.String())
	}
	var accepted models.ImportAcceptedResponse
	decode(t, rec, &accepted)
	if accepted.TaskID == "" || accepted.Status != models.ImportStatusPending {
		t.Fatalf("accepted = %+v", accepted)
	}
	path := "/api/v1/imports/" + accepted.TaskID

	rec = doJSON(t, e, http.MethodGet, path, nil, owner)
	var got models.ImportTaskResponse
	decode(t, rec, &got)
	if rec.Code != http.StatusOK || got.Task.ID != accepted.TaskID || got.ProfileAvailable {
		t.Errorf("get: code = %d task = %+v", rec.Code, got)
	}

	rec = doJSON(t, e, http.MethodPost, path+"/poll", nil, owner)
	decode(t, rec, &got)
	if rec.Code != http.StatusOK || got.Task.Status != models.ImportStatusProcessing || got.Task.Attempts != 1 {
		t.Errorf("poll: code = %d task = %+v", rec.Code, got.Task)
	}

	if rec = doJSON(t, e, http.MethodGet, path, nil, other); rec.Code != http.StatusForbidden {
		t.Errorf("other user: code = %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/v1/imports", nil, owner)
	var list models.ImportTaskListResponse
	decode(t, rec, &list)
	if list.Count != 1 {
		t.Errorf("list = %+v", list)
	}
	rec = doJSON(t, e, http.MethodGet, "/api/v1/imports", nil, other)
	decode(t, rec, &list)
	if list.Count != 0 || list.Tasks == nil {
		t.Errorf("other user's list = %+v", list)
	}

	if rec = doJSON(t, e, http.MethodDelete, path, nil, owner); rec.Code != http.StatusNoContent {
		t.Errorf("delete: code = %d", rec.Code)
	}
	if rec = doJSON(t, e, http.MethodGet, path, nil, owner); rec.Code != http.StatusNotFound {
		t.Errorf("after delete: code = %d", rec.Code)
	}
}

func TestImportRejections(t *testing.T) {
	e := newImportServer(t)

	tests := []struct {
		name     string
		filename string
		data     []byte
		wantCode int
	}{
		{"empty", "cv.pdf", nil, http.StatusBadRequest},
		{"too large", "cv.txt", bytes.Repeat([]byte("a"), 65), http.StatusRequestEntityTooLarge},
		{"binary", "cv.bin", []byte{0xff, 0xfe, 0x00, 0x01}, http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := upload(t, e, "u1", tt.filename, tt.data); rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d, body = %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}

	if rec := doJSON(t, e, http.MethodGet, "/api/v1/imports", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list: code = %d", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodGet, "/api/v1/imports/ab", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id: code = %d", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodGet, "/api/v1/imports/unknown-task", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: code = %d", rec.Code)
	}
}

func TestHealthHandlers(t *testing.T) {
	e := echo.New()
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }
	e.GET("/health", HealthHandler(map[string]Probe{"imports": ok, "redis": down}))
	e.GET("/health/ready", ReadinessHandler(map[string]Probe{"imports": ok, "redis": down}))
	e.GET("/health/live", LivenessHandler)

	rec := doJSON(t, e, http.MethodGet, "/health", nil, nil)
	var resp models.HealthResponse
	decode(t, rec, &resp)
	if rec.Code != http.StatusOK || resp.Status != "degraded" || resp.Checks["imports"] != "ok" {
		t.Errorf("health: code = %d resp = %+v", rec.Code, resp)
	}

	if rec = doJSON(t, e, http.MethodGet, "/health/ready", nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready: code = %d", rec.Code)
	}
	if rec = doJSON(t, e, http.MethodGet, "/health/live", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("live: code = %d", rec.Code)
	}
}

func intPtr(v int) *int { return &v }
