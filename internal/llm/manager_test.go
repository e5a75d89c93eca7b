package llm

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"careerarc/internal/config"
	"careerarc/internal/profile"
)

type stubProvider struct {
	keywords []string
	lastText string
	err      error
}

func (p *stubProvider) ExtractKeywords(ctx context.Context, jobDescription string) ([]string, error) {
	p.lastText = jobDescription
	return p.keywords, p.err
}

func (p *stubProvider) StructureProfile(ctx context.Context, cvText string) (profile.RawProfile, error) {
	p.lastText = cvText
	return profile.RawProfile{"skills": "Go"}, p.err
}

func (p *stubProvider) IsHealthy(ctx context.Context) error { return p.err }
func (p *stubProvider) GetProviderName() string               { return "stub" }

func TestManagerCleansKeywords(t *testing.T) {
	provider := &stubProvider{keywords: []string{" Go ", "go", "", "Kubernetes", "kubernetes  "}}
	m := NewManagerWithProvider(config.Default(), provider)

	got, err := m.ExtractKeywords(context.Background(), "We need Go and Kubernetes")
	if err != nil {
		t.Fatalf("ExtractKeywords: %v", err)
	}
	if want := []string{"Go", "Kubernetes"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestManagerExtractKeywordsFromHTML(t *testing.T) {
	provider := &stubProvider{keywords: []string{"Go"}}
	m := NewManagerWithProvider(config.Default(), provider)

	html := `<html><body><nav>Home Jobs</nav><div class="job-description"><h2>Backend Engineer</h2><p>You will build services in Go and operate them on Kubernetes clusters.</p></div><script>track()</script></body></html>`
	if _, err := m.ExtractKeywordsFromHTML(context.Background(), html); err != nil {
		t.Fatal(err)
	}
	if provider.lastText == "" || strings.Contains(provider.lastText, "track()") || strings.Contains(provider.lastText, "Home Jobs") {
		t.Errorf("provider received %q", provider.lastText)
	}
}

func TestManagerUnavailable(t *testing.T) {
	m := NewManager(config.Default())
	if _, err := m.ExtractKeywords(context.Background(), "anything"); !errors.Is(err, ErrLLMUnavailable) {
		t.Errorf("err = %v, want ErrLLMUnavailable", err)
	}
	if _, err := m.StructureProfile(context.Background(), "anything"); !errors.Is(err, ErrLLMUnavailable) {
		t.Errorf("err = %v, want ErrLLMUnavailable", err)
	}
	if m.IsHealthy() || m.GetProviderName() != "none" {
		t.Error("manager without provider reports healthy")
	}
}

func TestManagerCheckHealthDisables(t *testing.T) {
	provider := &stubProvider{}
	m := NewManagerWithProvider(config.Default(), provider)
	if !m.IsHealthy() {
		t.Fatal("expected healthy manager")
	}

	provider.err = errors.New("quota exceeded")
	if err := m.CheckHealth(context.Background()); err == nil {
		t.Fatal("expected health check error")
	}
	if m.IsHealthy() {
		t.Error("manager still healthy after a failed check")
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "mystery"
	if _, err := NewLLMFactory(cfg).CreateProvider(); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

