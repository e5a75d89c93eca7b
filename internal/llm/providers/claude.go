package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"careerarc/internal/config"
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
	"careerarc/internal/profile"
)

// ClaudeProvider implements the LLM provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
	model  anthropic.Model
	logger types.Logger
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	model := anthropic.ModelClaude3_7SonnetLatest
	if cfg.LLM.Model != "" {
		model = anthropic.Model(cfg.LLM.Model)
	}

	return &ClaudeProvider{
		client: client,
		config: cfg,
		model:  model,
		logger: logging.GetGlobalLogger(),
	}
}

// ExtractKeywords asks Claude for the keywords a job description screens for
func (cp *ClaudeProvider) ExtractKeywords(ctx context.Context, jobDescription string) ([]string, error) {
	start := time.Now()

	text, err := cp.complete(ctx, buildKeywordPrompt(cp.truncate(jobDescription)))
	if err != nil {
		return nil, err
	}

	keywords, err := parseKeywords(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Claude response: %w", err)
	}

	cp.logger.Debug("Claude keyword extraction finished", map[string]interface{}{
		"keywords":        len(keywords),
		"processing_time": time.Since(start).String(),
	})
	return keywords, nil
}

// StructureProfile asks Claude to lay out CV text as a profile document.
// Contact details are stripped from the result; they never enter a profile.
func (cp *ClaudeProvider) StructureProfile(ctx context.Context, cvText string) (profile.RawProfile, error) {
	start := time.Now()

	text, err := cp.complete(ctx, buildProfilePrompt(cp.truncate(cvText)))
	if err != nil {
		return nil, err
	}

	raw, err := parseProfile(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Claude response: %w", err)
	}

	cp.logger.Debug("Claude CV structuring finished", map[string]interface{}{
		"sections":        len(raw),
		"processing_time": time.Since(start).String(),
	})
	return profile.StripPII(raw), nil
}

func (cp *ClaudeProvider) complete(ctx context.Context, prompt string) (string, error) {
	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       cp.model,
		MaxTokens:   int64(cp.config.LLM.MaxTokens),
		Temperature: anthropic.Float(float64(cp.config.LLM.Temperature)),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Claude API: %w", err)
	}

	for _, block := range response.Content {
		if block.Type == "text" {
			if text := block.AsText().Text; text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("no text content in Claude response")
}

// truncate keeps the prompt inside the token budget, assuming ~3 chars per token
func (cp *ClaudeProvider) truncate(content string) string {
	limit := cp.config.LLM.MaxTokens * 3
	if limit <= 0 || len(content) <= limit {
		return content
	}
	cp.logger.Debug("Content truncated to fit token limits", map[string]interface{}{
		"length": len(content),
		"limit":  limit,
	})
	return content[:limit]
}

// IsHealthy checks if the Claude provider is healthy and available
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.config.LLM.APIKey == "" {
		return fmt.Errorf("Claude API key not configured - set LLM_API_KEY environment variable")
	}

	_, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     cp.model,
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: "Hello"},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return fmt.Errorf("Claude API health check failed: %w", err)
	}
	return nil
}

// GetProviderName returns the name of the LLM provider
func (cp *ClaudeProvider) GetProviderName() string {
	return "claude"
}

func buildKeywordPrompt(jobDescription string) string {
	return fmt.Sprintf(`You are an applicant tracking system. List the keywords a recruiter would screen CVs for in the job description below.

Return ONLY a JSON object of the form {"keywords": ["..."]}.

RULES:
1. Keywords are skills, tools, technologies, methods, certifications or domain terms
2. Use the spelling of the job description; one to four words per keyword
3. No duplicates, no soft filler such as "team player" unless it is a stated requirement
4. At most 40 keywords, most important first

JOB DESCRIPTION:
%s`, jobDescription)
}

func buildProfilePrompt(cvText string) string {
	return fmt.Sprintf(`You are a CV parser. Convert the CV text below into a JSON object with exactly these fields:

{
  "work_experience": [{"title": "", "company": "", "location": "", "start_date": "YYYY-MM", "end_date": "YYYY-MM or Present", "description": ["bullet"], "skills": [""]}],
  "education": [{"institution": "", "degree": "", "field_of_study": "", "start_date": "", "end_date": "", "description": [""]}],
  "training": [{"name": "", "provider": "", "date": "", "description": [""]}],
  "skills": [""],
  "projects": [{"name": "", "description": ""}],
  "certifications": [{"name": "", "issuer": "", "year": ""}]
}

IMPORTANT RULES:
1. Return ONLY valid JSON, no additional text or explanation
2. Copy facts from the CV; never invent employers, dates or skills
3. Use empty strings and empty arrays for missing information
4. Do not include the candidate's name, email, phone number, address or profile links

CV TEXT:
%s`, cvText)
}

// stripCodeFence removes a markdown code fence around a JSON answer
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseKeywords accepts {"keywords": [...]} or a bare array
func parseKeywords(text string) ([]string, error) {
	text = stripCodeFence(text)

	var wrapped struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && wrapped.Keywords != nil {
		return wrapped.Keywords, nil
	}

	var list []string
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, fmt.Errorf("unexpected keyword format: %w", err)
	}
	return list, nil
}

func parseProfile(text string) (profile.RawProfile, error) {
	return profile.RawProfileFromJSON([]byte(stripCodeFence(text)))
}
