package llm

import (
	"context"

	"careerarc/internal/profile"
)

// LLMProvider defines the interface for LLM providers
type LLMProvider interface {
	// ExtractKeywords returns the skills and qualifications a job description asks for
	ExtractKeywords(ctx context.Context, jobDescription string) ([]string, error)

	// StructureProfile turns plain CV text into a raw profile document
	StructureProfile(ctx context.Context, cvText string) (profile.RawProfile, error)

	// IsHealthy checks if the LLM provider is healthy and available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the LLM provider
	GetProviderName() string
}
