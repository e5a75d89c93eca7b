// Package scoring classifies job keywords against a canonical profile as
// Red, Amber or Green and derives an aggregate match score.
package scoring

import (
	"context"
	"math"
	"strings"
	"time"

	"careerarc/internal/profile"
	"careerarc/pkg/models"
)

// DefaultRecencyYears is how far back a role still counts as recent experience
const DefaultRecencyYears = 5

// KeywordExtractor supplies the keyword list for a job description
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, jobDescription string) ([]string, error)
}

// Result is the outcome of one scoring run. MatchScore is nil when there
// were no keywords to score.
type Result struct {
	Assessments []models.KeywordAssessment `json:"assessments"`
	MatchScore  *int                       `json:"match_score"`
}

// Scorer evaluates keywords against profiles. It holds no mutable state and
// is safe for concurrent use.
type Scorer struct {
	recencyYears int
}

// NewScorer creates a scorer. A non-positive window falls back to
// DefaultRecencyYears.
func NewScorer(recencyYears int) *Scorer {
	if recencyYears <= 0 {
		recencyYears = DefaultRecencyYears
	}
	return &Scorer{recencyYears: recencyYears}
}

// RecencyYears returns the configured recency window
func (s *Scorer) RecencyYears() int {
	return s.recencyYears
}

// Score assesses every keyword against the profile. now is the reference
// point for recency; current roles end at now.
func (s *Scorer) Score(p *models.CareerProfile, keywords []string, now time.Time) Result {
	idx := s.buildIndex(p, now)

	assessments := make([]models.KeywordAssessment, 0, len(keywords))
	green := 0
	for _, raw := range keywords {
		kw := normalizeText(raw)
		if kw == "" {
			continue
		}
		a := idx.assess(kw)
		a.Keyword = strings.TrimSpace(raw)
		if a.Status == models.RAGGreen {
			green++
		}
		assessments = append(assessments, a)
	}

	res := Result{Assessments: assessments}
	if len(assessments) > 0 {
		score := int(math.Round(100 * float64(green) / float64(len(assessments))))
		res.MatchScore = &score
	}
	return res
}

// Summarize counts assessments per status and bands the match score
func Summarize(r Result) models.ScoreSummary {
	sum := models.ScoreSummary{Total: len(r.Assessments)}
	for _, a := range r.Assessments {
		switch a.Status {
		case models.RAGGreen:
			sum.Green++
		case models.RAGAmber:
			sum.Amber++
		default:
			sum.Red++
		}
	}
	sum.Band = Band(r.MatchScore)
	return sum
}

// Band buckets a match score: high from 70, medium from 50
func Band(score *int) models.MatchBand {
	switch {
	case score == nil:
		return models.MatchBandNone
	case *score >= 70:
		return models.MatchBandHigh
	case *score >= 50:
		return models.MatchBandMedium
	default:
		return models.MatchBandLow
	}
}

// CleanKeywords trims keywords and drops empty and case-insensitive
// duplicate entries, keeping the first spelling
func CleanKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		key := normalizeText(k)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	return out
}

func (s *Scorer) isRecent(we models.WorkExperience, now time.Time) bool {
	end := now
	if !we.IsCurrent() {
		parsed, ok := profile.ParseYearMonth(we.EndDate)
		if !ok {
			return false
		}
		end = parsed
	}
	return !end.Before(now.AddDate(-s.recencyYears, 0, 0))
}

// normalizeText lowercases and collapses runs of whitespace
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
