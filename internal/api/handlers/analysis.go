package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"careerarc/internal/api/middleware"
	"careerarc/internal/llm"
	"careerarc/internal/logging"
	"careerarc/internal/profile"
	"careerarc/internal/profilestore"
	"careerarc/internal/scoring"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

// KeywordSource extracts keywords from plain text and HTML job descriptions
type KeywordSource interface {
	scoring.KeywordExtractor
	ExtractKeywordsFromHTML(ctx context.Context, html string) ([]string, error)
	GetProviderName() string
}

// ExtractKeywordsHandler handles POST /api/v1/analysis/keywords
func ExtractKeywordsHandler(keywords KeywordSource) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.KeywordsRequest
		if code, cerr := bindAndValidate(c, &req); cerr != nil {
			return respondError(c, code, cerr)
		}

		kws, err := extractKeywords(c.Request().Context(), keywords, req.JobDescription, req.Format)
		if err != nil {
			return respondError(c, llmErrorCode(err), llmError(err))
		}

		logging.GetGlobalLogger().Info("Keywords extracted", map[string]interface{}{
			"request_id": middleware.RequestID(c),
			"provider":   keywords.GetProviderName(),
			"keywords":   len(kws),
		})

		return c.JSON(http.StatusOK, models.KeywordsResponse{
			Keywords:  kws,
			Provider:  keywords.GetProviderName(),
			RequestID: middleware.RequestID(c),
		})
	}
}

// ScoreHandler handles POST /api/v1/analysis/score. The profile comes from
// the request or the caller's stored profile; the keywords come from the
// request or are extracted from the job description. Both are resolved
// concurrently.
func ScoreHandler(scorer *scoring.Scorer, keywords KeywordSource, profiles *profilestore.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.ScoreRequest
		if code, cerr := bindAndValidate(c, &req); cerr != nil {
			return respondError(c, code, cerr)
		}
		if len(req.Keywords) == 0 && strings.TrimSpace(req.JobDescription) == "" {
			return respondError(c, "validation_failed", utils.NewValidationError("either keywords or job_description is required"))
		}

		var (
			careerProfile *models.CareerProfile
			kws           []string
			profileErr    error
			keywordErr    error
		)

		g, ctx := errgroup.WithContext(c.Request().Context())
		g.Go(func() error {
			if req.Profile != nil {
				careerProfile = profile.Normalize(req.Profile)
				return nil
			}
			entry, err := profiles.Load(ctx, middleware.UserID(c), middleware.AuthToken(c))
			if err != nil {
				profileErr = err
				return err
			}
			careerProfile = entry.Profile
			return nil
		})
		g.Go(func() error {
			if len(req.Keywords) > 0 {
				kws = scoring.CleanKeywords(req.Keywords)
				return nil
			}
			extracted, err := extractKeywords(ctx, keywords, req.JobDescription, req.Format)
			if err != nil {
				keywordErr = err
				return err
			}
			kws = extracted
			return nil
		})
		if err := g.Wait(); err != nil {
			// report the failure that actually happened, not the cancellation it caused
			if profileErr != nil && !errors.Is(profileErr, context.Canceled) {
				return respondError(c, profileErrorCode(profileErr), profileError(profileErr))
			}
			if keywordErr != nil && !errors.Is(keywordErr, context.Canceled) {
				return respondError(c, llmErrorCode(keywordErr), llmError(keywordErr))
			}
			return respondError(c, "request_cancelled", utils.NewBadRequestError("Request was cancelled"))
		}

		now := time.Now()
		if req.Now != nil {
			now = *req.Now
		}
		result := scorer.Score(careerProfile, kws, now)

		logging.GetGlobalLogger().Info("Profile scored", map[string]interface{}{
			"request_id":  middleware.RequestID(c),
			"keywords":    len(kws),
			"match_score": result.MatchScore,
		})

		return c.JSON(http.StatusOK, models.ScoreResponse{
			Assessments: result.Assessments,
			MatchScore:  result.MatchScore,
			Summary:     scoring.Summarize(result),
			RequestID:   middleware.RequestID(c),
		})
	}
}

func extractKeywords(ctx context.Context, source KeywordSource, jobDescription, format string) ([]string, error) {
	if format == "html" {
		return source.ExtractKeywordsFromHTML(ctx, jobDescription)
	}
	return source.ExtractKeywords(ctx, jobDescription)
}

func llmError(err error) *utils.CustomError {
	if errors.Is(err, llm.ErrLLMUnavailable) {
		return &utils.CustomError{
			Code:    http.StatusServiceUnavailable,
			Message: "Keyword extraction is not available",
			Detail:  "no LLM provider is configured; send keywords explicitly",
		}
	}
	return utils.NewLLMError(err.Error())
}

func llmErrorCode(err error) string {
	if errors.Is(err, llm.ErrLLMUnavailable) {
		return "llm_unavailable"
	}
	return "llm_error"
}
