package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"careerarc/internal/api/middleware"
	"careerarc/internal/prioritizer"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

// FilterDocumentHandler handles POST /api/v1/documents/filter. An explicit
// max_priority wins over the threshold implied by length.
func FilterDocumentHandler(tiers prioritizer.TierMap) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.FilterRequest
		if code, cerr := bindAndValidate(c, &req); cerr != nil {
			return respondError(c, code, cerr)
		}

		maxPriority := req.MaxPriority
		if maxPriority == 0 {
			if req.Length == "" {
				return respondError(c, "validation_failed", utils.NewValidationError("either length or max_priority is required"))
			}
			p, ok := tiers.MaxPriority(req.Length)
			if !ok {
				return respondError(c, "validation_failed", utils.NewValidationError("unknown document length: "+string(req.Length)))
			}
			maxPriority = p
		}

		toggles := models.DefaultSectionToggles()
		if req.Sections != nil {
			toggles = *req.Sections
		}

		return c.JSON(http.StatusOK, models.FilterResponse{
			Profile:     prioritizer.Filter(req.Profile, maxPriority, toggles),
			MaxPriority: maxPriority,
			Length:      req.Length,
			RequestID:   middleware.RequestID(c),
		})
	}
}

// DocumentLengthsHandler handles GET /api/v1/documents/lengths
func DocumentLengthsHandler(tiers prioritizer.TierMap) echo.HandlerFunc {
	return func(c echo.Context) error {
		lengths := make(map[models.DocumentLength]int, len(tiers))
		for length, p := range tiers {
			lengths[length] = p
		}
		return c.JSON(http.StatusOK, models.DocumentLengthsResponse{Lengths: lengths})
	}
}
