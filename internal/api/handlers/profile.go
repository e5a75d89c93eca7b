package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"careerarc/internal/api/middleware"
	"careerarc/internal/logging"
	"careerarc/internal/profile"
	"careerarc/internal/profilestore"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

// NormalizeProfileHandler handles POST /api/v1/profile/normalize. The body
// carries a raw profile document which is returned in canonical form.
func NormalizeProfileHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.NormalizeRequest
		if code, cerr := bindAndValidate(c, &req); cerr != nil {
			return respondError(c, code, cerr)
		}

		normalized := profile.Normalize(req.Profile)

		logging.GetGlobalLogger().Debug("Profile normalized", map[string]interface{}{
			"request_id":      middleware.RequestID(c),
			"work_experience": len(normalized.WorkExperience),
			"education":       len(normalized.Education),
			"skills":          len(normalized.Skills),
		})

		return c.JSON(http.StatusOK, models.ProfileResponse{
			Profile:   normalized,
			Source:    "request",
			RequestID: middleware.RequestID(c),
		})
	}
}

// GetProfileHandler handles GET /api/v1/profile. ?refresh=true bypasses the
// profile cache.
func GetProfileHandler(profiles *profilestore.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID := middleware.UserID(c)
		token := middleware.AuthToken(c)

		var (
			entry *profilestore.Entry
			err   error
		)
		if c.QueryParam("refresh") == "true" {
			entry, err = profiles.Refresh(ctx, userID, token)
		} else {
			entry, err = profiles.Load(ctx, userID, token)
		}
		if err != nil {
			return respondError(c, profileErrorCode(err), profileError(err))
		}

		return c.JSON(http.StatusOK, models.ProfileResponse{
			Profile:   entry.Profile,
			Source:    entry.Source,
			RequestID: middleware.RequestID(c),
		})
	}
}

func profileError(err error) *utils.CustomError {
	switch {
	case errors.Is(err, profilestore.ErrNoProfile):
		return utils.NewNotFoundError("No profile is available for this user")
	case errors.Is(err, profilestore.ErrUnauthorized):
		return &utils.CustomError{Code: http.StatusUnauthorized, Message: "Profile store rejected the credentials"}
	default:
		return utils.NewProfileStoreError(err.Error())
	}
}

func profileErrorCode(err error) string {
	switch {
	case errors.Is(err, profilestore.ErrNoProfile):
		return "profile_not_found"
	case errors.Is(err, profilestore.ErrUnauthorized):
		return "unauthorized"
	default:
		return "profile_store_error"
	}
}
