package handlers

import (
	"time"

	"github.com/labstack/echo/v4"

	"careerarc/internal/api/middleware"
	"careerarc/internal/api/validation"
	"careerarc/internal/logging"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

var requestValidator = validation.New()

// respondError writes a CustomError as the standard error envelope
func respondError(c echo.Context, code string, err *utils.CustomError) error {
	requestID := middleware.RequestID(c)

	fields := map[string]interface{}{
		"request_id": requestID,
		"path":       c.Path(),
		"status":     err.Code,
		"error":      err.Error(),
	}
	if err.Code >= 500 {
		logging.GetGlobalLogger().Error("Request failed", fields)
	} else {
		logging.GetGlobalLogger().Debug("Request rejected", fields)
	}

	return c.JSON(err.Code, models.ErrorResponse{
		Error:     code,
		Message:   err.Message,
		Detail:    err.Detail,
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}

// bindAndValidate decodes the request body into req and runs struct
// validation. A non-nil error comes with the code to respond with.
func bindAndValidate(c echo.Context, req interface{}) (string, *utils.CustomError) {
	if err := c.Bind(req); err != nil {
		return "invalid_request", utils.NewBadRequestError("Invalid request body: " + err.Error())
	}
	if err := requestValidator.Struct(req); err != nil {
		return "validation_failed", utils.NewValidationError(err.Error())
	}
	return "", nil
}
