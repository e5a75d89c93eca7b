package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

// RequestValidation assigns a request id and rejects bodies larger than
// maxBody before they are read. Upstream request ids are kept.
func RequestValidation(maxBody int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = utils.GenerateRequestID()
			}
			c.Set("request_id", requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			if maxBody > 0 && c.Request().ContentLength > maxBody {
				return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
					Error:     "request_too_large",
					Message:   "Request body too large",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}

			return next(c)
		}
	}
}

// RequestID returns the id assigned by RequestValidation
func RequestID(c echo.Context) string {
	if v, ok := c.Get("request_id").(string); ok && v != "" {
		return v
	}
	return utils.GenerateRequestID()
}
