package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// slowPrefixes are routes that wait on the LLM or accept file uploads
var slowPrefixes = []string{"/api/v1/analysis", "/api/v1/imports"}

// SelectiveTimeoutConfig applies the default timeout to every route except
// the slow ones, which get the extended timeout
func SelectiveTimeoutConfig(defaultTimeout, extendedTimeout time.Duration) echo.MiddlewareFunc {
	fast := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      defaultTimeout,
		ErrorMessage: `{"error":"timeout","message":"request timed out"}`,
	})
	slow := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      extendedTimeout,
		ErrorMessage: `{"error":"timeout","message":"request timed out"}`,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		fastNext := fast(next)
		slowNext := slow(next)
		return func(c echo.Context) error {
			if isSlowPath(c.Request().URL.Path) {
				return slowNext(c)
			}
			return fastNext(c)
		}
	}
}

func isSlowPath(path string) bool {
	for _, prefix := range slowPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
