package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"careerarc/internal/config"
	"careerarc/internal/logging"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

// Context keys set by Auth
const (
	ContextUserID    = "user_id"
	ContextAuthToken = "auth_token"
)

// HeaderUserID carries the caller's id when token verification is disabled
const HeaderUserID = "X-User-ID"

// Claims are the access token claims; the subject is the user id
type Claims struct {
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token and returns its subject
func ParseToken(tokenString, secret string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid or expired token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// Auth resolves the calling user. With a JWT secret configured the bearer
// token is verified and its subject becomes the user id; without one the
// X-User-ID header is trusted, which is meant for deployments behind an
// authenticating gateway. The raw token is kept so it can be forwarded to
// the profile store.
func Auth(cfg *config.Config) echo.MiddlewareFunc {
	secret := cfg.Auth.JWTSecret
	required := cfg.Auth.Required

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := utils.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token != "" {
				c.Set(ContextAuthToken, token)
			}

			var userID string
			if secret != "" {
				if token != "" {
					subject, err := ParseToken(token, secret)
					if err != nil {
						logging.GetGlobalLogger().Warn("Rejected access token", map[string]interface{}{
							"request_id": c.Get("request_id"),
							"path":       c.Path(),
							"error":      err.Error(),
						})
						return c.JSON(http.StatusUnauthorized, models.CreateAsyncErrorResponse(
							"unauthorized",
							"Invalid or expired access token",
						))
					}
					userID = subject
				}
			} else {
				userID = strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
			}

			if userID == "" && required {
				return c.JSON(http.StatusUnauthorized, models.CreateAsyncErrorResponse(
					"unauthorized",
					"Authentication required",
				))
			}
			if userID != "" {
				c.Set(ContextUserID, userID)
			}
			return next(c)
		}
	}
}

// UserID returns the user id resolved by Auth, or ""
func UserID(c echo.Context) string {
	if v, ok := c.Get(ContextUserID).(string); ok {
		return v
	}
	return ""
}

// AuthToken returns the caller's bearer token, or ""
func AuthToken(c echo.Context) string {
	if v, ok := c.Get(ContextAuthToken).(string); ok {
		return v
	}
	return ""
}
