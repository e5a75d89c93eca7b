package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"careerarc/internal/config"
)

func signToken(t *testing.T, secret, subject string, ttl time.Duration) string {
	t.Helper()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func runAuth(cfg *config.Config, header map[string]string) (*httptest.ResponseRecorder, string, string) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var userID, token string
	h := Auth(cfg)(func(c echo.Context) error {
		userID = UserID(c)
		token = AuthToken(c)
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec, userID, token
}

func TestAuthWithSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "s3cret"

	valid := signToken(t, "s3cret", "user-42", time.Hour)
	tests := []struct {
		name     string
		header   map[string]string
		required bool
		wantCode int
		wantUser string
	}{
		{"valid token", map[string]string{"Authorization": "Bearer " + valid}, true, http.StatusOK, "user-42"},
		{"wrong secret", map[string]string{"Authorization": "Bearer " + signToken(t, "other", "user-42", time.Hour)}, false, http.StatusUnauthorized, ""},
		{"expired", map[string]string{"Authorization": "Bearer " + signToken(t, "s3cret", "user-42", -time.Minute)}, false, http.StatusUnauthorized, ""},
		{"header ignored when verifying", map[string]string{HeaderUserID: "spoofed"}, false, http.StatusOK, ""},
		{"missing token required", nil, true, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Auth.Required = tt.required
			rec, userID, _ := runAuth(cfg, tt.header)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if userID != tt.wantUser {
				t.Errorf("user = %q, want %q", userID, tt.wantUser)
			}
		})
	}
}

func TestAuthWithoutSecretTrustsHeader(t *testing.T) {
	cfg := config.Default()
	rec, userID, token := runAuth(cfg, map[string]string{HeaderUserID: "u1", "Authorization": "Bearer opaque"})
	if rec.Code != http.StatusOK || userID != "u1" {
		t.Errorf("code = %d user = %q", rec.Code, userID)
	}
	if token != "opaque" {
		t.Errorf("token = %q", token)
	}
}

func TestRequestValidation(t *testing.T) {
	e := echo.New()
	h := RequestValidation(10)(func(c echo.Context) error {
		if RequestID(c) == "" {
			t.Error("request id missing")
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this body is far too large"))
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("code = %d, want 413", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok"))
	req.Header.Set(echo.HeaderXRequestID, "upstream-id")
	rec = httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderXRequestID) != "upstream-id" {
		t.Errorf("code = %d, request id = %q", rec.Code, rec.Header().Get(echo.HeaderXRequestID))
	}
}

func TestIsSlowPath(t *testing.T) {
	if !isSlowPath("/api/v1/analysis/score") || !isSlowPath("/api/v1/imports") {
		t.Error("analysis and import routes should get the extended timeout")
	}
	if isSlowPath("/api/v1/documents/filter") {
		t.Error("filter should use the default timeout")
	}
}
