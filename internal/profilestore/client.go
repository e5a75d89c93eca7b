// Package profilestore fetches raw profile documents from the external
// profile store and keeps normalized profiles per user.
package profilestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"careerarc/internal/config"
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
	"careerarc/internal/profile"
)

const maxProfileBody = 8 << 20

// ErrUnauthorized is returned when the profile store rejects the caller's token
var ErrUnauthorized = errors.New("profile store rejected the credentials")

// ErrNoProfile is returned when the caller has no profile in the store
var ErrNoProfile = errors.New("profile not found")

// Source returns the raw, denormalized profile document of the caller
type Source interface {
	FetchProfile(ctx context.Context, authToken string) (profile.RawProfile, error)
}

// Client reads profiles from the profile store: GET {base}/profiles/me
// resolves the profile id, then GET {base}/profiles/{id}/all_sections
// returns every section in one document.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     types.Logger
}

// NewClient creates a profile store client
func NewClient(cfg *config.Config) (*Client, error) {
	base := strings.TrimRight(cfg.ProfileStore.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("profile store URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid profile store URL: %w", err)
	}

	timeout := cfg.ProfileStore.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.GetGlobalLogger(),
	}, nil
}

// FetchProfile returns the caller's full profile document
func (c *Client) FetchProfile(ctx context.Context, authToken string) (profile.RawProfile, error) {
	var me struct {
		ID     interface{} `json:"id"`
		UserID string      `json:"user_id"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/profiles/me", authToken, &me); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(fmt.Sprint(me.ID))
	if me.ID == nil || id == "" {
		return nil, ErrNoProfile
	}

	var raw profile.RawProfile
	endpoint := fmt.Sprintf("%s/profiles/%s/all_sections", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, endpoint, authToken, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = profile.RawProfile{}
	}
	if _, ok := raw["user_id"]; !ok && me.UserID != "" {
		raw["user_id"] = me.UserID
	}

	c.logger.Debug("Fetched profile from store", map[string]interface{}{
		"profile_id": id,
		"sections":   len(raw),
	})
	return raw, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, authToken string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("profile store request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNoProfile
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("profile store returned %s", resp.Status)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBody)).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode profile store response: %w", err)
	}
	return nil
}
