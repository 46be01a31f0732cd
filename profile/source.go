package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RESTConfig configures the PostgREST-style profile source.
type RESTConfig struct {
	// URL is the project base URL (e.g., https://xyz.supabase.co).
	URL string `mapstructure:"url" validate:"required,url"`

	// APIKey authenticates requests; sent as both the apikey header
	// and the Bearer token.
	APIKey string `mapstructure:"api_key" validate:"required"`

	// Table is the profile table name.
	Table string `mapstructure:"table"`

	// Timeout bounds each fetch.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *RESTConfig) ApplyDefaults() {
	if c.Table == "" {
		c.Table = "voice_profiles"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// RESTSource fetches profiles from a PostgREST endpoint.
type RESTSource struct {
	cfg        RESTConfig
	httpClient *http.Client
}

// NewRESTSource creates a REST profile source.
func NewRESTSource(cfg RESTConfig) *RESTSource {
	cfg.ApplyDefaults()
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &RESTSource{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Fetch loads every profile row from the table.
func (s *RESTSource) Fetch(ctx context.Context) ([]VoiceProfile, error) {
	u := fmt.Sprintf("%s/rest/v1/%s?select=*", s.cfg.URL, s.cfg.Table)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("profile: create request: %w", err)
	}
	req.Header.Set("apikey", s.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("profile: fetch failed (status %d): %s", resp.StatusCode, string(body))
	}

	var rows []VoiceProfile
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("profile: decode response: %w", err)
	}
	return rows, nil
}

// StaticSource serves a fixed profile set. Useful for tests and for
// deployments that ship profiles as files.
type StaticSource struct {
	Profiles []VoiceProfile
	Err      error
}

// Fetch returns the configured set or error.
func (s *StaticSource) Fetch(context.Context) ([]VoiceProfile, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Profiles, nil
}
