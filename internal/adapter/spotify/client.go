// Package spotify adapts the Spotify Web API calls the pipeline depends on:
// saving tracks to a library and reading the current user's profile.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.spotify.com"

// UserProfile is the subset of the /v1/me response the service needs.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SaveAPIError carries the provider's error code and message for the ledger.
type SaveAPIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *SaveAPIError) Error() string {
	return fmt.Sprintf("spotify api: %s (status=%d): %s", e.Code, e.StatusCode, e.Message)
}

// Client is the music-side collaborator consumed by the mention pipeline.
type Client interface {
	// SaveTrack adds the track to the library of the token's owner. Saving an
	// already-saved track succeeds; the operation is idempotent provider-side.
	SaveTrack(ctx context.Context, accessToken, trackID string) error
	// CurrentUser returns the profile of the token's owner.
	CurrentUser(ctx context.Context, accessToken string) (*UserProfile, error)
}

// HTTPClient is the default HTTP implementation.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs the default Client. A nil http.Client gets a 10s
// timeout; baseURL overrides exist for tests.
func NewHTTPClient(client *http.Client, baseURL string) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPClient{httpClient: client, baseURL: baseURL}
}

func (c *HTTPClient) SaveTrack(ctx context.Context, accessToken, trackID string) error {
	endpoint := c.baseURL + "/v1/me/tracks?ids=" + url.QueryEscape(trackID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build save request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Length", "0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("save track request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		return nil
	}
	return apiError(resp)
}

func (c *HTTPClient) CurrentUser(ctx context.Context, accessToken string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read profile response: %w", err)
	}
	var profile UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}
	return &profile, nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var envelope struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &SaveAPIError{
		StatusCode: resp.StatusCode,
		Code:       fmt.Sprintf("http_%d", resp.StatusCode),
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
