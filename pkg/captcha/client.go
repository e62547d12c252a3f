package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Client is a minimal HTTP client for the CAPTCHA provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	debug      bool
}

// Config holds CAPTCHA provider client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient constructs a new CAPTCHA client with sane defaults.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		debug:      os.Getenv("ENV") == "development",
	}
}

// GetChallenge issues a fresh challenge.
func (c *Client) GetChallenge(ctx context.Context) (*Challenge, error) {
	var wrapper challengeResponse
	if err := c.doRequest(ctx, http.MethodPost, "/challenge", nil, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Data, nil
}

// Verify checks a customer-supplied code against a challenge.
func (c *Client) Verify(ctx context.Context, challengeID, code string) (*VerifyResult, error) {
	req := verifyRequest{
		ChallengeID: challengeID,
		Code:        code,
	}
	var wrapper verifyResponse
	if err := c.doRequest(ctx, http.MethodPost, "/verify", req, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Data, nil
}

// doRequest performs the HTTP call with JSON payloads and decodes the JSON
// response into result.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			RawJSON("response", respBody).
			Msg("[CAPTCHA] Incoming response")
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
