// Package postback implements the ad network's conversion endpoint clients,
// one per API generation the provider still serves.
package postback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/linkrunner-labs/pageone/internal/domain/attribution"
)

const defaultTimeout = 10 * time.Second

// Config describes the attribution provider endpoint.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type conversionPayload struct {
	FineValue   int    `json:"fine_value"`
	CoarseValue string `json:"coarse_value,omitempty"`
	LockWindow  bool   `json:"lock_window,omitempty"`
}

// Client speaks the v2 API: fine value, coarse value and window-lock
// control, plus explicit device registration.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a v2 postback client.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, http: newHTTPClient(cfg)}
}

// UpdateConversionValue posts a full conversion update.
func (c *Client) UpdateConversionValue(ctx context.Context, fine int, coarse attribution.CoarseValue, lockWindow bool) error {
	return post(ctx, c.http, c.cfg, "/v2/conversions", conversionPayload{
		FineValue:   fine,
		CoarseValue: string(coarse),
		LockWindow:  lockWindow,
	})
}

// RegisterForAttribution performs the provider's one-time registration.
func (c *Client) RegisterForAttribution(ctx context.Context) error {
	return post(ctx, c.http, c.cfg, "/v2/register", nil)
}

// V1Client speaks the v1 API: fine value only.
type V1Client struct {
	cfg  Config
	http *http.Client
}

// NewV1Client creates a v1 postback client.
func NewV1Client(cfg Config) *V1Client {
	return &V1Client{cfg: cfg, http: newHTTPClient(cfg)}
}

// UpdateFineValue posts a fine-value-only conversion update.
func (c *V1Client) UpdateFineValue(ctx context.Context, fine int) error {
	return post(ctx, c.http, c.cfg, "/v1/conversions", conversionPayload{FineValue: fine})
}

// LegacyClient speaks the v0 API, which offers no delivery feedback. Errors
// are logged and otherwise swallowed, matching the API contract.
type LegacyClient struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewLegacyClient creates a v0 postback client.
func NewLegacyClient(cfg Config, logger *slog.Logger) *LegacyClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LegacyClient{cfg: cfg, http: newHTTPClient(cfg), logger: logger}
}

// UpdateFineValueSync posts a fine-value update without reporting the outcome.
func (c *LegacyClient) UpdateFineValueSync(fine int) {
	ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
	defer cancel()
	if err := post(ctx, c.http, c.cfg, "/v0/conversions", conversionPayload{FineValue: fine}); err != nil {
		c.logger.Warn("legacy conversion update failed", "error", err)
	}
}

func newHTTPClient(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func post(ctx context.Context, client *http.Client, cfg Config, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding postback payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := strings.TrimSuffix(cfg.Endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("building postback request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering postback: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("postback %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}
