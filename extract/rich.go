package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RichConfig configures the external layout-aware PDF → markdown converter.
type RichConfig struct {
	// BaseURL of the converter service. Empty disables the rich path.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout per conversion call (default: 60s).
	Timeout time.Duration
}

// RichClient calls the external converter service. Availability is an
// environment condition checked per call: an unconfigured or failing
// converter degrades the caller to the baseline extractor, it never fails
// the request on its own.
type RichClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewRichClient creates a converter client. With an empty BaseURL the
// client is permanently unavailable.
func NewRichClient(cfg RichConfig) *RichClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &RichClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Available reports whether a converter endpoint is configured.
func (c *RichClient) Available() bool {
	return c != nil && c.baseURL != ""
}

// ConvertPage sends the PDF bytes to the converter, scoped to a single
// 1-based page, and returns the markdown for that page only.
func (c *RichClient) ConvertPage(ctx context.Context, pdf []byte, page int) (string, error) {
	url := c.baseURL + "/convert?page=" + strconv.Itoa(page)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(pdf))
	if err != nil {
		return "", fmt.Errorf("rich: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("rich: call converter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("rich: converter status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out struct {
		Markdown string `json:"markdown"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("rich: decode response: %w", err)
	}
	return out.Markdown, nil
}
