// Package llmmd refines extracted document text into clean markdown via an
// OpenAI-compatible chat completion endpoint. It is an optional plug-in
// for the extraction pipeline: disabled by default, and when disabled the
// pipeline output is untouched.
package llmmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/uniparse/uniparse/extract"
)

// ErrDisabled is returned by New when the refiner is not enabled.
var ErrDisabled = errors.New("llmmd: refiner disabled")

// Config configures the markdown refiner.
type Config struct {
	// Enabled gates the refiner; New returns ErrDisabled when false.
	Enabled bool

	// BaseURL of the OpenAI-compatible endpoint. "/v1" is appended when
	// missing. Empty uses the upstream default.
	BaseURL string

	// APIKey for the endpoint, if it requires one.
	APIKey string

	// Model name. Default: "default" (single-model local servers).
	Model string

	// Temperature for the completion (default 0.2).
	Temperature float32

	// MaxOutputTokens caps the completion length (default 1200).
	MaxOutputTokens int

	// Logger for debug messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "default"
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.2
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = 1200
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Refiner sends extracted text to the configured endpoint and returns the
// model's markdown rendition.
type Refiner struct {
	cfg    Config
	client *openai.Client
	logger *slog.Logger
}

// New creates a Refiner, or returns ErrDisabled when cfg.Enabled is false
// so callers can skip installation with a plain errors.Is check.
func New(cfg Config) (*Refiner, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	cfg.defaults()

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		base := strings.TrimRight(cfg.BaseURL, "/")
		if !strings.HasSuffix(base, "/v1") {
			base += "/v1"
		}
		clientCfg.BaseURL = base
	}

	return &Refiner{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: cfg.Logger,
	}, nil
}

// Refine converts text into clean markdown. The filename and content type
// give the model context about the source document.
func (r *Refiner) Refine(ctx context.Context, text, filename, contentType string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Convert the document content into clean markdown.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: formatPrompt(text, filename, contentType),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llmmd: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmmd: empty completion response")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("llmmd: completion produced no content")
	}

	r.logger.Debug("refined text to markdown", "filename", filename, "chars", len(out))
	return out, nil
}

// WithOverrides derives a Refiner with request-scoped settings merged
// over the base configuration. Zero-valued override fields keep the base
// value; enablement is never overridable, so a derived refiner exists
// only when the base one does.
func (r *Refiner) WithOverrides(ov extract.RefineOverrides) extract.Refiner {
	cfg := r.cfg
	if ov.BaseURL != "" {
		cfg.BaseURL = ov.BaseURL
	}
	if ov.APIKey != "" {
		cfg.APIKey = ov.APIKey
	}
	if ov.Model != "" {
		cfg.Model = ov.Model
	}
	if ov.Temperature > 0 {
		cfg.Temperature = ov.Temperature
	}
	if ov.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = ov.MaxOutputTokens
	}

	derived, err := New(cfg)
	if err != nil {
		// Unreachable: cfg.Enabled comes from the base refiner.
		return r
	}
	return derived
}

func formatPrompt(text, filename, contentType string) string {
	return fmt.Sprintf("Filename: %s\nContent-Type: %s\nContent:\n%s", filename, contentType, text)
}
