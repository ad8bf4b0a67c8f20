// Package llm is a client for OpenAI-compatible chat completion endpoints.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sha1n/siterag/internal/apierr"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTimeout     = 30 * time.Second
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 500

	service = "llm"
)

// Config holds the client settings.
type Config struct {
	// APIKey is sent as a Bearer token.
	APIKey string
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Client issues chat completions. It is safe for concurrent use.
type Client struct {
	api         *openai.Client
	httpClient  *http.Client
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// New creates a client. The API key is required.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("LLM API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = baseURL
	apiCfg.HTTPClient = httpClient

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		httpClient:  httpClient,
		baseURL:     baseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a system and a user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	const op = "complete"

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(c.temperature),
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", classify(op, err)
	}
	c.logger.Debug("LLM completion", "model", c.model, "duration", time.Since(start))

	if len(resp.Choices) == 0 {
		return "", apierr.Malformed(service, op, errors.New("no choices returned"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify maps client errors to apierr kinds. Context cancellation is
// returned unchanged.
func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(service, op, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		e := apierr.FromStatus(service, op, reqErr.HTTPStatusCode, "")
		e.Err = reqErr.Err
		return e
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apierr.Malformed(service, op, err)
	}
	return apierr.FromTransport(service, op, err)
}
