package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:3153"
	DefaultAPIPath = "/v1/chat/completions"
	DefaultModel   = "blockify-ingest"
	DefaultTimeout = 10 * time.Minute
)

// ClientConfig holds the endpoint settings for Client
type ClientConfig struct {
	BaseURL string
	APIPath string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Info summarizes where a Client sends requests
type Info struct {
	BaseURL string `json:"base_url"`
	APIPath string `json:"api_path"`
	FullURL string `json:"full_url"`
	Model   string `json:"model"`
}

// Client implements Transport against an OpenAI-compatible chat completions
// endpoint, typically a local inference server.
type Client struct {
	BaseURL string
	APIPath string
	APIKey  string
	Model   string
	Timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a client, filling zero values with defaults
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIPath == "" {
		cfg.APIPath = DefaultAPIPath
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIPath: "/" + strings.TrimLeft(cfg.APIPath, "/"),
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(zap.String("component", "llm")),
	}
}

// URL returns the full endpoint URL
func (c *Client) URL() string {
	return c.BaseURL + c.APIPath
}

// Describe returns the endpoint summary shown to users
func (c *Client) Describe() Info {
	return Info{
		BaseURL: c.BaseURL,
		APIPath: c.APIPath,
		FullURL: c.URL(),
		Model:   c.Model,
	}
}

// ModelName returns the model being used
func (c *Client) ModelName() string {
	return c.Model
}

// Complete posts one chat completion request. On success the caller owns
// the returned body.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (*RawResponse, error) {
	model := opts.Model
	if model == "" {
		model = c.Model
	}

	reqBody := chatRequest{
		Model:       model,
		Messages:    convertMessages(messages),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        opts.TopP,
		Stream:      opts.Stream,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &TransportError{Kind: KindRequest, URL: c.URL(), Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &TransportError{Kind: KindRequest, URL: c.URL(), Message: "failed to create request", Cause: err}
	}

	req.Header.Set("Content-Type", "application/json")
	if opts.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctxErr)
		}
		c.logger.Warn("LLM endpoint unreachable", zap.String("url", c.URL()), zap.Error(err))
		return nil, unreachable(c.URL(), err)
	}

	c.logger.Debug("LLM response received",
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError(c.URL(), resp)
	}

	return &RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// statusError builds the error for a non-2xx response, preferring the
// message reported by the server.
func statusError(url string, resp *http.Response) *TransportError {
	msg := "LLM request failed: " + resp.Status

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(body) > 0 {
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.text() != "" {
			msg = eb.text()
		}
	}

	return &TransportError{
		Kind:    KindStatus,
		URL:     url,
		Status:  resp.StatusCode,
		Message: msg,
	}
}

// IsUnreachable reports whether err is a connection failure
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrTransportUnreachable)
}
