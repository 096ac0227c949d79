// Package analysis asks a generative model endpoint for root-cause analysis of
// a failing training job.
package analysis

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

	"github.com/rs/zerolog"

	"github.com/tOgg1/trainwatch/internal/config"
	"github.com/tOgg1/trainwatch/internal/logging"
)

// ErrNotConfigured is returned when no endpoint is set.
var ErrNotConfigured = errors.New("analysis endpoint not configured")

const (
	notConfiguredText = "AI analysis is not configured. Set analysis.endpoint (or TRAINWATCH_ANALYSIS_ENDPOINT) to enable it."
	unavailablePrefix = "AI analysis unavailable: "

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 512

	systemPrompt = "You are an SRE assistant for distributed ML training clusters. " +
		"Given job logs and metrics, identify the most likely root cause of the failure " +
		"and suggest concrete next steps. Be brief."
)

// Service produces analysis text for a job.
type Service interface {
	Analyze(ctx context.Context, logs, metrics string) (string, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint. Requests
// are never retried.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	logger   zerolog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a client from the analysis configuration.
func NewClient(cfg config.AnalysisConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSpace(cfg.Endpoint),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
		logger:   logging.Component("analysis"),
	}
}

// Configured reports whether an endpoint is set.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze sends logs and metrics to the endpoint and returns the first
// choice's text.
func (c *Client) Analyze(ctx context.Context, logs, metrics string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(logs, metrics)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug().
		Str("endpoint", c.endpoint).
		Str("model", c.model).
		Interface("headers", logging.RedactHeaders(flatten(req.Header))).
		Msg("requesting analysis")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, logging.Redact(strings.TrimSpace(string(msg))))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("endpoint returned no choices")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("endpoint returned empty analysis")
	}
	return text, nil
}

// AnalyzeOrFallback never fails. Missing configuration and every request
// failure are turned into readable fallback text.
func (c *Client) AnalyzeOrFallback(ctx context.Context, logs, metrics string) string {
	return Fallback(ctx, c, logs, metrics)
}

// Fallback runs svc and converts any error into display text.
func Fallback(ctx context.Context, svc Service, logs, metrics string) string {
	if svc == nil {
		return FallbackText(ErrNotConfigured)
	}
	text, err := svc.Analyze(ctx, logs, metrics)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("analysis failed")
		return FallbackText(err)
	}
	return text
}

// FallbackText is the display text for a failed or unconfigured analysis.
func FallbackText(err error) string {
	if errors.Is(err, ErrNotConfigured) {
		return notConfiguredText
	}
	return unavailablePrefix + logging.Redact(err.Error())
}

// IsFallback reports whether text came from a failed or unconfigured call.
func IsFallback(text string) bool {
	return text == notConfiguredText || strings.HasPrefix(text, unavailablePrefix)
}

func buildPrompt(logs, metrics string) string {
	var b strings.Builder
	b.WriteString("## Logs\n")
	b.WriteString(strings.TrimSpace(logs))
	b.WriteString("\n\n## Metrics\n")
	b.WriteString(strings.TrimSpace(metrics))
	b.WriteString("\n")
	return b.String()
}

func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
