package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ryosukesatoh/daily-hot/internal/config"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// AnthropicCompleter calls the Anthropic Messages API directly.
type AnthropicCompleter struct {
	apiKey      string
	endpoint    string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewAnthropicCompleter(cfg config.TranslatorConfig, hc *http.Client) *AnthropicCompleter {
	base := cfg.BaseURL
	if base == "" {
		base = anthropicBaseURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &AnthropicCompleter{
		apiKey:      cfg.APIKey,
		endpoint:    strings.TrimRight(base, "/") + "/v1/messages",
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		client:      hc,
	}
}

func (a *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(anthropicRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("translator: anthropic: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("translator: anthropic: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translator: anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("translator: anthropic: failed to read response: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("translator: anthropic: failed to parse response: %w", err)
	}

	if resp.StatusCode >= 300 || apiResp.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if apiResp.Error != nil {
			msg = apiResp.Error.Type + " - " + apiResp.Error.Message
		}
		err := fmt.Errorf("translator: anthropic: API error: %s", msg)
		if resp.StatusCode < 300 {
			return "", err
		}
		return "", &apiError{status: resp.StatusCode, err: err}
	}

	var b strings.Builder
	for _, c := range apiResp.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("translator: anthropic: empty response")
	}
	return b.String(), nil
}
