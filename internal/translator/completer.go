package translator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	gapi "google.golang.org/api/option"

	"github.com/ryosukesatoh/daily-hot/internal/config"
)

// Completer sends a single prompt to a language model and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewCompleter builds the completer named by cfg.Type.
func NewCompleter(ctx context.Context, cfg config.TranslatorConfig, hc *http.Client) (Completer, error) {
	switch cfg.Type {
	case "openai", "":
		return NewOpenAICompleter(cfg, hc), nil
	case "gemini":
		return NewGeminiCompleter(ctx, cfg)
	case "anthropic":
		return NewAnthropicCompleter(cfg, hc), nil
	default:
		return nil, fmt.Errorf("translator: unsupported type %q", cfg.Type)
	}
}

// apiError carries the HTTP status of a failed model call so the retry
// policy can tell a bad key from an overloaded backend.
type apiError struct {
	status int
	err    error
}

func (e *apiError) Error() string   { return e.err.Error() }
func (e *apiError) Unwrap() error   { return e.err }
func (e *apiError) HTTPStatus() int { return e.status }

// OpenAICompleter talks to any OpenAI-compatible chat completion endpoint,
// DeepSeek by default.
type OpenAICompleter struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

func NewOpenAICompleter(cfg config.TranslatorConfig, hc *http.Client) *OpenAICompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(apiBase(cfg.BaseURL)))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	return &OpenAICompleter{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// apiBase turns "https://api.deepseek.com" into "https://api.deepseek.com/v1/".
func apiBase(base string) string {
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/"
}

func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	if o.temperature > 0 {
		params.Temperature = openai.Float(o.temperature)
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var oe *openai.Error
		if errors.As(err, &oe) {
			return "", &apiError{status: oe.StatusCode, err: fmt.Errorf("translator: openai: %w", err)}
		}
		return "", fmt.Errorf("translator: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("translator: openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GeminiCompleter uses the Google Generative AI SDK.
type GeminiCompleter struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiCompleter(ctx context.Context, cfg config.TranslatorConfig) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, gapi.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("translator: gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	if cfg.Temperature > 0 {
		model.SetTemperature(float32(cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("translator: gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("translator: gemini: empty candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("translator: gemini: no text in response")
	}
	return b.String(), nil
}

func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}
