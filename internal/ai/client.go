package ai

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

	"github.com/BerylCAtieno/knowledge-lens-api/internal/config"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"golang.org/x/time/rate"
)

var (
	// ErrServiceUnavailable is wrapped by every failure of the model service.
	ErrServiceUnavailable = errors.New("AI service unavailable")
	ErrTimeout            = fmt.Errorf("%w: request timed out", ErrServiceUnavailable)
	ErrEmptyResponse      = fmt.Errorf("%w: empty response", ErrServiceUnavailable)
	ErrNotConfigured      = fmt.Errorf("%w: no API key configured", ErrServiceUnavailable)
)

// TextGenerator sends a single prompt to a language model and returns its
// reply.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type openRouterClient struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	client  *http.Client
	logger  *utils.Logger
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type choice struct {
	Message message `json:"message"`
}

// NewOpenRouterClient returns a client for an OpenRouter-compatible chat
// completions endpoint. Calls are rate limited and never retried.
func NewOpenRouterClient(cfg config.AIConfig, logger *utils.Logger) TextGenerator {
	return &openRouterClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		client:  &http.Client{},
		logger:  logger,
	}
}

func (c *openRouterClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait: %v", ErrTimeout, err)
	}

	jsonData, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrServiceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Model API error", "status", resp.StatusCode, "body", utils.Truncate(string(body), 500))
		return "", fmt.Errorf("%w: API returned status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to unmarshal response: %v", ErrServiceUnavailable, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrServiceUnavailable, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Describe returns a short user-facing description of a generation failure.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "the AI service timed out"
	case errors.Is(err, ErrEmptyResponse):
		return "the AI service returned an empty response"
	case errors.Is(err, ErrNotConfigured):
		return "the AI service is not configured"
	default:
		return "the AI service is unavailable"
	}
}
