// Package openai provides an OpenAI-compatible chat completions client
package openai

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

	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("openai api key is not configured")

// Client implements outbound.LanguageModel using the chat completions API
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

var _ outbound.LanguageModel = (*Client)(nil)

// NewClient creates a new OpenAI client
func NewClient(cfg config.OpenAIConfig, timeout time.Duration, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	if cfg.APIKey == "" {
		logger.Info("OpenAI API key not set; provider disabled")
	} else {
		logger.Info("OpenAI client initialized", zap.String("base_url", baseURL), zap.String("model", cfg.Model))
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("openai-client"),
	}
}

// ChatCompletionRequest is the /chat/completions request body
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is the /chat/completions response body
type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one completion candidate
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token consumption
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Name identifies the provider
func (c *Client) Name() string {
	return "openai"
}

// Complete requests a chat completion
func (c *Client) Complete(ctx context.Context, systemPrompt string, messages []chat.Message, opts outbound.CompletionOptions) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	payload := make([]Message, 0, len(messages)+1)
	if systemPrompt != "" {
		payload = append(payload, Message{Role: string(chat.RoleSystem), Content: systemPrompt})
	}
	for _, m := range messages {
		payload = append(payload, Message{Role: string(m.Role), Content: m.Content})
	}

	jsonBody, err := json.Marshal(ChatCompletionRequest{
		Model:       c.model,
		Messages:    payload,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("openai API error %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("openai API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty response from openai")
	}

	c.logger.Debug("OpenAI completion successful",
		zap.String("model", c.model),
		zap.String("finish_reason", completion.Choices[0].FinishReason),
		zap.Int("total_tokens", completion.Usage.TotalTokens))

	return content, nil
}

// HealthCheck lists models to verify the key and endpoint
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai health check failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai health check failed with status %d", resp.StatusCode)
	}
	return nil
}
