// Package ollama provides Ollama integration for local AI inference
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
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

// Client implements outbound.LanguageModel using the Ollama HTTP API
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

var _ outbound.LanguageModel = (*Client)(nil)

// NewClient creates a new Ollama client
func NewClient(cfg config.OllamaConfig, timeout time.Duration, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.Host, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	logger.Info("Ollama client initialized",
		zap.String("base_url", baseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", timeout))

	return &Client{
		baseURL: baseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("ollama-client"),
	}
}

// ChatMessage is one message of the /api/chat payload
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the /api/chat request body
type ChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// ChatResponse is the non-streaming /api/chat response body
type ChatResponse struct {
	Model           string      `json:"model"`
	Message         ChatMessage `json:"message"`
	Done            bool        `json:"done"`
	TotalDuration   int64       `json:"total_duration,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
	EvalDuration    int64       `json:"eval_duration,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// Name identifies the provider
func (c *Client) Name() string {
	return "ollama"
}

// Complete sends the system prompt and messages to /api/chat
func (c *Client) Complete(ctx context.Context, systemPrompt string, messages []chat.Message, opts outbound.CompletionOptions) (string, error) {
	payload := make([]ChatMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		payload = append(payload, ChatMessage{Role: string(chat.RoleSystem), Content: systemPrompt})
	}
	for _, m := range messages {
		payload = append(payload, ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	reqBody := ChatRequest{
		Model:    c.model,
		Messages: payload,
		Stream:   false,
		Options: map[string]interface{}{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
			"num_ctx":     8192,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !chatResp.Done {
		return "", fmt.Errorf("incomplete response from Ollama")
	}

	content := strings.TrimSpace(chatResp.Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty response from Ollama")
	}

	c.logger.Debug("Ollama chat completion successful",
		zap.String("model", chatResp.Model),
		zap.Int("prompt_tokens", chatResp.PromptEvalCount),
		zap.Int("eval_count", chatResp.EvalCount),
		zap.Int64("eval_duration", chatResp.EvalDuration))

	return content, nil
}

// HealthCheck verifies the server answers and the configured model is pulled
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check failed with status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode model list: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == c.model || m.Model == c.model || strings.TrimSuffix(m.Name, ":latest") == c.model {
			return nil
		}
	}
	return fmt.Errorf("ollama model %q is not available", c.model)
}
