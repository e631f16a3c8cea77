// Package vertex provides a Vertex AI Gemini chat client
package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when no project id is set
var ErrNotConfigured = errors.New("vertex project id is not configured")

const roleModel = "model"

// Client implements outbound.LanguageModel on Vertex AI
type Client struct {
	config config.VertexConfig
	client *genai.Client
	logger *zap.Logger
}

var _ outbound.LanguageModel = (*Client)(nil)

// NewClient creates the Vertex AI client. It fails when the project is unset
// or credentials cannot be resolved.
func NewClient(ctx context.Context, cfg config.VertexConfig, logger *zap.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, ErrNotConfigured
	}

	opts := []option.ClientOption{}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	logger.Info("Vertex AI client initialized",
		zap.String("project_id", cfg.ProjectID),
		zap.String("location", cfg.Location),
		zap.String("model", cfg.Model))

	return &Client{
		config: cfg,
		client: client,
		logger: logger.Named("vertex-client"),
	}, nil
}

// Name identifies the provider
func (c *Client) Name() string {
	return "vertex"
}

// Complete replays the history into a chat session and sends the last user turn
func (c *Client) Complete(ctx context.Context, systemPrompt string, messages []chat.Message, opts outbound.CompletionOptions) (string, error) {
	history, last, err := splitHistory(messages)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, last...)
	if err != nil {
		return "", fmt.Errorf("vertex request failed: %w", err)
	}

	reply := responseText(resp)
	if reply == "" {
		return "", fmt.Errorf("empty response from vertex")
	}
	return reply, nil
}

// HealthCheck counts tokens of a short prompt, which needs a reachable model
func (c *Client) HealthCheck(ctx context.Context) error {
	model := c.client.GenerativeModel(c.config.Model)
	if _, err := model.CountTokens(ctx, genai.Text("ping")); err != nil {
		return fmt.Errorf("vertex health check failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.client.Close()
}

// splitHistory converts messages into Gemini contents and separates the final
// user turn. Adjacent messages with the same role, such as a user turn left
// behind by a failed request, are merged so roles alternate.
func splitHistory(messages []chat.Message) ([]*genai.Content, []genai.Part, error) {
	if len(messages) == 0 {
		return nil, nil, chat.ErrEmptyMessage
	}
	if last := messages[len(messages)-1]; last.Role != chat.RoleUser {
		return nil, nil, fmt.Errorf("last message must come from the user, got %q", last.Role)
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := string(chat.RoleUser)
		if m.Role == chat.RoleAssistant {
			role = roleModel
		}

		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, genai.Text(m.Content))
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	last := contents[len(contents)-1]
	return contents[:len(contents)-1], last.Parts, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}
