package webserver

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

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// APIError is a non-2xx answer of the platform API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// ErrorMessage returns the user-facing message of err, or fallback
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// FavoriteState is the answer of the favorite endpoints
type FavoriteState struct {
	PlantID   uuid.UUID `json:"plant_id"`
	Favorited bool      `json:"favorited"`
	Title     string    `json:"title"`
}

// APIClient talks to the platform API
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAPIClient creates a client with an otelhttp instrumented transport
func NewAPIClient(cfg config.WebConfig, logger *zap.Logger) *APIClient {
	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return &APIClient{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("api-client"),
	}
}

// BaseURL returns the API root
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the instrumented client, for health checks
func (c *APIClient) HTTPClient() *http.Client {
	return c.httpClient
}

// Login signs in with email and password
func (c *APIClient) Login(ctx context.Context, email, password string) (*inbound.AuthResult, error) {
	var result inbound.AuthResult
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", inbound.SignInCommand{
		Email:    email,
		Password: password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates an account and signs it in
func (c *APIClient) Register(ctx context.Context, name, email, password string) (*inbound.AuthResult, error) {
	var result inbound.AuthResult
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", "", inbound.RegisterCommand{
		Email:    email,
		Name:     name,
		Password: password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout revokes the token
func (c *APIClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", token, nil, nil)
}

// ListPlants returns the catalog ordered by name
func (c *APIClient) ListPlants(ctx context.Context) ([]*plant.Plant, error) {
	var resp struct {
		Plants []*plant.Plant `json:"plants"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/plants", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Plants, nil
}

// GetPlant returns one plant
func (c *APIClient) GetPlant(ctx context.Context, id uuid.UUID) (*plant.Plant, error) {
	var p plant.Plant
	if err := c.do(ctx, http.MethodGet, "/api/v1/plants/"+id.String(), "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FavoritePlantIDs returns the plants the token's user has favorited
func (c *APIClient) FavoritePlantIDs(ctx context.Context, token string) ([]uuid.UUID, error) {
	var resp struct {
		PlantIDs []uuid.UUID `json:"plant_ids"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/favorites", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.PlantIDs, nil
}

// ToggleFavorite flips the favorite state of a plant
func (c *APIClient) ToggleFavorite(ctx context.Context, token string, plantID uuid.UUID) (*FavoriteState, error) {
	var state FavoriteState
	path := fmt.Sprintf("/api/v1/favorites/%s/toggle", plantID)
	if err := c.do(ctx, http.MethodPost, path, token, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// AnalyzePlant asks the analysis function for insights
func (c *APIClient) AnalyzePlant(ctx context.Context, req plant.AnalysisRequest) (string, error) {
	var resp struct {
		Insights string `json:"insights"`
	}
	if err := c.do(ctx, http.MethodPost, "/functions/v1/analyze-plant", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Insights, nil
}

// Consult sends one consultant turn with the prior history
func (c *APIClient) Consult(ctx context.Context, message string, history []chat.Message) (string, error) {
	if history == nil {
		history = []chat.Message{}
	}
	body := map[string]interface{}{
		"message":             message,
		"conversationHistory": history,
	}

	var resp struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, http.MethodPost, "/functions/v1/ai-plant-consultant", "", body, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

func (c *APIClient) do(ctx context.Context, method, path, token string, body, response interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("API request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: decodeErrorMessage(data)}
		if resp.StatusCode >= http.StatusInternalServerError {
			c.logger.Error("API error response",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("message", apiErr.Message),
			)
		}
		return apiErr
	}

	if response == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// decodeErrorMessage understands the envelope {"error":{"message":...}}
// and the flat {"error":"..."} of the functions endpoints
func decodeErrorMessage(data []byte) string {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Error) == 0 {
		return ""
	}

	var flat string
	if err := json.Unmarshal(body.Error, &flat); err == nil {
		return flat
	}

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &envelope); err == nil {
		return envelope.Message
	}
	return ""
}
