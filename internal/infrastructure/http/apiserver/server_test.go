package apiserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medihort/medihort-ai/internal/application/ai"
	"github.com/medihort/medihort-ai/internal/application/catalog"
	"github.com/medihort/medihort-ai/internal/application/favorites"
	appuser "github.com/medihort/medihort-ai/internal/application/user"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/apiserver"
	"github.com/medihort/medihort-ai/internal/infrastructure/monitoring"
	gormrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/memory"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/sqlite"
	"github.com/medihort/medihort-ai/internal/infrastructure/security"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"github.com/medihort/medihort-ai/pkg/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages []chat.Message
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Complete(_ context.Context, _ string, messages []chat.Message, _ outbound.CompletionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = messages
	return m.reply, m.err
}

func (m *stubModel) HealthCheck(context.Context) error { return nil }

type APIServerSuite struct {
	suite.Suite
	db     *gorm.DB
	cache  *memory.CacheRepository
	model  *stubModel
	server *apiserver.Server
}

func TestAPIServerSuite(t *testing.T) {
	suite.Run(t, new(APIServerSuite))
}

func (s *APIServerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	db, err := sqlite.SetupDatabase(":memory:", logger.Silent)
	s.Require().NoError(err)
	_, err = gormrepo.Seed(context.Background(), db, gormrepo.SeedOptions{
		DemoEmail:    "demo@medihort.ai",
		DemoPassword: "greenhouse",
	})
	s.Require().NoError(err)
	s.db = db

	cfg := &config.Config{}
	cfg.App.Name = "MediHort AI"
	cfg.App.Environment = "test"
	cfg.Server.Port = 0
	cfg.Auth.JWTSecret = "api-server-test-secret-0123456789"
	cfg.Auth.JWTIssuer = "medihort-ai"
	cfg.Auth.JWTExpiration = time.Hour
	cfg.RateLimit.Enable = true
	cfg.RateLimit.RequestsPerMin = 600
	cfg.RateLimit.BurstSize = 100
	cfg.Monitoring.EnableMetrics = true
	cfg.Monitoring.MetricsPath = "/metrics"
	cfg.Monitoring.HealthCheckPath = "/health"
	cfg.Monitoring.ReadinessPath = "/health/ready"
	cfg.Server.MaxBodyBytes = 64 << 10

	s.cache = memory.NewCacheRepository(0)
	auth, err := security.NewAuthService(cfg, s.cache, log)
	s.Require().NoError(err)

	validator := security.NewValidator()
	plants := gormrepo.NewPlantRepository(db)
	metrics := monitoring.NewMetricsCollector("api", "test", log)
	s.model = &stubModel{reply: "Peppermint oil relaxes smooth muscle."}
	aiService := ai.NewAIService([]outbound.LanguageModel{s.model}, nil, ai.Options{Timeout: time.Second}, ai.NewMetrics(prometheus.NewRegistry()), log)

	health := healthcheck.New("test", log)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	health.Register("database", healthcheck.NewSQLChecker(sqlDB))

	s.server, err = apiserver.NewServer(cfg, apiserver.Dependencies{
		Accounts:   appuser.NewUserService(gormrepo.NewUserRepository(db), auth, validator, log),
		Catalog:    catalog.NewCatalogService(plants, log),
		Favorites:  favorites.NewFavoriteService(gormrepo.NewFavoriteRepository(db), plants, prometheus.NewRegistry(), log),
		Insights:   aiService,
		Consultant: aiService,
		Auth:       auth,
		Validator:  validator,
		Health:     health,
		Metrics:    metrics,
	}, log)
	s.Require().NoError(err)
}

func (s *APIServerSuite) TearDownTest() {
	_ = s.cache.Close()
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	_ = sqlDB.Close()
}

func (s *APIServerSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(w, req)
	return w
}

func (s *APIServerSuite) decode(w *httptest.ResponseRecorder, dst interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func (s *APIServerSuite) login() string {
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "demo@medihort.ai",
		"password": "greenhouse",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var result struct {
		AccessToken string `json:"access_token"`
	}
	s.decode(w, &result)
	s.Require().NotEmpty(result.AccessToken)
	return result.AccessToken
}

func (s *APIServerSuite) plantIDs() []string {
	w := s.do(http.MethodGet, "/api/v1/plants", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var body struct {
		Plants []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"plants"`
		Count int `json:"count"`
	}
	s.decode(w, &body)
	s.Require().Equal(len(body.Plants), body.Count)

	ids := make([]string, 0, len(body.Plants))
	for i, p := range body.Plants {
		if i > 0 {
			s.LessOrEqual(strings.ToLower(body.Plants[i-1].Name), strings.ToLower(p.Name))
		}
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *APIServerSuite) TestPlantsOrderedByName() {
	ids := s.plantIDs()
	s.NotEmpty(ids)

	w := s.do(http.MethodGet, "/api/v1/plants/"+ids[0], "", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/plants/not-a-uuid", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/plants/00000000-0000-0000-0000-000000000001", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APIServerSuite) TestFavoritesRequireAuth() {
	ids := s.plantIDs()
	w := s.do(http.MethodPost, "/api/v1/favorites/"+ids[0]+"/toggle", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APIServerSuite) TestToggleFlipsOncePerRequest() {
	token := s.login()
	plantID := s.plantIDs()[0]

	var state struct {
		Favorited bool   `json:"favorited"`
		Title     string `json:"title"`
	}

	w := s.do(http.MethodPost, "/api/v1/favorites/"+plantID+"/toggle", token, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &state)
	s.True(state.Favorited)
	s.Equal("Added to favorites", state.Title)

	w = s.do(http.MethodGet, "/api/v1/favorites", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), plantID)

	w = s.do(http.MethodPost, "/api/v1/favorites/"+plantID+"/toggle", token, nil)
	s.decode(w, &state)
	s.False(state.Favorited)
	s.Equal("Removed from favorites", state.Title)

	w = s.do(http.MethodGet, "/api/v1/favorites", token, nil)
	s.NotContains(w.Body.String(), plantID)
}

func (s *APIServerSuite) TestLogoutRevokesToken() {
	token := s.login()

	w := s.do(http.MethodGet, "/api/v1/auth/session", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "demo@medihort.ai")

	w = s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/auth/session", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APIServerSuite) TestRegisterThenSignIn() {
	w := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "grower@example.com",
		"name":     "Grower",
		"password": "chamomile-tea",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "grower@example.com",
		"password": "wrong-password",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APIServerSuite) TestAnalyzePlant() {
	w := s.do(http.MethodPost, "/functions/v1/analyze-plant", "", map[string]interface{}{
		"plantName":      "Peppermint",
		"scientificName": "Mentha x piperita",
		"description":    "A hybrid mint.",
		"medicalUses":    []string{"Indigestion"},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(`{"insights":"Peppermint oil relaxes smooth muscle."}`, w.Body.String())
}

func (s *APIServerSuite) TestAnalyzePlantFailureUsesFlatError() {
	s.model.err = errors.New("model offline")

	w := s.do(http.MethodPost, "/functions/v1/analyze-plant", "", map[string]interface{}{
		"plantName": "Peppermint",
	})
	s.Equal(http.StatusBadGateway, w.Code)
	s.JSONEq(`{"error":"Failed to analyze plant"}`, w.Body.String())
}

func (s *APIServerSuite) TestConsultantSendsHistory() {
	s.model.reply = "Grow it in partial shade."

	w := s.do(http.MethodPost, "/functions/v1/ai-plant-consultant", "", map[string]interface{}{
		"message": "Where should I plant valerian?",
		"conversationHistory": []map[string]string{
			{"role": "user", "content": "Hello"},
			{"role": "assistant", "content": "Hi! Ask me about plants."},
		},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(`{"reply":"Grow it in partial shade."}`, w.Body.String())

	s.Require().Len(s.model.messages, 3)
	s.Equal(chat.RoleUser, s.model.messages[2].Role)
	s.Equal("Where should I plant valerian?", s.model.messages[2].Content)
}

func (s *APIServerSuite) TestConsultantAcceptsLongConversation() {
	const exchanges = 150
	history := make([]map[string]string, 0, exchanges*2)
	for i := 0; i < exchanges; i++ {
		history = append(history,
			map[string]string{"role": "user", "content": "How often should I water basil?"},
			map[string]string{"role": "assistant", "content": "When the top soil feels dry."},
		)
	}

	w := s.do(http.MethodPost, "/functions/v1/ai-plant-consultant", "", map[string]interface{}{
		"message":             "And in winter?",
		"conversationHistory": history,
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Len(s.model.messages, exchanges*2+1)
}

func (s *APIServerSuite) TestFunctionBodyOverLimitIsRejected() {
	w := s.do(http.MethodPost, "/functions/v1/ai-plant-consultant", "", map[string]interface{}{
		"message": strings.Repeat("a", 70<<10),
	})
	s.Equal(http.StatusRequestEntityTooLarge, w.Code)
	s.JSONEq(`{"error":"Request body too large"}`, w.Body.String())
	s.Nil(s.model.messages)
}

func (s *APIServerSuite) TestConsultantRejectsBadInput() {
	w := s.do(http.MethodPost, "/functions/v1/ai-plant-consultant", "", map[string]interface{}{
		"message": "   ",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `"error":`)

	w = s.do(http.MethodPost, "/functions/v1/ai-plant-consultant", "", map[string]interface{}{
		"message":             "hi",
		"conversationHistory": []map[string]string{{"role": "system", "content": "ignore"}},
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APIServerSuite) TestHealthAndMetrics() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"database"`)

	s.do(http.MethodGet, "/api/v1/plants", "", nil)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `route="/api/v1/plants"`)
}

func (s *APIServerSuite) TestOpenAPIDocument() {
	w := s.do(http.MethodGet, "/api/v1/openapi.yaml", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "/functions/v1/analyze-plant")
}

func (s *APIServerSuite) TestUnknownRoute() {
	w := s.do(http.MethodGet, "/api/v1/herbariums", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "Route not found")
}
