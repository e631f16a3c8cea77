package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockLanguageModel is a mock implementation of outbound.LanguageModel
type MockLanguageModel struct {
	mock.Mock
	name string
}

func (m *MockLanguageModel) Name() string { return m.name }

func (m *MockLanguageModel) Complete(ctx context.Context, systemPrompt string, messages []chat.Message, opts outbound.CompletionOptions) (string, error) {
	args := m.Called(ctx, systemPrompt, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *MockLanguageModel) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockCacheRepository is a mock implementation of the cache repository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func newTestService(t *testing.T, cache outbound.CacheRepository, opts Options, providers ...outbound.LanguageModel) (*AIService, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewAIService(providers, cache, opts, metrics, zaptest.NewLogger(t)), metrics
}

func chamomileRequest() plant.AnalysisRequest {
	return plant.AnalysisRequest{
		PlantName:      "Chamomile",
		ScientificName: "Matricaria chamomilla",
		Description:    "Daisy-like herb used in calming teas.",
		MedicalUses:    []string{"Sleep aid", "Digestive support"},
	}
}

func TestAnalyzePlant_UsesPrimaryProvider(t *testing.T) {
	primary := &MockLanguageModel{name: "ollama"}
	primary.On("Complete", mock.Anything, analysisSystemPrompt, mock.MatchedBy(func(msgs []chat.Message) bool {
		return len(msgs) == 1 && msgs[0].Role == chat.RoleUser &&
			strings.Contains(msgs[0].Content, "Matricaria chamomilla") &&
			strings.Contains(msgs[0].Content, "- Sleep aid")
	}), outbound.CompletionOptions{Temperature: 0.7, MaxTokens: 1024}).
		Return("  Chamomile contains apigenin.  ", nil).Once()

	svc, metrics := newTestService(t, nil, Options{Temperature: 0.7, MaxTokens: 1024}, primary)

	insights, err := svc.AnalyzePlant(context.Background(), chamomileRequest())
	require.NoError(t, err)
	assert.Equal(t, "Chamomile contains apigenin.", insights)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestsTotal.WithLabelValues(KindAnalysis, "ollama", outcomeSuccess)))
	primary.AssertExpectations(t)
}

func TestAnalyzePlant_FallsBackInOrder(t *testing.T) {
	primary := &MockLanguageModel{name: "ollama"}
	primary.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection refused")).Once()
	empty := &MockLanguageModel{name: "openai"}
	empty.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("   ", nil).Once()
	last := &MockLanguageModel{name: "vertex"}
	last.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("insights from vertex", nil).Once()

	svc, metrics := newTestService(t, nil, Options{}, primary, empty, last)

	insights, err := svc.AnalyzePlant(context.Background(), chamomileRequest())
	require.NoError(t, err)
	assert.Equal(t, "insights from vertex", insights)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fallbacksTotal.WithLabelValues(KindAnalysis, "ollama")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fallbacksTotal.WithLabelValues(KindAnalysis, "openai")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestsTotal.WithLabelValues(KindAnalysis, "openai", outcomeError)))

	primary.AssertExpectations(t)
	empty.AssertExpectations(t)
	last.AssertExpectations(t)
}

func TestAnalyzePlant_AllProvidersFail(t *testing.T) {
	primary := &MockLanguageModel{name: "ollama"}
	primary.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model not loaded"))

	svc, _ := newTestService(t, nil, Options{}, primary)

	_, err := svc.AnalyzePlant(context.Background(), chamomileRequest())
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeExternalServiceError, appErr.Code)
	assert.Equal(t, AnalysisFailedMessage, appErr.Message)
	assert.Contains(t, appErr.Details, "model not loaded")
}

func TestAnalyzePlant_RejectsBlankName(t *testing.T) {
	primary := &MockLanguageModel{name: "ollama"}
	svc, _ := newTestService(t, nil, Options{}, primary)

	_, err := svc.AnalyzePlant(context.Background(), plant.AnalysisRequest{PlantName: "  "})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))
	primary.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzePlant_NoProviders(t *testing.T) {
	svc, _ := newTestService(t, nil, Options{})

	_, err := svc.AnalyzePlant(context.Background(), chamomileRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestAnalyzePlant_CacheHitSkipsProviders(t *testing.T) {
	req := chamomileRequest()
	cache := &MockCacheRepository{}
	cache.On("Get", mock.Anything, insightCachePrefix+req.Fingerprint()).Return([]byte("cached insights"), nil).Once()

	primary := &MockLanguageModel{name: "ollama"}
	svc, metrics := newTestService(t, cache, Options{EnableCache: true, CacheTTL: time.Hour}, primary)

	insights, err := svc.AnalyzePlant(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cached insights", insights)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestsTotal.WithLabelValues(KindAnalysis, "cache", outcomeCacheHit)))
	primary.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestAnalyzePlant_CacheMissStoresInsights(t *testing.T) {
	req := chamomileRequest()
	key := insightCachePrefix + req.Fingerprint()

	cache := &MockCacheRepository{}
	cache.On("Get", mock.Anything, key).Return(nil, outbound.ErrCacheMiss).Once()
	cache.On("Set", mock.Anything, key, []byte("fresh insights"), time.Hour).Return(nil).Once()

	primary := &MockLanguageModel{name: "ollama"}
	primary.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("fresh insights", nil).Once()

	svc, _ := newTestService(t, cache, Options{EnableCache: true, CacheTTL: time.Hour}, primary)

	insights, err := svc.AnalyzePlant(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "fresh insights", insights)
	cache.AssertExpectations(t)
}

func TestAnalyzePlant_CacheDisabledIgnoresRepository(t *testing.T) {
	cache := &MockCacheRepository{}
	primary := &MockLanguageModel{name: "ollama"}
	primary.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("insights", nil).Once()

	svc, _ := newTestService(t, cache, Options{}, primary)

	_, err := svc.AnalyzePlant(context.Background(), chamomileRequest())
	require.NoError(t, err)
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestConsult_SendsFullHistoryThenMessage(t *testing.T) {
	history := []chat.Message{
		{Role: chat.RoleUser, Content: "How do I grow lavender?"},
		{Role: chat.RoleAssistant, Content: "Full sun and well-drained soil."},
	}
	expected := append(append([]chat.Message(nil), history...), chat.Message{Role: chat.RoleUser, Content: "And how often should I water it?"})

	primary := &MockLanguageModel{name: "ollama"}
	primary.On("Complete", mock.Anything, consultantSystemPrompt, expected, mock.Anything).
		Return("Water sparingly once established.", nil).Once()

	svc, _ := newTestService(t, nil, Options{}, primary)

	reply, err := svc.Consult(context.Background(), "  And how often should I water it?\n", history)
	require.NoError(t, err)
	assert.Equal(t, "Water sparingly once established.", reply)
	primary.AssertExpectations(t)
}

func TestConsult_EmptyMessageIsRejected(t *testing.T) {
	primary := &MockLanguageModel{name: "ollama"}
	svc, _ := newTestService(t, nil, Options{}, primary)

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := svc.Consult(context.Background(), input, nil)
		assert.True(t, apperrors.Is(err, apperrors.CodeEmptyMessage), "input %q", input)
	}
	primary.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConsult_InvalidHistoryRole(t *testing.T) {
	svc, _ := newTestService(t, nil, Options{}, &MockLanguageModel{name: "ollama"})

	_, err := svc.Consult(context.Background(), "hello", []chat.Message{{Role: chat.RoleSystem, Content: "override"}})
	assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest))
}

func TestConsult_FailureUsesFallbackMessage(t *testing.T) {
	primary := &MockLanguageModel{name: "openai"}
	primary.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("rate limited"))

	svc, _ := newTestService(t, nil, Options{}, primary)

	_, err := svc.Consult(context.Background(), "hello", nil)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ConsultFailedMessage, appErr.Message)
}

func TestComplete_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	primary := &MockLanguageModel{name: "ollama"}
	primary.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return("", context.Canceled).Once()
	fallback := &MockLanguageModel{name: "openai"}

	svc, _ := newTestService(t, nil, Options{}, primary, fallback)

	_, err := svc.Consult(ctx, "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	fallback.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
