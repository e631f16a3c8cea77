// Package ai provides the application layer for plant insights and the AI consultant
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// AnalysisFailedMessage is shown when insights cannot be generated
	AnalysisFailedMessage = "Failed to analyze plant"
	// ConsultFailedMessage is shown when the consultant cannot reply
	ConsultFailedMessage = "Failed to get response"

	insightCachePrefix = "insights:"
)

var (
	ErrNoProviders = errors.New("no AI provider configured")
	ErrEmptyReply  = errors.New("AI provider returned an empty reply")
)

// Options tunes completions and the insight cache
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	EnableCache bool
	CacheTTL    time.Duration
}

// AIService answers analysis and consultant requests, falling back through
// the configured providers in order
type AIService struct {
	providers []outbound.LanguageModel
	cache     outbound.CacheRepository
	opts      Options
	metrics   *Metrics
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewAIService creates a new AI service. cache may be nil when insight caching is off.
func NewAIService(
	providers []outbound.LanguageModel,
	cache outbound.CacheRepository,
	opts Options,
	metrics *Metrics,
	logger *zap.Logger,
) *AIService {
	s := &AIService{
		providers: providers,
		cache:     cache,
		opts:      opts,
		metrics:   metrics,
		tracer:    otel.Tracer("github.com/medihort/medihort-ai/internal/application/ai"),
		logger:    logger.Named("ai-service"),
	}

	if len(providers) > 0 {
		s.logger.Info("AI service initialized",
			zap.String("primary_provider", providers[0].Name()),
			zap.Int("fallbacks", len(providers)-1),
			zap.Bool("insight_cache", s.cacheEnabled()),
		)
	} else {
		s.logger.Warn("AI service initialized without providers")
	}

	return s
}

// Providers returns the provider chain, primary first
func (s *AIService) Providers() []outbound.LanguageModel {
	return s.providers
}

// AnalyzePlant generates insights for a plant in one request/response exchange
func (s *AIService) AnalyzePlant(ctx context.Context, req plant.AnalysisRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}

	ctx, span := s.tracer.Start(ctx, "ai.AnalyzePlant",
		trace.WithAttributes(attribute.String("plant.name", req.PlantName)),
	)
	defer span.End()

	s.logger.Info("Analyzing plant", zap.String("plant", req.PlantName))

	cacheKey := insightCachePrefix + req.Fingerprint()
	if insights, ok := s.cachedInsights(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("ai.cache_hit", true))
		s.metrics.observe(ctx, KindAnalysis, "cache", outcomeCacheHit, 0, insights)
		return insights, nil
	}

	messages := []chat.Message{{Role: chat.RoleUser, Content: buildAnalysisPrompt(req)}}
	insights, err := s.complete(ctx, KindAnalysis, analysisSystemPrompt, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, AnalysisFailedMessage)
		s.logger.Error("Plant analysis failed", zap.String("plant", req.PlantName), zap.Error(err))
		return "", apperrors.NewAppError(apperrors.CodeExternalServiceError, AnalysisFailedMessage, err.Error()).WithCause(err)
	}

	s.storeInsights(ctx, cacheKey, insights)
	return insights, nil
}

// Consult sends the system prompt, the full prior history and the new message.
// The history is never truncated.
func (s *AIService) Consult(ctx context.Context, message string, history []chat.Message) (string, error) {
	msg, err := chat.NormalizeInput(message)
	if err != nil {
		return "", apperrors.NewAppError(apperrors.CodeEmptyMessage, "Message is empty", "")
	}
	if err := chat.ValidateHistory(history); err != nil {
		return "", apperrors.NewBadRequestError(err.Error())
	}

	ctx, span := s.tracer.Start(ctx, "ai.Consult",
		trace.WithAttributes(attribute.Int("chat.history_length", len(history))),
	)
	defer span.End()

	messages := make([]chat.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, chat.Message{Role: chat.RoleUser, Content: msg})

	reply, err := s.complete(ctx, KindConsultation, consultantSystemPrompt, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ConsultFailedMessage)
		s.logger.Error("Consultation failed", zap.Int("history_length", len(history)), zap.Error(err))
		return "", apperrors.NewAppError(apperrors.CodeExternalServiceError, ConsultFailedMessage, err.Error()).WithCause(err)
	}

	return reply, nil
}

// complete tries the primary provider, then each fallback in order
func (s *AIService) complete(ctx context.Context, kind, systemPrompt string, messages []chat.Message) (string, error) {
	if len(s.providers) == 0 {
		return "", ErrNoProviders
	}

	opts := outbound.CompletionOptions{
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	}

	var errs []error
	for i, provider := range s.providers {
		if i > 0 {
			s.metrics.fallback(kind, s.providers[i-1].Name())
			s.logger.Warn("AI provider failed, using fallback",
				zap.String("kind", kind),
				zap.String("failed_provider", s.providers[i-1].Name()),
				zap.String("fallback_provider", provider.Name()),
			)
		}

		reply, err := s.completeWith(ctx, provider, kind, systemPrompt, messages, opts)
		if err == nil {
			if i > 0 {
				s.logger.Info("Fallback AI provider succeeded",
					zap.String("kind", kind),
					zap.String("provider", provider.Name()),
				)
			}
			return reply, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}

	return "", errors.Join(errs...)
}

func (s *AIService) completeWith(
	ctx context.Context,
	provider outbound.LanguageModel,
	kind, systemPrompt string,
	messages []chat.Message,
	opts outbound.CompletionOptions,
) (string, error) {
	ctx, span := s.tracer.Start(ctx, "ai.provider.Complete",
		trace.WithAttributes(
			attribute.String("ai.provider", provider.Name()),
			attribute.String("ai.kind", kind),
		),
	)
	defer span.End()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := provider.Complete(ctx, systemPrompt, messages, opts)
	elapsed := time.Since(start)

	reply = strings.TrimSpace(reply)
	if err == nil && reply == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.observe(ctx, kind, provider.Name(), outcomeError, elapsed, "")
		return "", err
	}

	s.metrics.observe(ctx, kind, provider.Name(), outcomeSuccess, elapsed, reply)
	s.logger.Debug("AI completion finished",
		zap.String("kind", kind),
		zap.String("provider", provider.Name()),
		zap.Duration("duration", elapsed),
		zap.Int("reply_length", len(reply)),
	)
	return reply, nil
}

func (s *AIService) cacheEnabled() bool {
	return s.opts.EnableCache && s.cache != nil
}

func (s *AIService) cachedInsights(ctx context.Context, key string) (string, bool) {
	if !s.cacheEnabled() {
		return "", false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Insight cache read failed", zap.Error(err))
		}
		return "", false
	}
	return string(data), true
}

func (s *AIService) storeInsights(ctx context.Context, key, insights string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Set(ctx, key, []byte(insights), s.opts.CacheTTL); err != nil {
		s.logger.Warn("Insight cache write failed", zap.Error(err))
	}
}
