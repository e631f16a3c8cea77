package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"go.uber.org/zap"
)

// HealthChecker checks every provider in the chain
type HealthChecker struct {
	providers []outbound.LanguageModel
	logger    *zap.Logger
}

// NewHealthChecker creates a new AI health checker
func NewHealthChecker(providers []outbound.LanguageModel, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		providers: providers,
		logger:    logger.Named("ai-health"),
	}
}

// AIHealthStatus represents the health status of AI services
type AIHealthStatus struct {
	Overall   string            `json:"overall"`
	Providers map[string]bool   `json:"providers"`
	Details   map[string]string `json:"details"`
	LastCheck time.Time         `json:"last_check"`
}

// CheckHealth checks all providers concurrently. The status is healthy when
// every provider answers, degraded when at least one does.
func (h *HealthChecker) CheckHealth(ctx context.Context) *AIHealthStatus {
	status := &AIHealthStatus{
		Providers: make(map[string]bool, len(h.providers)),
		Details:   make(map[string]string, len(h.providers)),
		LastCheck: time.Now(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range h.providers {
		wg.Add(1)
		go func(p outbound.LanguageModel) {
			defer wg.Done()
			err := p.HealthCheck(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				status.Providers[p.Name()] = false
				status.Details[p.Name()] = fmt.Sprintf("Unhealthy: %v", err)
				h.logger.Warn("AI provider health check failed", zap.String("provider", p.Name()), zap.Error(err))
				return
			}
			status.Providers[p.Name()] = true
			status.Details[p.Name()] = "Healthy"
		}(p)
	}
	wg.Wait()

	healthy := 0
	for _, ok := range status.Providers {
		if ok {
			healthy++
		}
	}

	switch {
	case len(h.providers) > 0 && healthy == len(h.providers):
		status.Overall = "healthy"
	case healthy > 0:
		status.Overall = "degraded"
	default:
		status.Overall = "unhealthy"
	}
	return status
}

// Check returns an error unless at least one provider is healthy
func (h *HealthChecker) Check(ctx context.Context) error {
	status := h.CheckHealth(ctx)
	if status.Overall == "unhealthy" {
		return fmt.Errorf("no ai provider is reachable: %v", status.Details)
	}
	return nil
}
