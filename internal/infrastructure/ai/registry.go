// Package ai builds the configured language model providers
package ai

import (
	"context"
	"fmt"

	"github.com/medihort/medihort-ai/internal/infrastructure/ai/ollama"
	"github.com/medihort/medihort-ai/internal/infrastructure/ai/openai"
	"github.com/medihort/medihort-ai/internal/infrastructure/ai/vertex"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"go.uber.org/zap"
)

var providerOrder = []string{"ollama", "openai", "vertex"}

// ProviderChain returns provider names in the order they are tried: the
// primary, then the configured fallbacks, or every other configured provider
// when no fallbacks are listed.
func ProviderChain(cfg config.AIConfig) []string {
	chain := []string{cfg.Provider}
	seen := map[string]bool{cfg.Provider: true}

	candidates := cfg.Fallbacks
	if len(candidates) == 0 {
		for _, name := range providerOrder {
			if configured(cfg, name) {
				candidates = append(candidates, name)
			}
		}
	}

	for _, name := range candidates {
		if !seen[name] {
			chain = append(chain, name)
			seen[name] = true
		}
	}
	return chain
}

func configured(cfg config.AIConfig, name string) bool {
	switch name {
	case "ollama":
		return cfg.Ollama.Host != "" && cfg.Ollama.Model != ""
	case "openai":
		return cfg.OpenAI.APIKey != ""
	case "vertex":
		return cfg.Vertex.ProjectID != ""
	}
	return false
}

// NewProviders builds the provider chain. A provider that cannot be created is
// skipped with a warning; an empty chain is an error.
func NewProviders(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) ([]outbound.LanguageModel, error) {
	var providers []outbound.LanguageModel

	for _, name := range ProviderChain(cfg) {
		switch name {
		case "ollama":
			providers = append(providers, ollama.NewClient(cfg.Ollama, cfg.Timeout, logger))
		case "openai":
			if cfg.OpenAI.APIKey == "" {
				logger.Warn("Skipping openai provider: no API key")
				continue
			}
			providers = append(providers, openai.NewClient(cfg.OpenAI, cfg.Timeout, logger))
		case "vertex":
			client, err := vertex.NewClient(ctx, cfg.Vertex, logger)
			if err != nil {
				logger.Warn("Skipping vertex provider", zap.Error(err))
				continue
			}
			providers = append(providers, client)
		default:
			return nil, fmt.Errorf("unknown ai provider %q", name)
		}
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no ai provider could be configured")
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	logger.Info("AI providers ready", zap.Strings("chain", names))

	return providers, nil
}
