package llm

import (
	"context"
	"fmt"
	"log"

	"crewbuilder/internal/config"
	llmclient "crewbuilder/internal/llm/client"
)

// NewFromConfig builds the oracle client with its middleware chain. It
// returns (nil, nil) when no backend is configured; callers then run every
// stage on its fallback.
func NewFromConfig(ctx context.Context, cfg config.OracleConfig, logger *log.Logger) (LLMClient, error) {
	if !cfg.Enhanced() {
		return nil, nil
	}
	var (
		base LLMClient
		err  error
	)
	switch {
	case cfg.Provider == "gemini", cfg.Provider == "auto" && cfg.GeminiKey != "":
		base, err = llmclient.NewGeminiClient(ctx, cfg.GeminiKey, cfg.Model)
	case cfg.Provider == "groq", cfg.Provider == "auto" && cfg.GroqKey != "":
		base, err = llmclient.NewGroqClient(cfg.GroqKey, cfg.Model)
	default:
		return nil, fmt.Errorf("llm: no client for provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Wrap(base,
		Cache(cfg.CacheSize, cfg.CacheTTL),
		WithLogging(logger),
		Retry(cfg.Retries+1, 0),
		RateLimit(cfg.RPS, cfg.Burst),
	), nil
}
