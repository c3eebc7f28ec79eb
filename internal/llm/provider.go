package llm

import (
	"context"
	"fmt"

	"github.com/mythictransfers/supportdesk/internal/config"
	"go.uber.org/zap"
)

// FromConfig builds the completer selected by cfg.LLMProvider.
func FromConfig(ctx context.Context, cfg *config.Config, log *zap.Logger) (Completer, error) {
	switch cfg.LLMProvider {
	case config.LLMAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			BaseURL: cfg.AnthropicURL,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.OutboundRequestTimeout,
		}, log)
	case config.LLMGemini:
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		}, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
