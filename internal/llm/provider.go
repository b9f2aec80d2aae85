// Package llm provides optional language-model refinement of lead
// insights. Refinement only rewrites the insight text used in the
// first outreach email; it never touches the numeric score.
package llm

import (
	"context"
	"fmt"

	"github.com/vantix/leads-engine/internal/model"
)

// Provider rewrites a lead's templated insight into sharper copy
type Provider interface {
	// Refine returns an improved insight for the lead. The returned
	// string replaces lead.Insight; an error means the caller should
	// keep the templated text.
	Refine(ctx context.Context, lead model.Lead) (string, error)

	// Name returns the provider name for logging
	Name() string
}

// NewProvider creates a provider from config. An empty provider name
// disables refinement and returns nil with no error.
func NewProvider(cfg model.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
