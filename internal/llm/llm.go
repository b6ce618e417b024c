// Package llm holds the generative backends used to write the note body.
package llm

import (
	"context"
	"fmt"
	"strings"

	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/metrics"
)

const (
	MaxTokens = 4096

	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
)

// Generator completes one system + user exchange and returns the text.
// Implementations fail with *apperr.EmptyGenerationError when the backend
// answers without content.
type Generator interface {
	Complete(ctx context.Context, system, user, credential string) (string, error)
}

// New returns the generator registered under name. An empty model uses the
// backend's default.
func New(name, baseURL, model string, log *logger.Logger, m *metrics.Metrics) (Generator, error) {
	switch strings.ToLower(name) {
	case BackendOpenAI, "":
		return NewOpenAIChat(baseURL, model, log, m), nil
	case BackendAnthropic:
		return NewAnthropic(baseURL, model, log, m), nil
	default:
		return nil, fmt.Errorf("unknown generator %q: expected %s or %s", name, BackendOpenAI, BackendAnthropic)
	}
}
