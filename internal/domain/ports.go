package domain

import (
	"context"
	"errors"
)

// Provider failures, as seen by the orchestrators. The Gemini adapter maps
// transport-level errors onto these; the orchestrators absorb them into
// degraded results and never surface them raw.
var (
	ErrProviderUnauthenticated = errors.New("provider: unauthenticated")
	ErrProviderRateLimited     = errors.New("provider: rate limited")
	ErrProviderTimeout         = errors.New("provider: timed out")
	ErrProviderUnknown         = errors.New("provider: request failed")
)

// GenerateConfig is the sampling configuration for one model call.
type GenerateConfig struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// Generator defines how the application talks to the generative model.
// GenerateText replays the conversation history as context; GenerateMultimodal
// is a one-shot call combining a prompt with image bytes.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, history []Turn, cfg GenerateConfig) (string, error)
	GenerateMultimodal(ctx context.Context, prompt string, image []byte, mimeType string, cfg GenerateConfig) (string, error)
}
