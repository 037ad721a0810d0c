package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/gviz-app/gviz-api/internal/domain"
)

// MockGenerator is a scriptable stand-in for the Gemini client, used in
// tests and in local development mode. Set Err to force the failure path,
// or TextReply / MultimodalReply to fix the output.
type MockGenerator struct {
	mu sync.Mutex

	TextReply       string
	MultimodalReply string
	Err             error

	TextCalls       int
	MultimodalCalls int
	LastPrompt      string
	LastHistory     []domain.Turn
	LastMIMEType    string
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) GenerateText(ctx context.Context, prompt string, history []domain.Turn, cfg domain.GenerateConfig) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TextCalls++
	m.LastPrompt = prompt
	m.LastHistory = append([]domain.Turn(nil), history...)

	if m.Err != nil {
		return "", m.Err
	}
	if m.TextReply != "" {
		return m.TextReply, nil
	}
	return fmt.Sprintf("I hear you. You said %q — tell me a bit more.", prompt), nil
}

func (m *MockGenerator) GenerateMultimodal(ctx context.Context, prompt string, image []byte, mimeType string, cfg domain.GenerateConfig) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MultimodalCalls++
	m.LastPrompt = prompt
	m.LastMIMEType = mimeType

	if m.Err != nil {
		return "", m.Err
	}
	if m.MultimodalReply != "" {
		return m.MultimodalReply, nil
	}
	return fmt.Sprintf("The image (%d bytes, %s) looks interesting.", len(image), mimeType), nil
}
