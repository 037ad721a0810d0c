package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gviz-app/gviz-api/internal/domain"
	"github.com/gviz-app/gviz-api/internal/observability"
)

const notConfiguredMessage = "Chatbot service is not properly configured. Please contact support."

// chatConfig biases the model toward conversational replies of modest length.
var chatConfig = domain.GenerateConfig{
	Temperature:     0.7,
	TopP:            0.9,
	TopK:            20,
	MaxOutputTokens: 800,
}

// Image is a decoded chat attachment.
type Image struct {
	Data     []byte
	MIMEType string
}

// Service is the chat orchestrator. Text turns accumulate per-user history;
// image turns are one-shot multimodal calls that leave the history untouched.
type Service struct {
	llm     domain.Generator
	history *History
	timeout time.Duration
}

// NewService builds the orchestrator. llm may be nil when no provider
// credential is configured; chat then short-circuits to a fixed result
// without any provider call.
func NewService(llm domain.Generator, history *History, providerTimeout time.Duration) *Service {
	if providerTimeout <= 0 {
		providerTimeout = 10 * time.Second
	}
	return &Service{
		llm:     llm,
		history: history,
		timeout: providerTimeout,
	}
}

// Respond handles one chat turn for the user and always returns a
// ChatResult; provider failures are folded into Success=false.
func (s *Service) Respond(ctx context.Context, userID domain.UserID, message string, image *Image) domain.ChatResult {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	if s.llm == nil {
		log.Error("chat requested but no provider credential is configured")
		return domain.ChatResult{Success: false, Response: notConfiguredMessage}
	}

	if image != nil {
		return s.respondWithImage(ctx, userID, message, image)
	}
	return s.respondText(ctx, userID, message)
}

func (s *Service) respondText(ctx context.Context, userID domain.UserID, message string) domain.ChatResult {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)
	log.Info("processing text message")

	conv := s.history.session(userID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	history := conv.snapshotLocked()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.llm.GenerateText(ctx, message, history, chatConfig)
	if err != nil {
		log.Error("text generation failed", "error", err)
		return domain.ChatResult{Success: false, Response: failureMessage(err)}
	}

	// Both turns land together so a failed or cancelled call never leaves a
	// half-recorded exchange. The lock held above fixes turn order even when
	// provider calls complete out of order.
	conv.appendLocked(s.history.maxTurns, domain.Turn{Role: domain.RoleUser, Text: message})
	conv.appendLocked(s.history.maxTurns, domain.Turn{Role: domain.RoleModel, Text: reply})

	return domain.ChatResult{Success: true, Response: reply}
}

func (s *Service) respondWithImage(ctx context.Context, userID domain.UserID, message string, image *Image) domain.ChatResult {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)
	log.Info("processing image message", "mime_type", image.MIMEType, "size_bytes", len(image.Data))

	prompt := fmt.Sprintf(
		"User message: %s\n\nPlease analyze the attached image and respond to the user's query.",
		message,
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.llm.GenerateMultimodal(ctx, prompt, image.Data, image.MIMEType, chatConfig)
	if err != nil {
		log.Error("multimodal generation failed", "error", err)
		return domain.ChatResult{Success: false, Response: failureMessage(err)}
	}

	// Image turns are one-shot: they do not join the accumulated history.
	return domain.ChatResult{Success: true, Response: renderMarkdown(reply)}
}

// History returns the user's transcript, oldest first.
func (s *Service) History(userID domain.UserID) []domain.Turn {
	return s.history.Turns(userID)
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrProviderTimeout):
		return "Sorry, the assistant took too long to respond. Please try again."
	case errors.Is(err, domain.ErrProviderRateLimited):
		return "Sorry, the assistant is handling too many requests right now. Please try again in a moment."
	case errors.Is(err, domain.ErrProviderUnauthenticated):
		return notConfiguredMessage
	default:
		return "Sorry, an error occurred while processing your message."
	}
}
