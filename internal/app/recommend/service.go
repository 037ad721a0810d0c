package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gviz-app/gviz-api/internal/domain"
	"github.com/gviz-app/gviz-api/internal/observability"
)

// Low temperature and bounded output bias the model toward well-formed
// JSON. A quality heuristic only; the parser still treats the reply as
// untrusted text.
var recommendConfig = domain.GenerateConfig{
	Temperature:     0.4,
	TopP:            0.95,
	TopK:            32,
	MaxOutputTokens: 1024,
}

var errNoJSONArray = errors.New("no JSON array found in response")

// Service is the recommendation orchestrator. It is stateless across calls
// and never raises: every failure path returns a single placeholder item.
type Service struct {
	llm     domain.Generator
	timeout time.Duration
}

// NewService builds the orchestrator. llm may be nil when no provider
// credential is configured.
func NewService(llm domain.Generator, providerTimeout time.Duration) *Service {
	if providerTimeout <= 0 {
		providerTimeout = 10 * time.Second
	}
	return &Service{
		llm:     llm,
		timeout: providerTimeout,
	}
}

// RecommendJobs generates job recommendations for the given profile.
func (s *Service) RecommendJobs(ctx context.Context, skills, interests []string) []domain.JobRecommendation {
	raw, err := s.generate(ctx, BuildJobPrompt(skills, interests))
	if err != nil {
		return []domain.JobRecommendation{{
			Title:       "Recommendations unavailable",
			Description: fallbackMessage(err),
			Placeholder: true,
		}}
	}

	var items []domain.JobRecommendation
	if err := decodeArray(raw, &items); err != nil || len(items) == 0 {
		observability.LoggerFromContext(ctx).Error("failed to parse job recommendations", "error", err)
		return []domain.JobRecommendation{{
			Title:       "Recommendations unavailable",
			Description: fallbackMessage(errNoJSONArray),
			Placeholder: true,
		}}
	}
	return items
}

// RecommendSkills generates skill recommendations for the given profile.
func (s *Service) RecommendSkills(ctx context.Context, skills, interests []string) []domain.SkillRecommendation {
	raw, err := s.generate(ctx, BuildSkillPrompt(skills, interests))
	if err != nil {
		return []domain.SkillRecommendation{{
			SkillName:   "Recommendations unavailable",
			Reason:      fallbackMessage(err),
			Placeholder: true,
		}}
	}

	var items []domain.SkillRecommendation
	if err := decodeArray(raw, &items); err != nil || len(items) == 0 {
		observability.LoggerFromContext(ctx).Error("failed to parse skill recommendations", "error", err)
		return []domain.SkillRecommendation{{
			SkillName:   "Recommendations unavailable",
			Reason:      fallbackMessage(errNoJSONArray),
			Placeholder: true,
		}}
	}
	return items
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.llm == nil {
		return "", domain.ErrProviderUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.llm.GenerateText(ctx, prompt, nil, recommendConfig)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("recommendation generation failed", "error", err)
		return "", err
	}
	return text, nil
}

// decodeArray extracts the substring between the first '[' and the last ']'
// (inclusive) and strictly decodes it. Model output routinely wraps the
// array in prose or code fences.
func decodeArray(text string, out any) error {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return errNoJSONArray
	}
	return json.Unmarshal([]byte(text[start:end+1]), out)
}

func fallbackMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrProviderUnauthenticated):
		return "Recommendations are unavailable because the AI service is not configured."
	case errors.Is(err, domain.ErrProviderTimeout):
		return "The recommendation service timed out. Please try again."
	case errors.Is(err, errNoJSONArray):
		return "The AI response could not be interpreted. Please try again."
	default:
		return "Failed to generate recommendations. Please try again later."
	}
}
