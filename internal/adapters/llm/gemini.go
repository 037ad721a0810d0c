package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/gviz-app/gviz-api/internal/domain"
)

// Safety thresholds mirror the product defaults: block medium and above
// across all harm categories.
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
}

// GeminiClient implements domain.Generator against the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a Gemini-backed generator using an API key.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateText implements domain.Generator. History is replayed as
// alternating user/model content ahead of the new message.
func (g *GeminiClient) GenerateText(
	ctx context.Context,
	message string,
	history []domain.Turn,
	cfg domain.GenerateConfig,
) (string, error) {
	var contents []*genai.Content
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == domain.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	return g.generate(ctx, contents, cfg)
}

// GenerateMultimodal implements domain.Generator with a single-shot
// text + image request.
func (g *GeminiClient) GenerateMultimodal(
	ctx context.Context,
	prompt string,
	image []byte,
	mimeType string,
	cfg domain.GenerateConfig,
) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	return g.generate(ctx, contents, cfg)
}

func (g *GeminiClient) generate(ctx context.Context, contents []*genai.Content, cfg domain.GenerateConfig) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature:     &cfg.Temperature,
		TopP:            &cfg.TopP,
		TopK:            &cfg.TopK,
		MaxOutputTokens: cfg.MaxOutputTokens,
		SafetySettings:  safetySettings,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, genCfg)
	if err != nil {
		return "", mapProviderError(err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrProviderUnknown)
	}
	return text, nil
}

// mapProviderError folds transport errors into the domain taxonomy so the
// orchestrators never see SDK types.
func mapProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", domain.ErrProviderTimeout, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", domain.ErrProviderUnauthenticated, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", domain.ErrProviderRateLimited, err)
		}
	}

	return fmt.Errorf("%w: %s", domain.ErrProviderUnknown, err)
}
