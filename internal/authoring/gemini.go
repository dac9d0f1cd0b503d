package authoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiConfig configures the Gemini author.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// GeminiAuthor writes pages with the Gemini API.
type GeminiAuthor struct {
	models *genai.Models
	cfg    GeminiConfig
}

// NewGeminiAuthor creates the genai client.
func NewGeminiAuthor(ctx context.Context, cfg GeminiConfig) (*GeminiAuthor, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &PermanentError{Err: errors.New("gemini api key is empty")}
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiAuthor{models: cli.Models, cfg: cfg}, nil
}

func (g *GeminiAuthor) Name() string { return "gemini:" + g.cfg.Model }

func (g *GeminiAuthor) Write(ctx context.Context, req Request) (Draft, error) {
	temperature := g.cfg.Temperature
	genCfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if g.cfg.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = g.cfg.MaxOutputTokens
	}

	resp, err := g.models.GenerateContent(ctx, g.cfg.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: BuildPrompt(req)}}}},
		genCfg,
	)
	if err != nil {
		return Draft{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return Draft{}, &PermanentError{Err: fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)}
		}
		return Draft{}, ErrEmptyResponse
	}
	cand := resp.Candidates[0]
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return Draft{
		Body:      b.String(),
		Truncated: cand.FinishReason == genai.FinishReasonMaxTokens,
	}, nil
}
