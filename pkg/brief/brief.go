// Package brief generates one-sentence intel briefs for priority
// articles via the Anthropic API.
package brief

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// fallbackBrief is stored when generation fails so the article still
// renders.
const fallbackBrief = "Summary pending."

// Summarizer rewrites an article into a professional one-sentence brief.
type Summarizer interface {
	Brief(ctx context.Context, title, context string) (string, error)
}

// Config controls the model used for brief generation.
type Config struct {
	Model     string
	MaxTokens int64
}

type sdkSummarizer struct {
	client sdk.Client
	cfg    Config
}

// New creates a Summarizer backed by the Anthropic SDK.
func New(apiKey string, cfg Config, reqOpts ...option.RequestOption) Summarizer {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	opts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)
	return &sdkSummarizer{
		client: sdk.NewClient(opts...),
		cfg:    cfg,
	}
}

func (s *sdkSummarizer) Brief(ctx context.Context, title, articleContext string) (string, error) {
	prompt := fmt.Sprintf(
		"Rewrite this as a professional 1-sentence tech intel brief. Impact focus. Title: %s. Context: %s. Output ONLY the sentence.",
		title, articleContext,
	)

	msg, err := s.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(s.cfg.Model),
		MaxTokens: s.cfg.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "brief: create message")
	}

	for _, block := range msg.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", eris.New("brief: empty response")
}

// OrFallback returns the generated brief, or the fallback sentence when
// generation failed.
func OrFallback(text string, err error) string {
	if err != nil || strings.TrimSpace(text) == "" {
		return fallbackBrief
	}
	return text
}
