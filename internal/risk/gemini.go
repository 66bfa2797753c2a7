package risk

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiOracle implements Oracle on top of the Gemini API. Requests are
// rate limited client-side to stay inside the free-tier quota.
type GeminiOracle struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGeminiOracle creates a Gemini-backed oracle. requestsPerMinute
// bounds outbound calls; zero disables the limiter.
func NewGeminiOracle(ctx context.Context, apiKey, model string, requestsPerMinute int) (*GeminiOracle, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	var limiter *rate.Limiter
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1)
	}

	return &GeminiOracle{
		client:  client,
		model:   model,
		limiter: limiter,
	}, nil
}

// Compile-time interface check.
var _ Oracle = (*GeminiOracle)(nil)

// Generate sends the prompt and returns the model's text reply.
func (o *GeminiOracle) Generate(ctx context.Context, prompt string) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty gemini response")
	}

	return text, nil
}
