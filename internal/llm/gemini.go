package llm

import (
	"context"
	"fmt"
	"os"

	genai "google.golang.org/genai"
)

// GeminiClient talks to the Gemini API through the official genai
// client, asking for application/json so responses need less repair.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGemini creates a client for the named Gemini model. The genai
// client reads GEMINI_API_KEY or GOOGLE_API_KEY from the environment,
// so an explicit key is exported before construction.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey != "" {
		os.Setenv("GEMINI_API_KEY", apiKey)
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }

func (g *GeminiClient) Submit(ctx context.Context, req Request) (*Response, error) {
	full := req.UserPrompt
	if req.SystemPrompt != "" {
		full = req.SystemPrompt + "\n\n" + req.UserPrompt
	}

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}}, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	return &Response{
		Content:          text,
		PromptTokens:     estimateTokens(full),
		CompletionTokens: estimateTokens(text),
	}, nil
}

var _ ModelClient = (*GeminiClient)(nil)
