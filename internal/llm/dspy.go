package llm

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/dspy-go/pkg/core"
	"github.com/XiaoConstantine/dspy-go/pkg/llms"
)

// DspyClient routes prompts through the dspy-go LLM factory, which
// handles Anthropic, Ollama and llamacpp backends.
type DspyClient struct {
	llm     core.LLM
	modelID string
}

// NewDspy configures the default dspy-go LLM for modelID and wraps it.
func NewDspy(apiKey, modelID string) (*DspyClient, error) {
	llms.EnsureFactory()
	if err := core.ConfigureDefaultLLM(apiKey, core.ModelID(modelID)); err != nil {
		return nil, fmt.Errorf("failed to configure LLM: %w", err)
	}
	return &DspyClient{llm: core.GetDefaultLLM(), modelID: modelID}, nil
}

func (d *DspyClient) Name() string { return d.modelID }

func (d *DspyClient) Submit(ctx context.Context, req Request) (*Response, error) {
	prompt := req.UserPrompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.UserPrompt
	}

	opts := []core.GenerateOption{}
	if req.MaxTokens > 0 {
		opts = append(opts, core.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		opts = append(opts, core.WithTemperature(req.Temperature))
	}

	resp, err := d.llm.Generate(ctx, prompt, opts...)
	if err != nil {
		return nil, fmt.Errorf("model generation failed: %w", err)
	}

	return &Response{
		Content:          resp.Content,
		PromptTokens:     estimateTokens(prompt),
		CompletionTokens: estimateTokens(resp.Content),
	}, nil
}

var _ ModelClient = (*DspyClient)(nil)
