package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ParseModelString splits a "provider:name:config" model id into its
// parts; missing segments come back empty.
func ParseModelString(modelStr string) (provider, name, config string) {
	parts := strings.SplitN(modelStr, ":", 3)
	switch len(parts) {
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], parts[1], ""
	default:
		return parts[0], parts[1], parts[2]
	}
}

// ResolveAPIKey returns the key for provider, preferring an explicit
// value over the provider's environment variables.
func ResolveAPIKey(provider, apiKey string) (string, error) {
	if apiKey != "" {
		return apiKey, nil
	}

	var envVars []string
	switch provider {
	case "anthropic":
		envVars = []string{"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"}
	case "google", "gemini":
		envVars = []string{"GOOGLE_API_KEY", "GOOGLE_GEMINI_KEY", "GEMINI_API_KEY"}
	case "ollama", "llamacpp":
		// Local backends need no key.
		return "", nil
	default:
		return "", fmt.Errorf("unsupported model provider: %s", provider)
	}

	for _, env := range envVars {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("API key required for %s provider. Provide via --api-key or set one of: %s",
		provider, strings.Join(envVars, ", "))
}

// New constructs the client for a model string. The "gemini" provider
// talks to the Gemini API directly; everything else goes through the
// dspy-go LLM factory.
func New(ctx context.Context, model, apiKey string) (ModelClient, error) {
	provider, name, _ := ParseModelString(model)
	key, err := ResolveAPIKey(provider, apiKey)
	if err != nil {
		return nil, err
	}
	if provider == "gemini" {
		return NewGemini(ctx, key, name)
	}
	return NewDspy(key, model)
}
