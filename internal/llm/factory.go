package llm

import (
	"fmt"
	"os"
)

// Options selects and configures a provider. Empty APIKey falls back to
// the provider's conventional environment variable.
type Options struct {
	Type    string
	Model   string
	APIKey  string
	BaseURL string
}

// NewProvider creates a provider for opts.Type ("openai", "google" or "ollama").
func NewProvider(opts Options) (Provider, error) {
	switch opts.Type {
	case "openai":
		key := firstNonEmpty(opts.APIKey, os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(key, opts.Model, opts.BaseURL), nil

	case "google":
		key := firstNonEmpty(opts.APIKey, os.Getenv("GOOGLE_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		return NewGoogleProvider(key, opts.Model, opts.BaseURL), nil

	case "ollama":
		return NewOllamaProvider(opts.BaseURL, opts.Model), nil

	case "":
		return nil, fmt.Errorf("no provider configured")

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Type)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
