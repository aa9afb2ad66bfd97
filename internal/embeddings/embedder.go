package embeddings

import (
	"context"
	"fmt"
	"os"
)

// Embedder generates vectors for knowledge chunks and search queries.
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// Options selects and configures an embedder.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// New builds the embedder named by opts.Provider. Cloud providers read
// their key from the environment when opts.APIKey is empty.
func New(opts Options) (Embedder, error) {
	switch opts.Provider {
	case "openai", "":
		key := opts.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		model := OpenAIModel(opts.Model)
		if model == "" {
			model = ModelTextEmbedding3Small
		}
		return NewOpenAIEmbedder(key, model, opts.BaseURL), nil

	case "google":
		key := opts.APIKey
		if key == "" {
			key = os.Getenv("GOOGLE_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for Google embeddings")
		}
		return NewGoogleEmbedder(key, opts.Model, opts.BaseURL), nil

	case "ollama":
		model := opts.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaEmbedder(model, 768, opts.BaseURL), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", opts.Provider)
	}
}
