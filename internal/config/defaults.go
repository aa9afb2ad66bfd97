package config

import "time"

// ModelPreset describes the models to use for a given provider.
type ModelPreset struct {
	Model          string
	ProModel       string
	EmbeddingModel string
}

var modelPresets = map[ProviderType]ModelPreset{
	ProviderOpenAI: {Model: "gpt-4o-mini", ProModel: "gpt-4o", EmbeddingModel: "text-embedding-3-small"},
	ProviderGoogle: {Model: "gemini-1.5-flash", ProModel: "gemini-1.5-pro", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", ProModel: "llama3:70b", EmbeddingModel: "nomic-embed-text"},
}

// DefaultSystemPrompt keeps completions short enough for a chat bubble.
const DefaultSystemPrompt = "You are a concise assistant. Reply briefly for mobile chat in the user's language."

// DefaultExcludes are glob patterns skipped when indexing knowledge documents.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	"**/.DS_Store",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Line: LineConfig{
			APIBase:      "https://api.line.me",
			ReplyTimeout: 10 * time.Second,
		},
		Webhook: WebhookConfig{
			Path:           "/api/line/webhook",
			Timeout:        8 * time.Second,
			MaxConcurrency: 10,
			MaxBodyBytes:   1 << 20,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		AI: AIConfig{
			Provider:          ProviderGoogle,
			Model:             modelPresets[ProviderGoogle].Model,
			ProModel:          modelPresets[ProviderGoogle].ProModel,
			SystemPrompt:      DefaultSystemPrompt,
			Temperature:       0.7,
			MaxTokens:         400,
			Timeout:           6 * time.Second,
			RequestsPerMinute: 60,
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderOpenAI,
			Model:    modelPresets[ProviderOpenAI].EmbeddingModel,
		},
		Knowledge: KnowledgeConfig{
			Dir:       ".chatbridge/knowledge",
			Include:   []string{"**/*.md", "**/*.txt"},
			Exclude:   DefaultExcludes,
			TopK:      3,
			ChunkSize: 1200,
			Summarize: true,
			Timeout:   6 * time.Second,
		},
		Inventory: InventoryConfig{
			Range:   "Inventory!A2:C",
			Timeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			Path:     ".chatbridge/chatbridge.db",
			Dedup:    DedupSQLite,
			DedupTTL: time.Hour,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// GetPreset returns the model preset for the given provider.
// Returns the Google preset if the provider is unknown.
func GetPreset(provider ProviderType) ModelPreset {
	if preset, ok := modelPresets[provider]; ok {
		return preset
	}
	return modelPresets[ProviderGoogle]
}
