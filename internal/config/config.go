package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates sections: CHATBRIDGE_LINE__CHANNEL_SECRET -> line.channel_secret.
const EnvPrefix = "CHATBRIDGE_"

// Error reports an invalid or missing configuration value.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CHATBRIDGE_*), then fills secrets from
// their conventional variables when still unset.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.applySecretEnv()
	return cfg, nil
}

// applySecretEnv fills credentials from LINE_*, GOOGLE_API_KEY,
// GOOGLE_APPLICATION_CREDENTIALS and DATABASE_URL when the file and
// prefixed overrides left them empty.
func (c *Config) applySecretEnv() {
	setIfEmpty(&c.Line.ChannelSecret, "LINE_CHANNEL_SECRET")
	setIfEmpty(&c.Line.AccessToken, "LINE_ACCESS_TOKEN")
	setIfEmpty(&c.Line.AccessToken, "LINE_CHANNEL_ACCESS_TOKEN")
	setIfEmpty(&c.Inventory.APIKey, "GOOGLE_API_KEY")
	setIfEmpty(&c.Inventory.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setIfEmpty(&c.Storage.PostgresDSN, "DATABASE_URL")
}

func setIfEmpty(dst *string, envVar string) {
	if *dst == "" {
		*dst = os.Getenv(envVar)
	}
}

// Save writes the configuration to the given YAML file path. Credentials
// are left out so the file can be committed.
func (c *Config) Save(path string) error {
	out := *c
	out.Line.ChannelSecret = ""
	out.Line.AccessToken = ""
	out.Inventory.APIKey = ""
	out.Storage.PostgresDSN = ""
	out.Server.AdminToken = ""

	data, err := yamlv3.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderGoogle: true,
	ProviderOllama: true,
}

var validEmbeddingProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderGoogle: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values. It returns
// a *Error describing the first problem found.
func (c *Config) Validate() error {
	if c.Line.ChannelSecret == "" && !c.Webhook.InsecureSkipVerify {
		return &Error{Field: "line.channel_secret", Reason: "required (set LINE_CHANNEL_SECRET)"}
	}

	if !strings.HasPrefix(c.Webhook.Path, "/") {
		return &Error{Field: "webhook.path", Reason: fmt.Sprintf("%q must start with /", c.Webhook.Path)}
	}
	if c.Webhook.Timeout <= 0 {
		return &Error{Field: "webhook.timeout", Reason: "must be positive"}
	}
	if c.Webhook.MaxConcurrency < 0 {
		return &Error{Field: "webhook.max_concurrency", Reason: "must be non-negative"}
	}
	if c.Webhook.MaxBodyBytes <= 0 {
		return &Error{Field: "webhook.max_body_bytes", Reason: "must be positive"}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &Error{Field: "server.port", Reason: fmt.Sprintf("%d out of range", c.Server.Port)}
	}

	if c.AI.Provider != "" {
		if !validProviders[c.AI.Provider] {
			return &Error{Field: "ai.provider", Reason: fmt.Sprintf("invalid provider %q: must be one of openai, google, ollama", c.AI.Provider)}
		}
		if c.AI.Model == "" {
			return &Error{Field: "ai.model", Reason: "required when ai.provider is set"}
		}
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return &Error{Field: "ai.temperature", Reason: "must be between 0 and 2"}
	}
	if c.AI.MaxTokens < 0 {
		return &Error{Field: "ai.max_tokens", Reason: "must be non-negative"}
	}
	if c.AI.RequestsPerMinute < 0 {
		return &Error{Field: "ai.requests_per_minute", Reason: "must be non-negative"}
	}

	if c.Embedding.Provider != "" && !validEmbeddingProviders[c.Embedding.Provider] {
		return &Error{Field: "embedding.provider", Reason: fmt.Sprintf("invalid provider %q: must be one of openai, google, ollama", c.Embedding.Provider)}
	}

	if c.Knowledge.TopK < 0 {
		return &Error{Field: "knowledge.top_k", Reason: "must be non-negative"}
	}

	switch c.Storage.Dedup {
	case DedupSQLite:
		if c.Storage.Path == "" {
			return &Error{Field: "storage.path", Reason: "required when storage.dedup is sqlite"}
		}
	case DedupPostgres:
		if c.Storage.PostgresDSN == "" {
			return &Error{Field: "storage.postgres_dsn", Reason: "required when storage.dedup is postgres"}
		}
	case DedupMemory:
	default:
		return &Error{Field: "storage.dedup", Reason: fmt.Sprintf("invalid mode %q: must be sqlite, memory or postgres", c.Storage.Dedup)}
	}
	if c.Storage.DedupTTL <= 0 {
		return &Error{Field: "storage.dedup_ttl", Reason: "must be positive"}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return &Error{Field: "logging.format", Reason: fmt.Sprintf("unsupported format %q", c.Logging.Format)}
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}
