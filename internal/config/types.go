package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// DedupMode selects where processed webhook event IDs are remembered.
type DedupMode string

const (
	DedupSQLite   DedupMode = "sqlite"
	DedupMemory   DedupMode = "memory"
	DedupPostgres DedupMode = "postgres"
)

// Config is the top-level chatbridge configuration, corresponding to .chatbridge.yml.
type Config struct {
	Line      LineConfig      `yaml:"line" koanf:"line"`
	Webhook   WebhookConfig   `yaml:"webhook" koanf:"webhook"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	AI        AIConfig        `yaml:"ai" koanf:"ai"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Knowledge KnowledgeConfig `yaml:"knowledge" koanf:"knowledge"`
	Inventory InventoryConfig `yaml:"inventory" koanf:"inventory"`
	Storage   StorageConfig   `yaml:"storage" koanf:"storage"`
	Logging   LoggingConfig   `yaml:"logging" koanf:"logging"`
}

// LineConfig holds Messaging API credentials. Both secrets are usually
// supplied through the environment rather than the YAML file.
type LineConfig struct {
	ChannelSecret string        `yaml:"channel_secret,omitempty" koanf:"channel_secret"`
	AccessToken   string        `yaml:"access_token,omitempty" koanf:"access_token"`
	APIBase       string        `yaml:"api_base" koanf:"api_base"`
	ReplyTimeout  time.Duration `yaml:"reply_timeout" koanf:"reply_timeout"`
}

// WebhookConfig controls the inbound webhook endpoint.
type WebhookConfig struct {
	Path               string        `yaml:"path" koanf:"path"`
	Timeout            time.Duration `yaml:"timeout" koanf:"timeout"`
	MaxConcurrency     int           `yaml:"max_concurrency" koanf:"max_concurrency"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes" koanf:"max_body_bytes"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" koanf:"insecure_skip_verify"`
}

// ServerConfig holds HTTP listener settings. AdminToken guards the
// deliveries API and live feed; without it those routes are not served.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	AdminToken     string   `yaml:"admin_token,omitempty" koanf:"admin_token"`
}

// AIConfig configures the text completion backend.
type AIConfig struct {
	Provider          ProviderType  `yaml:"provider" koanf:"provider"`
	Model             string        `yaml:"model" koanf:"model"`
	ProModel          string        `yaml:"pro_model" koanf:"pro_model"`
	BaseURL           string        `yaml:"base_url,omitempty" koanf:"base_url"`
	SystemPrompt      string        `yaml:"system_prompt" koanf:"system_prompt"`
	Temperature       float64       `yaml:"temperature" koanf:"temperature"`
	MaxTokens         int           `yaml:"max_tokens" koanf:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout" koanf:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// EmbeddingConfig configures the embedder used by the document search backend.
type EmbeddingConfig struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	BaseURL  string       `yaml:"base_url,omitempty" koanf:"base_url"`
}

// KnowledgeConfig configures the document search backend and the index command.
type KnowledgeConfig struct {
	Dir       string        `yaml:"dir" koanf:"dir"`
	Include   []string      `yaml:"include" koanf:"include"`
	Exclude   []string      `yaml:"exclude" koanf:"exclude"`
	TopK      int           `yaml:"top_k" koanf:"top_k"`
	ChunkSize int           `yaml:"chunk_size" koanf:"chunk_size"`
	Summarize bool          `yaml:"summarize" koanf:"summarize"`
	Timeout   time.Duration `yaml:"timeout" koanf:"timeout"`
}

// InventoryConfig configures the spreadsheet inventory backend. Public
// sheets need only an API key; private ones need a service account key
// file shared on the spreadsheet.
type InventoryConfig struct {
	SpreadsheetID   string        `yaml:"spreadsheet_id" koanf:"spreadsheet_id"`
	Range           string        `yaml:"range" koanf:"range"`
	APIKey          string        `yaml:"api_key,omitempty" koanf:"api_key"`
	CredentialsFile string        `yaml:"credentials_file,omitempty" koanf:"credentials_file"`
	BaseURL         string        `yaml:"base_url,omitempty" koanf:"base_url"`
	Timeout         time.Duration `yaml:"timeout" koanf:"timeout"`
}

// StorageConfig configures the SQLite database and, in postgres dedup
// mode, the database shared between replicas.
type StorageConfig struct {
	Path        string        `yaml:"path" koanf:"path"`
	Dedup       DedupMode     `yaml:"dedup" koanf:"dedup"`
	DedupTTL    time.Duration `yaml:"dedup_ttl" koanf:"dedup_ttl"`
	PostgresDSN string        `yaml:"postgres_dsn,omitempty" koanf:"postgres_dsn"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Format    string `yaml:"format" koanf:"format"`
	Level     string `yaml:"level" koanf:"level"`
	AddSource bool   `yaml:"add_source" koanf:"add_source"`
}
