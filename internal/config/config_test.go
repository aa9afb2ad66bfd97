package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Line.ChannelSecret = "secret"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Webhook.Path != "/api/line/webhook" {
		t.Errorf("expected default webhook path, got %q", cfg.Webhook.Path)
	}
	if cfg.Webhook.Timeout != 8*time.Second {
		t.Errorf("expected default timeout 8s, got %s", cfg.Webhook.Timeout)
	}
	if cfg.AI.Temperature != 0.7 || cfg.AI.MaxTokens != 400 {
		t.Errorf("unexpected AI defaults: %+v", cfg.AI)
	}
	if cfg.Storage.Dedup != DedupSQLite {
		t.Errorf("expected sqlite dedup, got %q", cfg.Storage.Dedup)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.chatbridge.yml")

	original := validConfig()
	original.AI.Provider = ProviderOpenAI
	original.AI.Model = "gpt-4o-mini"
	original.Webhook.Timeout = 5 * time.Second
	original.Knowledge.Include = []string{"**/*.md", "recipes/*.txt"}
	original.Server.Port = 9090

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.AI.Provider != ProviderOpenAI {
		t.Errorf("provider: got %q, want %q", loaded.AI.Provider, ProviderOpenAI)
	}
	if loaded.Webhook.Timeout != 5*time.Second {
		t.Errorf("timeout: got %s, want 5s", loaded.Webhook.Timeout)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("port: got %d, want 9090", loaded.Server.Port)
	}
	if len(loaded.Knowledge.Include) != 2 || loaded.Knowledge.Include[1] != "recipes/*.txt" {
		t.Errorf("include: got %v", loaded.Knowledge.Include)
	}
}

func TestSaveOmitsSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.yml")

	cfg := validConfig()
	cfg.Line.AccessToken = "token-value"
	cfg.Storage.PostgresDSN = "postgres://bot:pw@db/chat"
	cfg.Server.AdminToken = "admin-value"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "token-value") || strings.Contains(string(data), "channel_secret") ||
		strings.Contains(string(data), "postgres_dsn") ||
		strings.Contains(string(data), "admin-value") {
		t.Errorf("saved config leaks credentials:\n%s", data)
	}
	if cfg.Line.AccessToken != "token-value" {
		t.Error("Save must not modify the receiver")
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Webhook.Path != "/api/line/webhook" {
		t.Errorf("expected defaults, got %q", cfg.Webhook.Path)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	t.Setenv("CHATBRIDGE_WEBHOOK__PATH", "/hooks/line")
	t.Setenv("CHATBRIDGE_WEBHOOK__TIMEOUT", "3s")
	t.Setenv("CHATBRIDGE_LINE__CHANNEL_SECRET", "from-env")
	t.Setenv("CHATBRIDGE_SERVER__ADMIN_TOKEN", "ops-token")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Webhook.Path != "/hooks/line" {
		t.Errorf("env override failed: got %q", loaded.Webhook.Path)
	}
	if loaded.Webhook.Timeout != 3*time.Second {
		t.Errorf("env override failed: got %s", loaded.Webhook.Timeout)
	}
	if loaded.Line.ChannelSecret != "from-env" {
		t.Errorf("env override failed: got %q", loaded.Line.ChannelSecret)
	}
	if loaded.Server.AdminToken != "ops-token" {
		t.Errorf("env override failed: got %q", loaded.Server.AdminToken)
	}
}

func TestLoadConventionalSecretEnv(t *testing.T) {
	t.Setenv("LINE_CHANNEL_SECRET", "s")
	t.Setenv("LINE_ACCESS_TOKEN", "tok")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/chatbridge/sa.json")
	t.Setenv("DATABASE_URL", "postgres://bot@db/chat")

	loaded, err := Load(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Line.ChannelSecret != "s" || loaded.Line.AccessToken != "tok" {
		t.Errorf("secrets not applied: %+v", loaded.Line)
	}
	if loaded.Inventory.CredentialsFile != "/etc/chatbridge/sa.json" {
		t.Errorf("credentials file not applied: %q", loaded.Inventory.CredentialsFile)
	}
	if loaded.Storage.PostgresDSN != "postgres://bot@db/chat" {
		t.Errorf("postgres dsn not applied: %q", loaded.Storage.PostgresDSN)
	}
}

func TestValidateValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("config should be valid, got: %v", err)
	}
}

func TestValidateMissingSecret(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()

	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if cfgErr.Field != "line.channel_secret" {
		t.Errorf("Field = %q", cfgErr.Field)
	}
}

func TestValidateInsecureSkipsSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhook.InsecureSkipVerify = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("insecure mode should not require a secret, got: %v", err)
	}
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative path", func(c *Config) { c.Webhook.Path = "hook" }, "webhook.path"},
		{"zero timeout", func(c *Config) { c.Webhook.Timeout = 0 }, "webhook.timeout"},
		{"negative concurrency", func(c *Config) { c.Webhook.MaxConcurrency = -1 }, "webhook.max_concurrency"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad provider", func(c *Config) { c.AI.Provider = "invalid" }, "ai.provider"},
		{"missing model", func(c *Config) { c.AI.Model = "" }, "ai.model"},
		{"hot temperature", func(c *Config) { c.AI.Temperature = 3 }, "ai.temperature"},
		{"bad embedding provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"bad dedup", func(c *Config) { c.Storage.Dedup = "redis" }, "storage.dedup"},
		{"sqlite without path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"postgres without dsn", func(c *Config) { c.Storage.Dedup = DedupPostgres }, "storage.postgres_dsn"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			var cfgErr *Error
			if err := cfg.Validate(); !errors.As(err, &cfgErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestAIProviderOptional(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Provider = ""
	cfg.AI.Model = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("AI provider should be optional, got: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	if p := GetPreset(ProviderOpenAI); p.Model != "gpt-4o-mini" || p.ProModel != "gpt-4o" {
		t.Errorf("unexpected openai preset: %+v", p)
	}
	if p := GetPreset("unknown"); p.ProModel != "gemini-1.5-pro" {
		t.Errorf("expected google fallback, got %+v", p)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		if got := APIKeyEnvVar(tt.provider); got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.md", []string{"**/*.md"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
