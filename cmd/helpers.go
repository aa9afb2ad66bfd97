package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ziadkadry99/chatbridge/internal/backend"
	"github.com/ziadkadry99/chatbridge/internal/bots"
	"github.com/ziadkadry99/chatbridge/internal/command"
	"github.com/ziadkadry99/chatbridge/internal/config"
	"github.com/ziadkadry99/chatbridge/internal/embeddings"
	"github.com/ziadkadry99/chatbridge/internal/llm"
	"github.com/ziadkadry99/chatbridge/internal/logging"
	"github.com/ziadkadry99/chatbridge/internal/sheets"
	"github.com/ziadkadry99/chatbridge/internal/vectordb"
)

// loadConfig loads the config file and environment overlay without validating.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `chatbridge init` to create a config file", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	slog.SetDefault(logger)
	return logger, nil
}

// createLLMProviderFromConfig returns nil when no AI provider is configured.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	if cfg.AI.Provider == "" {
		return nil, nil
	}
	p, err := llm.NewProvider(llm.Options{
		Type:    string(cfg.AI.Provider),
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(p, cfg.AI.RequestsPerMinute), nil
}

func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	return embeddings.New(embeddings.Options{
		Provider: string(cfg.Embedding.Provider),
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
	})
}

// openKnowledgeStore creates the vector store and loads a persisted index
// from cfg.Knowledge.Dir when one exists.
func openKnowledgeStore(ctx context.Context, cfg *config.Config) (*vectordb.ChromemStore, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if vectordb.Exists(cfg.Knowledge.Dir) {
		if err := store.Load(ctx, cfg.Knowledge.Dir); err != nil {
			return nil, fmt.Errorf("loading knowledge index from %s: %w", cfg.Knowledge.Dir, err)
		}
	}
	return store, nil
}

// buildBackends wires every backend the config enables. A backend whose
// prerequisites are missing is left out and logged; messages routed to it
// then receive the apology reply.
func buildBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (bots.Backends, *vectordb.ChromemStore, error) {
	backends := bots.Backends{Domains: make(map[command.Domain]backend.Backend)}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return backends, nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if provider != nil {
		backends.AI = backend.NewAI(provider, cfg.AI, logger)
	} else {
		logger.Warn("no AI provider configured; ai: messages will receive the apology reply")
	}

	store, err := openKnowledgeStore(ctx, cfg)
	if err != nil {
		logger.Warn("document search disabled", "error", err)
	} else {
		var summarizer llm.Provider
		if cfg.Knowledge.Summarize {
			summarizer = provider
		}
		backends.Domains[command.DomainRecipe] = backend.NewDocuments(store, summarizer, cfg.Knowledge.TopK, cfg.Knowledge.Timeout, logger)
		logger.Info("document search ready", "documents", store.Count())
	}

	if cfg.Inventory.SpreadsheetID != "" {
		sheet := sheets.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.SpreadsheetID, cfg.Inventory.APIKey, cfg.Inventory.Timeout)
		if cfg.Inventory.CredentialsFile != "" {
			hc, err := sheets.ServiceAccountHTTPClient(ctx, cfg.Inventory.CredentialsFile, cfg.Inventory.Timeout)
			if err != nil {
				return backends, nil, fmt.Errorf("inventory credentials: %w", err)
			}
			sheet.WithHTTPClient(hc)
		}
		backends.Domains[command.DomainInventory] = backend.NewInventory(sheet, cfg.Inventory.Range, cfg.Inventory.Timeout, logger)
	} else {
		logger.Warn("inventory.spreadsheet_id not set; inventory lookups disabled")
	}

	return backends, store, nil
}
