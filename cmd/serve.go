package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatbridge/internal/bots"
	"github.com/ziadkadry99/chatbridge/internal/config"
	"github.com/ziadkadry99/chatbridge/internal/db"
	"github.com/ziadkadry99/chatbridge/internal/dedup"
	"github.com/ziadkadry99/chatbridge/internal/deliveries"
	"github.com/ziadkadry99/chatbridge/internal/line"
	"github.com/ziadkadry99/chatbridge/internal/server"
)

const (
	pruneInterval   = 10 * time.Minute
	shutdownTimeout = 15 * time.Second
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Starts the HTTP server that receives LINE webhooks on webhook.path,
replies through the Messaging API, and serves a health check on /healthz.
With server.admin_token set, the deliveries log is exposed under
/api/deliveries and a live feed on /ws/deliveries, both requiring
"Authorization: Bearer <token>".`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	var seen dedup.Store
	switch cfg.Storage.Dedup {
	case config.DedupMemory:
		seen = dedup.NewMemory(cfg.Storage.DedupTTL)
	case config.DedupPostgres:
		pool, err := db.OpenPostgres(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("opening dedup database: %w", err)
		}
		defer pool.Close()
		seen = dedup.NewPostgres(pool, cfg.Storage.DedupTTL)
	default:
		seen = dedup.NewSQLite(database, cfg.Storage.DedupTTL)
	}
	go dedup.RunPruner(ctx, seen, cfg.Storage.DedupTTL, pruneInterval, logger)

	backends, _, err := buildBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Line.AccessToken == "" {
		logger.Warn("no channel access token configured; replies will be recorded as failed")
	}
	if cfg.Webhook.InsecureSkipVerify {
		logger.Warn("signature verification disabled by webhook.insecure_skip_verify")
	}

	deliveryStore := deliveries.NewStore(database)
	replier := line.NewReplyClient(line.ReplyConfig{
		APIBase:     cfg.Line.APIBase,
		AccessToken: cfg.Line.AccessToken,
		Timeout:     cfg.Line.ReplyTimeout,
	}, logger)

	processor := bots.NewProcessor(backends, replier, deliveryStore, logger)
	gateway := bots.NewGateway(processor, seen, deliveryStore, bots.GatewayConfig{
		Timeout:        cfg.Webhook.Timeout,
		MaxConcurrency: cfg.Webhook.MaxConcurrency,
	}, logger)
	webhook := bots.NewWebhookHandler(gateway, bots.WebhookConfig{
		ChannelSecret:      cfg.Line.ChannelSecret,
		InsecureSkipVerify: cfg.Webhook.InsecureSkipVerify,
		MaxBodyBytes:       cfg.Webhook.MaxBodyBytes,
	}, logger)

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Webhook.Timeout + 10*time.Second,
	}, logger)
	bots.RegisterRoutes(srv.Router(), cfg.Webhook.Path, webhook)
	if !mountOperatorRoutes(srv, cfg.Server.AdminToken, deliveryStore, logger) {
		logger.Info("deliveries API disabled; set server.admin_token to enable it")
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("chatbridge starting",
		"version", Version,
		"port", cfg.Server.Port,
		"webhook", cfg.Webhook.Path,
		"dedup", string(cfg.Storage.Dedup),
	)
	return srv.Start()
}

// mountOperatorRoutes serves the deliveries API and live feed behind the
// admin bearer token. Reply previews carry user text, so nothing is mounted
// without a token.
func mountOperatorRoutes(srv *server.Server, token string, store *deliveries.Store, logger *slog.Logger) bool {
	if token == "" {
		return false
	}
	auth := server.RequireBearer(token)
	deliveries.RegisterRoutes(srv.Router().With(auth), store)
	deliveries.RegisterStreamRoutes(srv.Streams().With(auth), store, logger)
	return true
}

// openDatabase opens the SQLite file at storage.path, or an in-memory
// database when no path is set in memory dedup mode.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if cfg.Storage.Path == "" {
		slog.Debug("storage.path empty; delivery log kept in memory")
		return db.OpenMemory()
	}
	database, err := db.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}
