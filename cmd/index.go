package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatbridge/internal/knowledge"
	"github.com/ziadkadry99/chatbridge/internal/progress"
)

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index markdown and text files for document search",
	Long: `Walks <dir> with the knowledge.include and knowledge.exclude globs,
extracts text from each file, embeds it in chunks and saves the index to
knowledge.dir. Re-running replaces the chunks of files that changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Int("chunk-size", 0, "chunk size in characters (overrides knowledge.chunk_size)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("chunk-size"); n > 0 {
		cfg.Knowledge.ChunkSize = n
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openKnowledgeStore(ctx, cfg)
	if err != nil {
		return err
	}

	ix := knowledge.NewIndexer(store, cfg.Knowledge, progress.NewReporter(), logger)
	stats, err := ix.Index(ctx, args[0])
	if err != nil {
		return fmt.Errorf("indexing %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d files (%d chunks, %d failed) into %s in %s\n",
		stats.Files, stats.Chunks, stats.Failed, cfg.Knowledge.Dir, time.Since(start).Round(time.Millisecond))
	return nil
}
