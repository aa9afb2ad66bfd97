package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/ziadkadry99/chatbridge/internal/config"
	"github.com/ziadkadry99/chatbridge/internal/progress"
	"github.com/ziadkadry99/chatbridge/internal/vectordb"
)

// Stats summarizes an indexing run.
type Stats struct {
	Files  int
	Chunks int
	Failed int
}

// Indexer loads knowledge files into a vector store.
type Indexer struct {
	store    vectordb.VectorStore
	cfg      config.KnowledgeConfig
	reporter progress.Reporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewIndexer creates an Indexer. A nil reporter disables progress output.
func NewIndexer(store vectordb.VectorStore, cfg config.KnowledgeConfig, reporter progress.Reporter, logger *slog.Logger) *Indexer {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Indexer{
		store:    store,
		cfg:      cfg,
		reporter: reporter,
		logger:   logger.With("component", "indexer"),
		now:      time.Now,
	}
}

// Index walks root, replaces the chunks of every matching file and
// persists the store to the configured knowledge directory. A file that
// fails to index is logged and counted; the run continues.
func (ix *Indexer) Index(ctx context.Context, root string) (Stats, error) {
	files, err := Walk(WalkOptions{
		Root:    root,
		Include: ix.cfg.Include,
		Exclude: ix.cfg.Exclude,
	})
	if err != nil {
		return Stats{}, err
	}
	ix.logger.Info("knowledge files found", "root", root, "files", len(files))

	var stats Stats
	ix.reporter.Start(len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			ix.reporter.Finish()
			return stats, err
		}
		n, err := ix.indexFile(ctx, f)
		if err != nil {
			stats.Failed++
			ix.logger.Warn("index file failed", "file", f.RelPath, "error", err)
		} else {
			stats.Files++
			stats.Chunks += n
		}
		ix.reporter.Update(i+1, f.RelPath)
	}
	ix.reporter.Finish()

	if err := ix.store.Persist(ctx, ix.cfg.Dir); err != nil {
		return stats, fmt.Errorf("persist knowledge base: %w", err)
	}
	ix.logger.Info("knowledge indexed", "files", stats.Files, "chunks", stats.Chunks, "failed", stats.Failed, "dir", ix.cfg.Dir)
	return stats, nil
}

func (ix *Indexer) indexFile(ctx context.Context, f File) (int, error) {
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}
	ex := Extract(f.RelPath, src)
	chunks := Chunk(ex.Text, ix.cfg.ChunkSize)

	if err := ix.store.DeleteBySource(ctx, f.RelPath); err != nil {
		return 0, fmt.Errorf("delete old chunks: %w", err)
	}

	indexedAt := ix.now().UTC()
	docs := make([]vectordb.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = vectordb.Document{
			ID:      f.RelPath + "#" + strconv.Itoa(i),
			Content: c,
			Metadata: vectordb.DocumentMetadata{
				Source:      f.RelPath,
				Title:       ex.Title,
				Chunk:       i,
				ContentHash: f.ContentHash,
				IndexedAt:   indexedAt,
			},
		}
	}
	if err := ix.store.AddDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("add chunks: %w", err)
	}
	return len(docs), nil
}
