package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/chatbridge/internal/embeddings"
)

const (
	collectionName = "knowledge"
	exportFile     = "chromem.gob.gz"
)

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
	}, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	limit = min(limit, count)

	results, err := s.collection.Query(ctx, query, limit, buildWhereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}
	return searchResults, nil
}

func (s *ChromemStore) DeleteBySource(ctx context.Context, source string) error {
	return s.collection.Delete(ctx, map[string]string{"source": source}, nil)
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create knowledge dir: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, exportFile), true, "")
}

// Load replaces the in-memory collection with the one exported to dir.
func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(filepath.Join(dir, exportFile), ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Exists reports whether dir holds a persisted knowledge base.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, exportFile))
	return err == nil
}

func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"source":       m.Source,
		"title":        m.Title,
		"chunk":        strconv.Itoa(m.Chunk),
		"content_hash": m.ContentHash,
		"indexed_at":   m.IndexedAt.Format(time.RFC3339),
	}
}

func mapToMetadata(m map[string]string) DocumentMetadata {
	chunk, _ := strconv.Atoi(m["chunk"])
	indexedAt, _ := time.Parse(time.RFC3339, m["indexed_at"])

	return DocumentMetadata{
		Source:      m["source"],
		Title:       m["title"],
		Chunk:       chunk,
		ContentHash: m["content_hash"],
		IndexedAt:   indexedAt,
	}
}

func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil || filter.Source == nil {
		return nil
	}
	return map[string]string{"source": *filter.Source}
}
