package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ziadkadry99/chatbridge/internal/llm"
	"github.com/ziadkadry99/chatbridge/internal/vectordb"
)

// NoDocumentsText is the reply when a search finds nothing.
const NoDocumentsText = "該当する資料が見つかりませんでした。"

const summarizePrompt = `Answer the question using only the documents below. Reply briefly for mobile chat in the language of the question. If the documents do not answer it, say so.

Question: %s

Documents:
%s`

// Documents searches the knowledge base and, when a summarizer is set,
// condenses the hits into one answer.
type Documents struct {
	store      vectordb.VectorStore
	summarizer llm.Provider
	topK       int
	timeout    time.Duration
	logger     *slog.Logger
}

// NewDocuments creates the document search backend. summarizer may be
// nil, in which case the hits are returned as formatted text.
func NewDocuments(store vectordb.VectorStore, summarizer llm.Provider, topK int, timeout time.Duration, logger *slog.Logger) *Documents {
	if topK <= 0 {
		topK = 3
	}
	return &Documents{
		store:      store,
		summarizer: summarizer,
		topK:       topK,
		timeout:    timeout,
		logger:     logger.With("component", "backend", "backend", "documents"),
	}
}

func (d *Documents) Name() string { return "documents" }

func (d *Documents) Query(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return NoDocumentsText, nil
	}

	ctx, cancel := withTimeout(ctx, d.timeout)
	defer cancel()

	results, err := d.store.Search(ctx, query, d.topK, nil)
	if err != nil {
		return "", &Error{Backend: "documents", Op: "search", Err: err}
	}
	d.logger.Debug("search", "hits", len(results))
	if len(results) == 0 {
		return NoDocumentsText, nil
	}

	formatted := vectordb.FormatResults(results)
	if d.summarizer == nil {
		return formatted, nil
	}

	resp, err := d.summarizer.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{llm.User(fmt.Sprintf(summarizePrompt, query, formatted))},
		MaxTokens:   400,
		Temperature: 0.2,
	})
	if err != nil {
		return "", &Error{Backend: "documents", Op: "summarize", Err: err}
	}
	if text := strings.TrimSpace(resp.Content); text != "" {
		return text, nil
	}
	return formatted, nil
}
