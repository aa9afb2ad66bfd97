package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/chatbridge/internal/config"
	"github.com/ziadkadry99/chatbridge/internal/logging"
	"github.com/ziadkadry99/chatbridge/internal/vectordb"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func knowledgeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "recipes/curry.md", "# Chicken curry\n\nFry the *onion*.\n\nAdd rice.\n")
	writeFile(t, root, "recipes/miso.txt", "Miso soup with tofu.")
	writeFile(t, root, "notes/todo.json", `{"a":1}`)
	writeFile(t, root, "vendor/lib/readme.md", "# vendored")
	writeFile(t, root, "recipes/image.md", "bin\x00ary")
	return root
}

func relPaths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	sort.Strings(out)
	return out
}

func TestWalkIncludeExclude(t *testing.T) {
	root := knowledgeTree(t)

	files, err := Walk(WalkOptions{
		Root:    root,
		Include: []string{"**/*.md", "**/*.txt"},
		Exclude: []string{"vendor/**"},
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	got := relPaths(files)
	want := []string{"recipes/curry.md", "recipes/miso.txt"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Walk = %v, want %v", got, want)
	}
	for _, f := range files {
		if len(f.ContentHash) != 64 {
			t.Errorf("%s: bad hash %q", f.RelPath, f.ContentHash)
		}
	}
}

func TestWalkNoIncludeMeansAll(t *testing.T) {
	root := knowledgeTree(t)

	files, err := Walk(WalkOptions{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	// Everything except the binary file.
	if len(files) != 4 {
		t.Errorf("expected 4 files, got %v", relPaths(files))
	}
}

func TestWalkMissingRoot(t *testing.T) {
	if _, err := Walk(WalkOptions{Root: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestExtractMarkdown(t *testing.T) {
	src := "# Chicken curry\n\nFry the *onion* until `soft`.\n\n- rice\n- salt\n\n```\nstir()\n```\n"
	ex := Extract("recipes/curry.md", []byte(src))

	if ex.Title != "Chicken curry" {
		t.Errorf("Title = %q", ex.Title)
	}
	for _, want := range []string{"Chicken curry", "Fry the onion until soft.", "rice", "salt", "stir()"} {
		if !strings.Contains(ex.Text, want) {
			t.Errorf("text missing %q:\n%s", want, ex.Text)
		}
	}
	if strings.ContainsAny(ex.Text, "*`#") {
		t.Errorf("markup leaked into text:\n%s", ex.Text)
	}
}

func TestExtractPlainText(t *testing.T) {
	ex := Extract("notes/miso soup.txt", []byte("  tofu  \n"))
	if ex.Title != "miso soup" || ex.Text != "tofu" {
		t.Errorf("unexpected extraction: %+v", ex)
	}

	ex = Extract("untitled.md", []byte("no heading here"))
	if ex.Title != "untitled" {
		t.Errorf("markdown without heading should fall back to file name, got %q", ex.Title)
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{"empty", "", 10, nil},
		{"single", "abc", 10, []string{"abc"}},
		{"merge paragraphs", "ab\n\ncd", 10, []string{"ab\n\ncd"}},
		{"split paragraphs", "abcd\n\nefgh", 6, []string{"abcd", "efgh"}},
		{"hard split", "abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"runes", "あいうえお", 2, []string{"あい", "うえ", "お"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.size)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Chunk(%q, %d) = %q, want %q", tt.text, tt.size, got, tt.want)
			}
		})
	}
}

// fakeStore records documents by source.
type fakeStore struct {
	mu        sync.Mutex
	docs      map[string][]vectordb.Document
	persisted string
	addErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string][]vectordb.Document)}
}

func (s *fakeStore) AddDocuments(_ context.Context, docs []vectordb.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	for _, d := range docs {
		s.docs[d.Metadata.Source] = append(s.docs[d.Metadata.Source], d)
	}
	return nil
}

func (s *fakeStore) Search(context.Context, string, int, *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	return nil, nil
}

func (s *fakeStore) DeleteBySource(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, source)
	return nil
}

func (s *fakeStore) Persist(_ context.Context, dir string) error {
	s.persisted = dir
	return nil
}

func (s *fakeStore) Load(context.Context, string) error { return nil }

func (s *fakeStore) Count() int {
	n := 0
	for _, d := range s.docs {
		n += len(d)
	}
	return n
}

func testKnowledgeConfig(dir string) config.KnowledgeConfig {
	cfg := config.DefaultConfig().Knowledge
	cfg.Dir = dir
	return cfg
}

func TestIndexerIndex(t *testing.T) {
	root := knowledgeTree(t)
	store := newFakeStore()
	kbDir := t.TempDir()

	ix := NewIndexer(store, testKnowledgeConfig(kbDir), nil, logging.Discard())
	stats, err := ix.Index(context.Background(), root)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	if stats.Files != 2 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if store.persisted != kbDir {
		t.Errorf("persisted to %q, want %q", store.persisted, kbDir)
	}

	curry := store.docs["recipes/curry.md"]
	if len(curry) != 1 {
		t.Fatalf("expected 1 curry chunk, got %d", len(curry))
	}
	if curry[0].ID != "recipes/curry.md#0" || curry[0].Metadata.Title != "Chicken curry" {
		t.Errorf("unexpected curry chunk: %+v", curry[0])
	}
	if curry[0].Metadata.ContentHash == "" || curry[0].Metadata.IndexedAt.IsZero() {
		t.Errorf("metadata incomplete: %+v", curry[0].Metadata)
	}
}

func TestIndexerReindexReplacesChunks(t *testing.T) {
	root := knowledgeTree(t)
	store := newFakeStore()
	ix := NewIndexer(store, testKnowledgeConfig(t.TempDir()), nil, logging.Discard())

	if _, err := ix.Index(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Index(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	if store.Count() != 2 {
		t.Errorf("re-index duplicated chunks: %d", store.Count())
	}
}

func TestIndexerCountsFailures(t *testing.T) {
	root := knowledgeTree(t)
	store := newFakeStore()
	store.addErr = errors.New("embedding unavailable")

	ix := NewIndexer(store, testKnowledgeConfig(t.TempDir()), nil, logging.Discard())
	stats, err := ix.Index(context.Background(), root)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if stats.Failed != 2 || stats.Files != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
