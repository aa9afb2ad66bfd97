package vectordb

import "time"

// Document is one chunk of a knowledge file.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata records where a chunk came from.
type DocumentMetadata struct {
	Source      string // path relative to the indexed directory
	Title       string
	Chunk       int
	ContentHash string
	IndexedAt   time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by metadata fields.
type SearchFilter struct {
	Source *string
}
