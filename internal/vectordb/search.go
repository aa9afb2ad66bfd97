package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as plain text suitable for a chat
// reply or an LLM prompt.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		title := r.Document.Metadata.Title
		if title == "" {
			title = r.Document.Metadata.Source
		}
		fmt.Fprintf(&sb, "%d. %s (%.2f)\n", i+1, title, r.Similarity)
		sb.WriteString(strings.TrimSpace(r.Document.Content))
	}
	return sb.String()
}
