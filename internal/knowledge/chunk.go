package knowledge

import "strings"

// DefaultChunkSize is the chunk length in runes when none is configured.
const DefaultChunkSize = 1200

// Chunk splits text into pieces of at most size runes, breaking on blank
// lines where possible. Paragraphs longer than size are split hard.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	var cur []rune
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			chunks = append(chunks, s)
		}
		cur = cur[:0]
	}

	for _, para := range strings.Split(text, "\n\n") {
		p := []rune(strings.TrimSpace(para))
		if len(p) == 0 {
			continue
		}
		if len(cur) > 0 && len(cur)+2+len(p) > size {
			flush()
		}
		for len(p) > size {
			if len(cur) > 0 {
				flush()
			}
			chunks = append(chunks, string(p[:size]))
			p = p[size:]
		}
		if len(cur) > 0 {
			cur = append(cur, '\n', '\n')
		}
		cur = append(cur, p...)
	}
	flush()
	return chunks
}
