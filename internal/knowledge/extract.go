package knowledge

import (
	"bytes"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// Extracted is the plain text of a knowledge file.
type Extracted struct {
	Title string
	Text  string
}

// Extract returns the plain text of a knowledge file. Markdown files are
// parsed with goldmark and rendered without markup; the first heading
// becomes the title. Other files are used as-is and titled by file name.
func Extract(relPath string, src []byte) Extracted {
	name := path.Base(relPath)
	fallback := strings.TrimSuffix(name, path.Ext(name))

	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		title, body := markdownText(src)
		if title == "" {
			title = fallback
		}
		return Extracted{Title: title, Text: body}
	default:
		return Extracted{Title: fallback, Text: strings.TrimSpace(string(src))}
	}
}

func markdownText(src []byte) (title, body string) {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				endBlock(&buf)
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if title == "" {
				title = strings.TrimSpace(inlineText(node, src))
			}
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(src))
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return title, strings.TrimSpace(buf.String())
}

// endBlock terminates the current block with a blank line.
func endBlock(buf *bytes.Buffer) {
	b := buf.Bytes()
	switch {
	case len(b) == 0, bytes.HasSuffix(b, []byte("\n\n")):
	case b[len(b)-1] == '\n':
		buf.WriteByte('\n')
	default:
		buf.WriteString("\n\n")
	}
}

func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
