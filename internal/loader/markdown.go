package loader

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// extractMarkdown parses markdown into an AST and flattens it to plain text.
// Headings, paragraphs and list items become newline-separated lines so the
// chunker sees prose rather than markup.
func extractMarkdown(path string) (string, []PageSpan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	if len(raw) == 0 {
		return "", nil, nil
	}

	reader := text.NewReader(raw)
	doc := markdownParser.Parser().Parse(reader)

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			}
		case *ast.Text:
			segment := node.Segment
			b.Write(segment.Value(raw))
		case *ast.String:
			b.Write(node.Value)
		case *ast.CodeBlock:
			writeLines(&b, node, raw)
		case *ast.FencedCodeBlock:
			writeLines(&b, node, raw)
		}
		return ast.WalkContinue, nil
	})

	return normalizeText(b.String()), nil, nil
}

func writeLines(b *strings.Builder, node ast.Node, raw []byte) {
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(raw))
	}
}
