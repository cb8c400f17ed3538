package loader

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF extracts per-page plain text and records the rune span each
// page occupies in the joined text, so chunks can carry a page number.
func extractPDF(path string) (string, []PageSpan, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var (
		b      strings.Builder
		pages  []PageSpan
		offset int
	)

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		pageText = normalizeText(pageText)
		if pageText == "" {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n")
			offset++
		}

		runeLen := len([]rune(pageText))
		pages = append(pages, PageSpan{Number: i, Start: offset, End: offset + runeLen})
		b.WriteString(pageText)
		offset += runeLen
	}

	return b.String(), pages, nil
}
