package chunker

import "fmt"

// Chunk is a bounded span of a document's text, the unit of embedding and retrieval.
// Start and End are rune offsets into the original text (End exclusive).
type Chunk struct {
	Ordinal int    // Position within the source document, starts at 0
	Start   int    // Rune offset of the first rune
	End     int    // Rune offset one past the last rune
	Text    string // Chunk text content
}

// Chunker splits normalized text into overlapping fixed-size passages.
// Splitting is deterministic: the same text and parameters always produce
// the same boundaries, which incremental re-ingestion relies on.
type Chunker struct {
	size    int // Chunk size in runes
	overlap int // Overlap between consecutive chunks in runes
}

// New creates a Chunker. Size must be positive and overlap must be
// non-negative and strictly smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than 0: got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative: got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split splits text into chunks covering the whole input with no gaps.
// Consecutive chunks share exactly the configured overlap window, except
// possibly the last chunk, which may be shorter. Empty text yields no
// chunks; text shorter than one chunk size yields exactly one chunk.
// Size is measured in runes so multi-byte text chunks evenly.
func (c *Chunker) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []Chunk{{Ordinal: 0, Start: 0, End: len(runes), Text: text}}
	}

	stride := c.size - c.overlap
	var chunks []Chunk
	for start := 0; start < len(runes); start += stride {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Ordinal: len(chunks),
			Start:   start,
			End:     end,
			Text:    string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Size returns the configured chunk size in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int { return c.overlap }
