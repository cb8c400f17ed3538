package storage

import "time"

// DocumentRecord is the metadata row for an ingested source document.
type DocumentRecord struct {
	ID          string    // UUID
	SourcePath  string    // Normalized absolute path, unique per document
	Ext         string    // Lowercase file extension
	SizeBytes   int64     // Raw file size at extraction time
	ContentHash string    // "sha256:<hex>", used to skip unchanged documents
	ExtractedAt time.Time // When the document was last extracted
}

// ChunkRecord is a chunk of document text, indexed for vector search.
// The ID doubles as the vector point ID.
type ChunkRecord struct {
	ID          string // UUID (same as the index point ID)
	DocumentID  string // UUID (foreign key to documents.id)
	Ordinal     int    // Position within the document, starts at 0
	StartOffset int    // Rune offset of the chunk start in the document text
	EndOffset   int    // Rune offset one past the chunk end
	Page        int    // 1-based page number, 0 when the format has no pages
	Text        string // Chunk text content
}
