package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore VectorStore

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the storage backend cannot be reached
// after the configured retries.
var ErrUnavailable = errors.New("vector index unavailable")

// Point represents a vector point with its chunk text and metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// Hit is a single similarity search result. Chunk text is denormalized into
// the index so retrieval needs no second lookup.
type Hit struct {
	ID         string
	Score      float32
	SourcePath string
	Ordinal    int
	Page       int
	Text       string
}

// VectorStore defines the capability set of the embedding index.
type VectorStore interface {
	// EnsureCollection creates the backing collection if missing and
	// validates the vector size if it exists.
	EnsureCollection(ctx context.Context, vectorSize int) error

	// Upsert inserts or replaces points.
	Upsert(ctx context.Context, points []Point) error

	// DeleteBySource removes every point belonging to the given source
	// document identity.
	DeleteBySource(ctx context.Context, sourcePath string) error

	// Search returns at most k hits ordered by descending similarity,
	// ties broken by chunk ordinal ascending. An empty index yields an
	// empty slice, not an error.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)

	// Count returns the number of stored points.
	Count(ctx context.Context) (uint64, error)
}
