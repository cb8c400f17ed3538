package rag

import (
	"context"
	"fmt"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
)

// Embedder computes a fixed-dimension embedding for a question. The same
// model and dimension must be used at ingestion and query time; main
// validates that at startup.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever finds the passages most relevant to a question.
type Retriever struct {
	embedder Embedder
	store    vectorstore.VectorStore
	minScore float64
}

// NewRetriever creates a Retriever with the given relevance threshold.
func NewRetriever(embedder Embedder, store vectorstore.VectorStore, minScore float64) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		minScore: minScore,
	}
}

// Retrieve embeds the question, searches the index and filters out hits
// below the threshold. An empty result is a normal outcome, not an error;
// there is no fallback to unfiltered results.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int, minScore float64) ([]vectorstore.Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if minScore <= 0 {
		minScore = r.minScore
	}

	embeddings, err := r.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for question")
	}

	hits, err := r.store.Search(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	filtered := hits[:0]
	for _, hit := range hits {
		if float64(hit.Score) >= minScore {
			filtered = append(filtered, hit)
		}
	}

	logger.InfoContext(ctx, "retrieval completed",
		"k", k, "raw_hits", len(hits), "above_threshold", len(filtered), "min_score", minScore)
	return filtered, nil
}
