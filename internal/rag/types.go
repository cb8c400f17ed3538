package rag

import "errors"

// ErrGenerationFailed is returned when the language model is unreachable or
// errored after retries. It is never masked as a successful empty answer.
var ErrGenerationFailed = errors.New("answer generation failed")

// Outcome codes carried on AskResponse so callers can distinguish a grounded
// answer from the explicit no-context case.
const (
	OutcomeAnswered            = "answered"
	OutcomeInsufficientContext = "insufficient_context"
)

// AskRequest represents a RAG query request.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// K optionally overrides the number of chunks to retrieve.
	K int `json:"k,omitempty"`
	// MinScore optionally overrides the configured relevance threshold.
	MinScore float64 `json:"min_score,omitempty"`
}

// Source is a citation to a chunk the answer drew upon.
type Source struct {
	// Path is the source document's normalized path.
	Path string `json:"path"`
	// ChunkOrdinal is the chunk's position within the source document.
	ChunkOrdinal int `json:"chunk_ordinal"`
	// Page is the 1-based page number, when the source format has pages.
	Page int `json:"page,omitempty"`
}

// Answer is a generated answer with its citations. It is transient and
// never persisted.
type Answer struct {
	// Text is the generated answer text.
	Text string `json:"text"`
	// Grounded reports whether the answer was generated from retrieved context.
	Grounded bool `json:"grounded"`
	// Sources are the cited chunks, deduplicated, in first-cited order.
	Sources []Source `json:"sources"`
}

// AskResponse represents the response from a RAG query.
type AskResponse struct {
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// Grounded reports whether the answer was backed by retrieved context.
	Grounded bool `json:"grounded"`
	// Outcome is "answered" or "insufficient_context".
	Outcome string `json:"outcome"`
	// Sources are the cited source references.
	Sources []Source `json:"sources"`
}
