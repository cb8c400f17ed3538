package rag

import (
	"context"
	"fmt"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
)

// maxK bounds the number of chunks a single query may request.
const maxK = 20

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question by retrieving relevant chunks and generating
	// a grounded answer with cited sources.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	retriever *Retriever
	generator *Generator
	defaultK  int
}

// NewEngine creates a new RAG engine.
func NewEngine(retriever *Retriever, generator *Generator, defaultK int) Engine {
	if defaultK <= 0 {
		defaultK = 5
	}
	return &ragEngine{
		retriever: retriever,
		generator: generator,
		defaultK:  defaultK,
	}
}

// Ask answers a question using RAG. Queries never mutate the index, so
// cancellation only stops the wait on external services.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Question == "" {
		return AskResponse{}, fmt.Errorf("question must not be empty")
	}

	k := req.K
	if k <= 0 {
		k = e.defaultK
	}
	if k > maxK {
		k = maxK
	}

	logger.InfoContext(ctx, "RAG query started", "question_length", len(req.Question), "k", k)

	hits, err := e.retriever.Retrieve(ctx, req.Question, k, req.MinScore)
	if err != nil {
		return AskResponse{}, err
	}

	answer, err := e.generator.Answer(ctx, req.Question, hits)
	if err != nil {
		return AskResponse{}, err
	}

	outcome := OutcomeAnswered
	if len(hits) == 0 {
		outcome = OutcomeInsufficientContext
	}

	logger.InfoContext(ctx, "RAG query completed",
		"outcome", outcome, "grounded", answer.Grounded, "sources", len(answer.Sources))

	return AskResponse{
		Answer:   answer.Text,
		Grounded: answer.Grounded,
		Outcome:  outcome,
		Sources:  answer.Sources,
	}, nil
}
