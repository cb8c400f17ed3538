package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/rag"
)

// AskHandler handles HTTP requests for RAG queries.
type AskHandler struct {
	ragEngine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(ragEngine rag.Engine) *AskHandler {
	return &AskHandler{ragEngine: ragEngine}
}

// AskRequest represents the HTTP request payload for RAG queries.
// This mirrors the rag.AskRequest but is defined here for HTTP layer separation.
//
// swagger:model AskRequest
type AskRequest struct {
	Question string  `json:"question"`
	K        int     `json:"k,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
}

// AskResponse represents the HTTP response payload for RAG queries.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer
	Answer string `json:"answer"`

	// Whether the answer is grounded in retrieved context
	Grounded bool `json:"grounded"`

	// Outcome code: "answered" or "insufficient_context"
	Outcome string `json:"outcome"`

	// Source passages cited by the answer
	Sources []SourceResponse `json:"sources"`
}

// SourceResponse represents a cited source in the HTTP response.
//
// swagger:model SourceResponse
type SourceResponse struct {
	// Path of the source document
	Path string `json:"path"`

	// Index of the cited chunk within the document
	ChunkOrdinal int `json:"chunk_ordinal"`

	// Page number for paginated formats (0 when not applicable)
	Page int `json:"page,omitempty"`
}

// ServeHTTP handles HTTP requests for RAG queries.
//
// swagger:route POST /api/ask askQuestion
//
// # Ask a question
//
// Answers a question using retrieved context from the indexed documents.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer with citations
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Invalid request
//	'502':
//	  description: Language model service failed
//	'503':
//	  description: Vector index unavailable
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, codeInvalidRequest, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Question must not be empty")
		return
	}
	if req.K < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "k must not be negative")
		return
	}
	if req.MinScore < 0 || req.MinScore > 1 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "min_score must be between 0 and 1")
		return
	}

	logger.InfoContext(ctx, "processing question", "length", len(req.Question), "k", req.K)

	result, err := h.ragEngine.Ask(ctx, rag.AskRequest{
		Question: req.Question,
		K:        req.K,
		MinScore: req.MinScore,
	})
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	sources := make([]SourceResponse, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, SourceResponse{
			Path:         s.Path,
			ChunkOrdinal: s.ChunkOrdinal,
			Page:         s.Page,
		})
	}

	logger.InfoContext(ctx, "question answered", "outcome", result.Outcome, "sources", len(sources))

	writeJSON(ctx, w, http.StatusOK, AskResponse{
		Answer:   result.Answer,
		Grounded: result.Grounded,
		Outcome:  result.Outcome,
		Sources:  sources,
	})
}
