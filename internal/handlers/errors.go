package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/rag"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
)

// ErrorResponse represents an error payload with a taxonomy code.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Error taxonomy codes exposed to API clients.
const (
	codeInvalidRequest   = "invalid_request"
	codeIndexUnavailable = "index_unavailable"
	codeGenerationFailed = "generation_failed"
	codeInternal         = "internal_error"
)

// writeError writes an error response with its taxonomy code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: code, Error: message})
}

// writeDomainError maps core errors to HTTP status codes and taxonomy codes.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "request failed", "error", err)

	switch {
	case errors.Is(err, vectorstore.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeIndexUnavailable, "Vector index unavailable")
	case errors.Is(err, rag.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, codeGenerationFailed, "Language model service failed")
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
	}
}

// writeJSON writes a JSON response body.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
