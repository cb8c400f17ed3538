package handlers

import (
	"net/http"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/ingest"
)

// IngestHandler handles HTTP requests to re-ingest the documents directory.
type IngestHandler struct {
	pipeline *ingest.Pipeline
	docsDir  string
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(pipeline *ingest.Pipeline, docsDir string) *IngestHandler {
	return &IngestHandler{pipeline: pipeline, docsDir: docsDir}
}

// IngestResponse represents the result of a batch ingestion run.
//
// swagger:model IngestResponse
type IngestResponse struct {
	// Number of documents processed (new or changed)
	Processed int `json:"processed"`

	// Number of documents skipped as unchanged
	Skipped int `json:"skipped"`

	// Number of documents that failed
	Failed int `json:"failed"`

	// Per-document failure reasons
	Failures []ingest.FileFailure `json:"failures,omitempty"`
}

// ServeHTTP handles HTTP requests to ingest all documents under the
// configured directory. Re-running over unchanged input is a no-op.
//
// swagger:route POST /api/ingest ingestDocuments
//
// # Ingest documents
//
// Scans the documents directory and indexes new or changed documents.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Ingestion report
//	  schema:
//	    "$ref": "#/definitions/IngestResponse"
//	'503':
//	  description: Vector index unavailable
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, codeInvalidRequest, "Method not allowed")
		return
	}

	report, err := h.pipeline.IngestDir(ctx, h.docsDir)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, IngestResponse{
		Processed: report.Processed,
		Skipped:   report.Skipped,
		Failed:    report.Failed,
		Failures:  report.Failures,
	})
}
