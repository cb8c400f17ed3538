package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/ingest"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/loader"
)

// maxUploadBytes caps the multipart form size for document uploads.
const maxUploadBytes = 32 << 20

// UploadHandler handles HTTP requests to upload and index a document.
type UploadHandler struct {
	pipeline *ingest.Pipeline
	docsDir  string
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(pipeline *ingest.Pipeline, docsDir string) *UploadHandler {
	return &UploadHandler{pipeline: pipeline, docsDir: docsDir}
}

// UploadResponse represents the result of uploading a document.
//
// swagger:model UploadResponse
type UploadResponse struct {
	// Stored filename relative to the documents directory
	Filename string `json:"filename"`

	// Ingestion status: "processed" or "skipped"
	Status string `json:"status"`
}

// ServeHTTP handles HTTP requests to upload a document. The file is saved
// into the documents directory and immediately ingested.
//
// swagger:route POST /api/upload uploadDocument
//
// # Upload a document
//
// Accepts a multipart form with a "file" field, stores it in the documents
// directory and indexes it.
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Upload result
//	  schema:
//	    "$ref": "#/definitions/UploadResponse"
//	'400':
//	  description: Invalid request or unsupported file type
//	'503':
//	  description: Vector index unavailable
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, codeInvalidRequest, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Missing file field")
		return
	}
	defer file.Close()

	// The stored name is the base name only; anything else in the client
	// path is discarded.
	filename := filepath.Base(header.Filename)
	if filename == "." || filename == "/" || filename == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid filename")
		return
	}
	if !loader.Supported(filename) {
		writeError(w, http.StatusBadRequest, codeInvalidRequest,
			fmt.Sprintf("Unsupported file type, expected one of: %s", strings.Join(loader.SupportedExtensions(), ", ")))
		return
	}

	destPath := filepath.Join(h.docsDir, filename)
	if err := h.saveFile(file, destPath); err != nil {
		logger.ErrorContext(ctx, "failed to save uploaded file", "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to save uploaded file")
		return
	}

	logger.InfoContext(ctx, "uploaded document", "filename", filename, "size_bytes", header.Size)

	status, err := h.pipeline.IngestFile(ctx, destPath)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, UploadResponse{
		Filename: filename,
		Status:   string(status),
	})
}

// saveFile writes the uploaded content to destPath, replacing any existing
// file with the same name.
func (h *UploadHandler) saveFile(src io.Reader, destPath string) error {
	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
