package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/chunker"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/ingest"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/loader"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/storage"
	storage_mocks "github.com/GabrieILima/Chatbot-Suporte-P-S/internal/storage/mocks"
	vectorstore_mocks "github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore/mocks"
)

func newUploadPipeline(t *testing.T, ctrl *gomock.Controller, expectIngest bool) *ingest.Pipeline {
	t.Helper()
	docRepo := storage_mocks.NewMockDocumentStore(ctrl)
	chunkRepo := storage_mocks.NewMockChunkStore(ctrl)
	vs := vectorstore_mocks.NewMockVectorStore(ctrl)

	if expectIngest {
		docRepo.EXPECT().GetBySourcePath(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
		vs.EXPECT().DeleteBySource(gomock.Any(), gomock.Any()).Return(nil)
		docRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
		chunkRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		vs.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	}

	ck, err := chunker.New(500, 100)
	if err != nil {
		t.Fatalf("chunker.New() error = %v", err)
	}
	return ingest.NewPipeline(loader.New(), ck, docRepo, chunkRepo, &uploadEmbedder{}, vs, 1)
}

type uploadEmbedder struct{}

func (e *uploadEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = make([]float32, 4)
	}
	return vecs, nil
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestUploadHandler_ProcessesFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	docsDir := t.TempDir()
	handler := NewUploadHandler(newUploadPipeline(t, ctrl, true), docsDir)

	body, contentType := multipartUpload(t, "garantia.txt", "A garantia cobre defeitos de fabricação.")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Filename != "garantia.txt" || resp.Status != "processed" {
		t.Errorf("response = %+v", resp)
	}

	// The file lands in the documents directory
	saved, err := os.ReadFile(filepath.Join(docsDir, "garantia.txt"))
	if err != nil {
		t.Fatalf("uploaded file not saved: %v", err)
	}
	if string(saved) != "A garantia cobre defeitos de fabricação." {
		t.Errorf("saved content = %q", saved)
	}
}

func TestUploadHandler_UnsupportedExtension(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewUploadHandler(newUploadPipeline(t, ctrl, false), t.TempDir())

	body, contentType := multipartUpload(t, "planilha.xlsx", "dados")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if resp.Code != "invalid_request" {
		t.Errorf("code = %q, want invalid_request", resp.Code)
	}
}

func TestUploadHandler_MissingFileField(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewUploadHandler(newUploadPipeline(t, ctrl, false), t.TempDir())

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("other", "value")
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadHandler_StripsClientPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	docsDir := t.TempDir()
	handler := NewUploadHandler(newUploadPipeline(t, ctrl, true), docsDir)

	body, contentType := multipartUpload(t, "../../etc/manual.txt", "conteúdo")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(docsDir, "manual.txt")); err != nil {
		t.Errorf("file should be saved under its base name: %v", err)
	}
}

func TestUploadHandler_MethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewUploadHandler(newUploadPipeline(t, ctrl, false), t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
