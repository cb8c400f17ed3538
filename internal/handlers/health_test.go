package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	storage_mocks "github.com/GabrieILima/Chatbot-Suporte-P-S/internal/storage/mocks"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
	vectorstore_mocks "github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore/mocks"
)

func TestHealthHandler_Healthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vs := vectorstore_mocks.NewMockVectorStore(ctrl)
	vs.EXPECT().Count(gomock.Any()).Return(uint64(42), nil)
	docRepo := storage_mocks.NewMockDocumentStore(ctrl)
	docRepo.EXPECT().Count(gomock.Any()).Return(7, nil)

	handler := NewHealthHandler(vs, docRepo)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.IndexedChunks != 42 || resp.Documents != 7 {
		t.Errorf("counts = %d chunks, %d documents", resp.IndexedChunks, resp.Documents)
	}
	if resp.Checks["vector_store"] != "ok" || resp.Checks["database"] != "ok" {
		t.Errorf("checks = %v", resp.Checks)
	}
}

func TestHealthHandler_VectorStoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vs := vectorstore_mocks.NewMockVectorStore(ctrl)
	vs.EXPECT().Count(gomock.Any()).Return(uint64(0), vectorstore.ErrUnavailable)
	docRepo := storage_mocks.NewMockDocumentStore(ctrl)
	docRepo.EXPECT().Count(gomock.Any()).Return(7, nil)

	handler := NewHealthHandler(vs, docRepo)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", resp.Status)
	}
	if resp.Checks["vector_store"] != "error" {
		t.Errorf("checks = %v", resp.Checks)
	}
	if len(resp.Issues) == 0 {
		t.Error("issues should be reported when a check fails")
	}
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vs := vectorstore_mocks.NewMockVectorStore(ctrl)
	vs.EXPECT().Count(gomock.Any()).Return(uint64(10), nil)
	docRepo := storage_mocks.NewMockDocumentStore(ctrl)
	docRepo.EXPECT().Count(gomock.Any()).Return(0, errors.New("database is locked"))

	handler := NewHealthHandler(vs, docRepo)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewHealthHandler(vectorstore_mocks.NewMockVectorStore(ctrl), storage_mocks.NewMockDocumentStore(ctrl))

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
