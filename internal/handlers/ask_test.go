package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/rag"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
)

// mockRAGEngine is a hand-rolled stub implementing rag.Engine.
type mockRAGEngine struct {
	lastRequest rag.AskRequest
	response    rag.AskResponse
	err         error
}

func (m *mockRAGEngine) Ask(_ context.Context, req rag.AskRequest) (rag.AskResponse, error) {
	m.lastRequest = req
	if m.err != nil {
		return rag.AskResponse{}, m.err
	}
	return m.response, nil
}

func postAsk(t *testing.T, handler *AskHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAskHandler_Answered(t *testing.T) {
	engine := &mockRAGEngine{
		response: rag.AskResponse{
			Answer:   "A garantia é de 12 meses [S1].",
			Grounded: true,
			Outcome:  rag.OutcomeAnswered,
			Sources: []rag.Source{
				{Path: "/docs/garantia.pdf", ChunkOrdinal: 3, Page: 2},
			},
		},
	}
	handler := NewAskHandler(engine)

	rec := postAsk(t, handler, AskRequest{Question: "Qual o prazo de garantia?", K: 3})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Answer != "A garantia é de 12 meses [S1]." || !resp.Grounded || resp.Outcome != "answered" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Path != "/docs/garantia.pdf" || resp.Sources[0].ChunkOrdinal != 3 || resp.Sources[0].Page != 2 {
		t.Errorf("sources = %+v", resp.Sources)
	}

	if engine.lastRequest.Question != "Qual o prazo de garantia?" || engine.lastRequest.K != 3 {
		t.Errorf("engine request = %+v", engine.lastRequest)
	}
}

func TestAskHandler_InsufficientContext(t *testing.T) {
	engine := &mockRAGEngine{
		response: rag.AskResponse{
			Answer:   "I could not find relevant information in the indexed documents to answer this question.",
			Grounded: false,
			Outcome:  rag.OutcomeInsufficientContext,
			Sources:  []rag.Source{},
		},
	}
	handler := NewAskHandler(engine)

	rec := postAsk(t, handler, AskRequest{Question: "Pergunta antes da ingestão"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (insufficient context is not an error)", rec.Code)
	}

	var resp AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Outcome != "insufficient_context" || resp.Grounded {
		t.Errorf("response = %+v", resp)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("sources = %v, want empty array", resp.Sources)
	}
}

func TestAskHandler_Validation(t *testing.T) {
	tests := []struct {
		name string
		body AskRequest
	}{
		{name: "empty question", body: AskRequest{Question: ""}},
		{name: "blank question", body: AskRequest{Question: "   "}},
		{name: "negative k", body: AskRequest{Question: "pergunta", K: -1}},
		{name: "min score above 1", body: AskRequest{Question: "pergunta", MinScore: 1.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAskHandler(&mockRAGEngine{})

			rec := postAsk(t, handler, tt.body)

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
		})
	}
}

func TestAskHandler_InvalidBody(t *testing.T) {
	handler := NewAskHandler(&mockRAGEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAskHandler_MethodNotAllowed(t *testing.T) {
	handler := NewAskHandler(&mockRAGEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestAskHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "index unavailable",
			err:        vectorstore.ErrUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "index_unavailable",
		},
		{
			name:       "generation failed",
			err:        rag.ErrGenerationFailed,
			wantStatus: http.StatusBadGateway,
			wantCode:   "generation_failed",
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAskHandler(&mockRAGEngine{err: tt.err})

			rec := postAsk(t, handler, AskRequest{Question: "pergunta"})

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}
