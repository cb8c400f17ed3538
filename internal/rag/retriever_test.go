package rag

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
	vectorstore_mocks "github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore/mocks"
)

// stubEmbedder returns one fixed vector per input text.
type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = s.vec
	}
	return vecs, nil
}

func TestRetriever_Retrieve_FiltersBelowThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	query := []float32{0.1, 0.2}
	store.EXPECT().Search(gomock.Any(), query, 5).Return([]vectorstore.Hit{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.5},
		{ID: "c", Score: 0.2},
	}, nil)

	r := NewRetriever(&stubEmbedder{vec: query}, store, 0.4)

	hits, err := r.Retrieve(context.Background(), "pergunta", 5, 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "a" || hits[1].ID != "b" {
		t.Errorf("hits = %v, want a and b only", hits)
	}
}

// A request-level threshold overrides the configured one.
func TestRetriever_Retrieve_RequestThresholdOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	store.EXPECT().Search(gomock.Any(), gomock.Any(), 3).Return([]vectorstore.Hit{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.5},
	}, nil)

	r := NewRetriever(&stubEmbedder{vec: []float32{1}}, store, 0.1)

	hits, err := r.Retrieve(context.Background(), "pergunta", 3, 0.8)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("hits = %v, want only a", hits)
	}
}

// Nothing above the threshold is a normal empty result, not an error.
func TestRetriever_Retrieve_EmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	store.EXPECT().Search(gomock.Any(), gomock.Any(), 5).Return([]vectorstore.Hit{
		{ID: "a", Score: 0.1},
	}, nil)

	r := NewRetriever(&stubEmbedder{vec: []float32{1}}, store, 0.6)

	hits, err := r.Retrieve(context.Background(), "pergunta", 5, 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %v, want none", hits)
	}
}

func TestRetriever_Retrieve_EmbedderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := vectorstore_mocks.NewMockVectorStore(ctrl)

	r := NewRetriever(&stubEmbedder{err: errors.New("embedding service down")}, store, 0)

	if _, err := r.Retrieve(context.Background(), "pergunta", 5, 0); err == nil {
		t.Fatal("Retrieve() should surface embedder failures")
	}
}

func TestRetriever_Retrieve_SearchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	store.EXPECT().Search(gomock.Any(), gomock.Any(), 5).Return(nil, vectorstore.ErrUnavailable)

	r := NewRetriever(&stubEmbedder{vec: []float32{1}}, store, 0)

	_, err := r.Retrieve(context.Background(), "pergunta", 5, 0)
	if !errors.Is(err, vectorstore.ErrUnavailable) {
		t.Errorf("Retrieve() error = %v, want ErrUnavailable preserved", err)
	}
}
