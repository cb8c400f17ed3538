package rag

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
	vectorstore_mocks "github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore/mocks"
)

func newTestEngine(t *testing.T, ctrl *gomock.Controller, hits []vectorstore.Hit, expectK int, answer string) Engine {
	t.Helper()
	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	store.EXPECT().Search(gomock.Any(), gomock.Any(), expectK).Return(hits, nil)

	retriever := NewRetriever(&stubEmbedder{vec: []float32{1}}, store, 0)
	generator := NewGenerator(&stubCompleter{answer: answer}, false)
	return NewEngine(retriever, generator, 5)
}

func TestEngine_Ask_Answered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := newTestEngine(t, ctrl, testHits(), 5, "A garantia é de 12 meses [S1].")

	resp, err := engine.Ask(context.Background(), AskRequest{Question: "Qual a garantia?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if resp.Outcome != OutcomeAnswered {
		t.Errorf("Outcome = %q, want %q", resp.Outcome, OutcomeAnswered)
	}
	if !resp.Grounded {
		t.Error("Grounded = false, want true")
	}
	if len(resp.Sources) != 1 {
		t.Errorf("Sources = %v, want one cited source", resp.Sources)
	}
}

func TestEngine_Ask_InsufficientContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := newTestEngine(t, ctrl, nil, 5, "unused")

	resp, err := engine.Ask(context.Background(), AskRequest{Question: "Pergunta sem resposta indexada"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if resp.Outcome != OutcomeInsufficientContext {
		t.Errorf("Outcome = %q, want %q", resp.Outcome, OutcomeInsufficientContext)
	}
	if resp.Grounded {
		t.Error("Grounded = true, want false")
	}
	if resp.Answer != insufficientInfoAnswer {
		t.Errorf("Answer = %q, want the deterministic insufficient-information answer", resp.Answer)
	}
}

func TestEngine_Ask_EmptyQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	retriever := NewRetriever(&stubEmbedder{vec: []float32{1}}, store, 0)
	generator := NewGenerator(&stubCompleter{}, false)
	engine := NewEngine(retriever, generator, 5)

	if _, err := engine.Ask(context.Background(), AskRequest{Question: ""}); err == nil {
		t.Fatal("Ask() should reject an empty question")
	}
}

func TestEngine_Ask_KBounds(t *testing.T) {
	tests := []struct {
		name    string
		k       int
		expectK int
	}{
		{name: "default applied", k: 0, expectK: 5},
		{name: "explicit k", k: 8, expectK: 8},
		{name: "bounded at max", k: 500, expectK: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			engine := newTestEngine(t, ctrl, testHits(), tt.expectK, "resposta [S1]")

			if _, err := engine.Ask(context.Background(), AskRequest{Question: "pergunta", K: tt.k}); err != nil {
				t.Fatalf("Ask() error = %v", err)
			}
		})
	}
}
