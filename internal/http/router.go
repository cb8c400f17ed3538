package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/handlers"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/ingest"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/rag"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/storage"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Logger      *slog.Logger
	RAGEngine   rag.Engine
	Pipeline    *ingest.Pipeline
	DocRepo     storage.DocumentStore
	VectorStore vectorstore.VectorStore
	DocsDir     string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.RAGEngine)
	ingestHandler := handlers.NewIngestHandler(deps.Pipeline, deps.DocsDir)
	uploadHandler := handlers.NewUploadHandler(deps.Pipeline, deps.DocsDir)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.DocRepo)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodPost, "/ingest", ingestHandler)
		r.Method(http.MethodPost, "/upload", uploadHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
