package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/chunker"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/config"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/http"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/ingest"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/llm"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/loader"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/rag"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/storage"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about product and service documentation using
// RAG (Retrieval-Augmented Generation) over indexed documents.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Chatbot Suporte P&S API
//   description: |
//     RAG (Retrieval-Augmented Generation) API for answering questions over
//     product/service documents. Documents are ingested from a directory or
//     uploaded, chunked, embedded and indexed; answers cite their sources.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize metadata database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	ctx := context.Background()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection, cfg.MaxRetries)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.VectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.VectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, cfg.VectorSize, cfg.RequestTimeout, cfg.MaxRetries)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.VectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.VectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.VectorSize)

	// Create ingestion pipeline
	ck, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to create chunker: %v", err)
	}
	pipeline := ingest.NewPipeline(
		loader.New(),
		ck,
		docRepo,
		chunkRepo,
		embedder,
		vectorStore,
		cfg.IngestWorkers,
	)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.RequestTimeout, cfg.MaxRetries)

	// Create RAG engine
	retriever := rag.NewRetriever(embedder, vectorStore, cfg.MinScore)
	generator := rag.NewGenerator(llmClient, cfg.AnswerWithoutContext)
	ragEngine := rag.NewEngine(retriever, generator, cfg.RetrievalK)
	slog.Info("RAG engine initialized")

	// Create router with dependencies
	deps := &http.Deps{
		Logger:      logger,
		RAGEngine:   ragEngine,
		Pipeline:    pipeline,
		DocRepo:     docRepo,
		VectorStore: vectorStore,
		DocsDir:     cfg.DocsDir,
	}
	router := http.NewRouter(deps)

	// Start ingestion in background after router is ready
	if cfg.IngestOnStart {
		go func() {
			ingestCtx := contextutil.WithLogger(context.Background(), logger)
			slog.Info("Starting background ingestion", "docs_dir", cfg.DocsDir)
			report, err := pipeline.IngestDir(ingestCtx, cfg.DocsDir)
			if err != nil {
				slog.Error("Ingestion failed", "error", err)
				return
			}
			slog.Info("Ingestion completed",
				"processed", report.Processed, "skipped", report.Skipped, "failed", report.Failed)
		}()
	}

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModel)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
