package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/chunker"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/loader"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/storage"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
)

// Status reports the outcome of ingesting a single document.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// FileFailure records a per-document ingestion failure.
type FileFailure struct {
	SourcePath string `json:"source_path"`
	Reason     string `json:"reason"`
}

// Report summarizes a batch ingestion run.
type Report struct {
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Failures  []FileFailure `json:"failures,omitempty"`
}

// Embedder computes fixed-dimension embeddings for chunk texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline orchestrates Loader -> Chunker -> Embedding Index for batches of
// documents. Re-running it over unchanged input is a no-op: unchanged content
// hashes are skipped and changed documents replace their prior chunks.
type Pipeline struct {
	loader      *loader.Loader
	chunker     *chunker.Chunker
	docRepo     storage.DocumentStore
	chunkRepo   storage.ChunkStore
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	workers     int

	// Per-source-identity locks so a re-ingest of one path serializes with
	// any concurrent ingest of the same path while unrelated documents
	// proceed in parallel.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	ld *loader.Loader,
	ck *chunker.Chunker,
	docRepo storage.DocumentStore,
	chunkRepo storage.ChunkStore,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	workers int,
) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		loader:      ld,
		chunker:     ck,
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		vectorStore: vectorStore,
		workers:     workers,
		locks:       make(map[string]*sync.Mutex),
	}
}

// sourceLock returns the mutex guarding one source identity.
func (p *Pipeline) sourceLock(sourcePath string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[sourcePath]
	if !ok {
		l = &sync.Mutex{}
		p.locks[sourcePath] = l
	}
	return l
}

// IngestDir ingests every supported document under root. Per-document
// failures are recorded in the report and never abort the batch. Independent
// documents are ingested concurrently by a bounded worker pool.
func (p *Pipeline) IngestDir(ctx context.Context, root string) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)

	results, err := p.loader.LoadDir(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	logger.InfoContext(ctx, "starting ingestion", "root", root, "candidates", len(results))

	report := &Report{}
	var reportMu sync.Mutex

	record := func(status Status, sourcePath string, err error) {
		reportMu.Lock()
		defer reportMu.Unlock()
		switch status {
		case StatusProcessed:
			report.Processed++
		case StatusSkipped:
			report.Skipped++
		case StatusFailed:
			report.Failed++
			reason := "unknown"
			if err != nil {
				reason = err.Error()
			}
			report.Failures = append(report.Failures, FileFailure{SourcePath: sourcePath, Reason: reason})
		}
	}

	jobs := make(chan *loader.Document)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				status, err := p.ingestDocument(ctx, doc)
				if err != nil {
					logger.ErrorContext(ctx, "failed to ingest document", "source_path", doc.SourcePath, "error", err)
				}
				record(status, doc.SourcePath, err)
			}
		}()
	}

	for _, res := range results {
		if res.Err != nil {
			logger.WarnContext(ctx, "failed to load document", "source_path", res.Err.SourcePath, "error", res.Err.Err)
			record(StatusFailed, res.Err.SourcePath, res.Err)
			continue
		}

		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return report, ctx.Err()
		case jobs <- res.Document:
		}
	}
	close(jobs)
	wg.Wait()

	logger.InfoContext(ctx, "ingestion completed",
		"processed", report.Processed, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// IngestFile ingests a single file, as triggered by an upload.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (Status, error) {
	doc, err := p.loader.LoadFile(ctx, path)
	if err != nil {
		return StatusFailed, err
	}
	return p.ingestDocument(ctx, doc)
}

// ingestDocument chunks, embeds and indexes one extracted document under its
// source-identity lock. Replace-not-append: any existing chunks for the
// source are removed before the new set is stored.
func (p *Pipeline) ingestDocument(ctx context.Context, doc *loader.Document) (Status, error) {
	logger := contextutil.LoggerFromContext(ctx)

	lock := p.sourceLock(doc.SourcePath)
	lock.Lock()
	defer lock.Unlock()

	existing, err := p.docRepo.GetBySourcePath(ctx, doc.SourcePath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return StatusFailed, fmt.Errorf("failed to check existing document: %w", err)
	}

	// Unchanged content means chunk boundaries are unchanged too (the
	// chunker is deterministic), so the whole document can be skipped.
	if existing != nil && existing.ContentHash == doc.ContentHash {
		logger.DebugContext(ctx, "skipping unchanged document", "source_path", doc.SourcePath, "hash", doc.ContentHash)
		return StatusSkipped, nil
	}

	chunks := p.chunker.Split(doc.Text)

	var embeddings [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		embeddings, err = p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return StatusFailed, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(embeddings) != len(chunks) {
			return StatusFailed, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
		}
	}

	// Remove prior vectors before storing the new set so the index never
	// holds a stale+fresh mix for this source.
	if err := p.vectorStore.DeleteBySource(ctx, doc.SourcePath); err != nil {
		return StatusFailed, fmt.Errorf("failed to delete old vectors: %w", err)
	}

	docID := uuid.New().String()
	if existing != nil {
		docID = existing.ID
		if err := p.chunkRepo.DeleteByDocument(ctx, docID); err != nil {
			return StatusFailed, fmt.Errorf("failed to delete old chunks: %w", err)
		}
	}

	docRecord := &storage.DocumentRecord{
		ID:          docID,
		SourcePath:  doc.SourcePath,
		Ext:         doc.Ext,
		SizeBytes:   doc.SizeBytes,
		ContentHash: doc.ContentHash,
		ExtractedAt: doc.ExtractedAt,
	}
	if err := p.docRepo.Upsert(ctx, docRecord); err != nil {
		return StatusFailed, fmt.Errorf("failed to upsert document: %w", err)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		chunkID := uuid.New().String()
		page := doc.PageForOffset(c.Start)

		chunkRecord := &storage.ChunkRecord{
			ID:          chunkID,
			DocumentID:  docRecord.ID,
			Ordinal:     c.Ordinal,
			StartOffset: c.Start,
			EndOffset:   c.End,
			Page:        page,
			Text:        c.Text,
		}
		if err := p.chunkRepo.Insert(ctx, chunkRecord); err != nil {
			return StatusFailed, fmt.Errorf("failed to insert chunk: %w", err)
		}

		points[i] = vectorstore.Point{
			ID:  chunkID,
			Vec: embeddings[i],
			Meta: map[string]any{
				"source_path":  doc.SourcePath,
				"ordinal":      c.Ordinal,
				"page":         page,
				"text":         c.Text,
				"content_hash": doc.ContentHash,
			},
		}
	}

	if len(points) > 0 {
		if err := p.vectorStore.Upsert(ctx, points); err != nil {
			return StatusFailed, fmt.Errorf("failed to upsert vectors: %w", err)
		}
	}

	logger.InfoContext(ctx, "ingested document", "source_path", doc.SourcePath, "chunks", len(chunks))
	return StatusProcessed, nil
}
