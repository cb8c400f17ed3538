package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/retry"
)

// retryBaseDelay is the base backoff delay for index operations.
const retryBaseDelay = 200 * time.Millisecond

// QdrantStore implements VectorStore using Qdrant.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	maxRetries int
}

// NewQdrantStore creates a new Qdrant vector store client bound to one collection.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) is derived from the HTTP port.
func NewQdrantStore(urlStr, collection string, maxRetries int) (*QdrantStore, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &QdrantStore{
		client:     client,
		collection: collection,
		maxRetries: maxRetries,
	}, nil
}

// withRetry runs fn with bounded exponential backoff. Storage RPC failures
// are treated as transient; exhausted retries surface as ErrUnavailable.
func (s *QdrantStore) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := retry.Do(ctx, s.maxRetries, retryBaseDelay, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.MarkTransient(err)
		}
		return nil
	})
	if err != nil && retry.IsTransient(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// EnsureCollection ensures the collection exists with the specified vector size.
// If the collection exists, validates that the vector size matches; a mismatch
// is a configuration error, not retried.
func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	var exists bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		exists, err = s.client.CollectionExists(ctx, s.collection)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", s.collection, "vector_size", vectorSize)
		err := s.withRetry(ctx, func(ctx context.Context) error {
			return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
				CollectionName: s.collection,
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
					Size:     uint64(vectorSize),
					Distance: qdrant.Distance_Cosine,
				}),
			})
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return nil
	}

	var info *qdrant.CollectionInfo
	err = s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		info, err = s.client.GetCollectionInfo(ctx, s.collection)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	config := info.Config
	if config == nil || config.Params == nil {
		return fmt.Errorf("collection config is invalid")
	}
	vectorsConfig := config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return fmt.Errorf("collection vectors config is invalid")
	}
	params := vectorsConfig.GetParams()
	if params == nil {
		return fmt.Errorf("collection vector params are invalid")
	}

	if int(params.Size) != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, params.Size)
	}

	logger.InfoContext(ctx, "collection validated", "collection", s.collection, "vector_size", vectorSize)
	return nil
}

// Upsert inserts or replaces points in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		qdrantPoint := &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vec...),
		}
		if len(point.Meta) > 0 {
			qdrantPoint.Payload = qdrant.NewValueMap(point.Meta)
		}
		qdrantPoints = append(qdrantPoints, qdrantPoint)
	}

	err := s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         qdrantPoints,
		})
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", s.collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", s.collection, "count", len(points))
	return nil
}

// DeleteBySource removes every point whose source_path payload matches.
// Selecting by payload filter means callers need not track point IDs to get
// replace-not-append semantics on re-ingestion.
func (s *QdrantStore) DeleteBySource(ctx context.Context, sourcePath string) error {
	logger := contextutil.LoggerFromContext(ctx)

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("source_path", sourcePath),
		},
	}

	err := s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.collection,
			Points:         qdrant.NewPointsSelectorFilter(filter),
		})
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", s.collection, "source_path", sourcePath, "error", err)
		return fmt.Errorf("failed to delete points for %s: %w", sourcePath, err)
	}

	logger.InfoContext(ctx, "deleted points by source", "collection", s.collection, "source_path", sourcePath)
	return nil
}

// Search performs a similarity search.
func (s *QdrantStore) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	var scoredPoints []*qdrant.ScoredPoint
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		scoredPoints, err = s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.collection,
			Query:          qdrant.NewQuery(query...),
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", s.collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	hits := make([]Hit, 0, len(scoredPoints))
	for _, result := range scoredPoints {
		hit := Hit{Score: result.Score}
		if result.Id != nil {
			hit.ID = result.Id.GetUuid()
		}
		if result.Payload != nil {
			meta := convertPayloadToMap(result.Payload)
			hit.SourcePath, _ = meta["source_path"].(string)
			hit.Text, _ = meta["text"].(string)
			if v, ok := meta["ordinal"].(int64); ok {
				hit.Ordinal = int(v)
			}
			if v, ok := meta["page"].(int64); ok {
				hit.Page = int(v)
			}
		}
		hits = append(hits, hit)
	}

	// Qdrant returns descending scores already; re-sort to guarantee the
	// ordering contract and deterministic tie-breaks.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})

	logger.InfoContext(ctx, "search completed", "collection", s.collection, "k", k, "results", len(hits))
	return hits, nil
}

// Count returns the number of stored points.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.client.Count(ctx, &qdrant.CountPoints{
			CollectionName: s.collection,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to a Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
