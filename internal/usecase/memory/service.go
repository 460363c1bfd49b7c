// Package memory serves the security-memory corpus: a curated set of
// security notes searchable by vector similarity with optional tag filters.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/logger"
)

// MaxTopK bounds a single query's result size.
const MaxTopK = 25

// Config carries corpus identity for health reporting plus the default
// result size.
type Config struct {
	Collection    string
	MilvusAddress string
	TopK          int
}

// QueryResult echoes the query alongside the normalized chunks.
type QueryResult struct {
	Query      string               `json:"query"`
	Collection string               `json:"collection"`
	TopK       int                  `json:"top_k"`
	Results    []domain.MemoryChunk `json:"results"`
}

// HealthReport describes corpus availability. PointsCount is nil when the
// store could not be reached.
type HealthReport struct {
	OK            bool   `json:"ok"`
	Collection    string `json:"collection"`
	MilvusAddress string `json:"milvus_host"`
	PointsCount   *int64 `json:"points_count"`
	Note          string `json:"note,omitempty"`
}

// Service answers similarity queries over the security-memory corpus.
type Service struct {
	embed Embedder
	store Store
	cfg   Config
}

func New(embed Embedder, store Store, cfg Config) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Service{embed: embed, store: store, cfg: cfg}
}

// Query embeds the query text and returns the topK nearest chunks. A zero
// topK falls back to the configured default; tags restrict results to
// chunks carrying at least one of them.
func (s *Service) Query(ctx context.Context, query string, tags []string, topK int) (QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return QueryResult{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	if topK > MaxTopK {
		return QueryResult{}, fmt.Errorf("%w: top_k exceeds %d", domain.ErrInvalidInput, MaxTopK)
	}

	embRes, err := s.embed.Embed(ctx, query)
	if err != nil {
		return QueryResult{}, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.Search(ctx, embRes.Embedding, topK, tags)
	if err != nil {
		return QueryResult{}, fmt.Errorf("search memory: %w", err)
	}

	chunks := make([]domain.MemoryChunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, normalizeHit(hit))
	}

	return QueryResult{
		Query:      query,
		Collection: s.cfg.Collection,
		TopK:       topK,
		Results:    chunks,
	}, nil
}

// IngestChunks embeds and stores curated chunks, returning how many were
// written. Chunks with blank text are rejected up front.
func (s *Service) IngestChunks(ctx context.Context, chunks []domain.MemoryChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no chunks provided", domain.ErrInvalidInput)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		if strings.TrimSpace(ch.Text) == "" {
			return 0, fmt.Errorf("%w: chunk %d has empty text", domain.ErrInvalidInput, i)
		}
		texts[i] = ch.Text
	}

	var vectors [][]float32
	if batch, ok := s.embed.(domain.BatchEmbedder); ok {
		res, err := batch.BatchEmbed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed chunks: %w", err)
		}
		vectors = res.Embeddings
	} else {
		res, err := domain.BatchFallback(ctx, s.embed, texts)
		if err != nil {
			return 0, fmt.Errorf("embed chunks: %w", err)
		}
		vectors = res.Embeddings
	}

	if err := s.store.InsertChunks(ctx, vectors, chunks); err != nil {
		return 0, fmt.Errorf("insert chunks: %w", err)
	}

	logger.FromContext(ctx).Info("ingested memory chunks",
		zap.String("collection", s.cfg.Collection),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}

// Health reports corpus reachability and size. An unreachable or empty
// collection is flagged with a note rather than an error.
func (s *Service) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		OK:            true,
		Collection:    s.cfg.Collection,
		MilvusAddress: s.cfg.MilvusAddress,
	}

	count, err := s.store.RowCount(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("memory health check failed", zap.Error(err))
		report.OK = false
	} else {
		report.PointsCount = &count
	}

	if report.PointsCount == nil || *report.PointsCount == 0 {
		report.Note = "Collection appears empty. Run the memory ingest job to populate it."
	}
	return report
}

// normalizeHit decodes the stored tags JSON, degrading to an empty list on
// malformed payloads.
func normalizeHit(hit domain.MemoryHit) domain.MemoryChunk {
	tags := []string{}
	if hit.TagsJSON != "" {
		if err := json.Unmarshal([]byte(hit.TagsJSON), &tags); err != nil {
			tags = []string{}
		}
	}
	return domain.MemoryChunk{
		Score:      hit.Score,
		Title:      hit.Title,
		Source:     hit.Source,
		Tags:       tags,
		Text:       hit.Text,
		ChunkIndex: hit.ChunkIndex,
		DocPath:    hit.DocPath,
	}
}
