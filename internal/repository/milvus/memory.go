package milvus

import (
	"context"
	"fmt"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// MemoryStore manages the security-memory collection. Unlike the primary
// corpus it uses store-assigned IDs and supports tag-filtered search.
type MemoryStore struct {
	client *Client
	cfg    StoreConfig
	logger *zap.Logger

	mu    sync.Mutex
	ready bool
}

// NewMemoryStore creates a MemoryStore. The collection is created lazily on
// first use.
func NewMemoryStore(client *Client, cfg StoreConfig, logger *zap.Logger) *MemoryStore {
	return &MemoryStore{client: client, cfg: cfg, logger: logger}
}

// Ensure makes the collection queryable, creating and indexing it when
// missing. Idempotent.
func (s *MemoryStore) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	if err := ensureCollection(ctx, s.client, ensureParams{
		schema:          MemorySchema(s.cfg.Collection, s.cfg.Dim),
		dim:             s.cfg.Dim,
		hnswM:           s.cfg.HNSWM,
		hnswEfConstruct: s.cfg.HNSWEfConstruction,
	}, s.logger); err != nil {
		return err
	}

	s.ready = true
	return nil
}

// InsertChunks stores embedded knowledge chunks. IDs are assigned by the
// store. vectors[i] must correspond to chunks[i].
func (s *MemoryStore) InsertChunks(ctx context.Context, vectors [][]float32, chunks []domain.MemoryChunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d vectors for %d chunks", domain.ErrInvalidInput, len(vectors), len(chunks))
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.Ensure(ctx); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	titles := make([]string, len(chunks))
	sources := make([]string, len(chunks))
	docPaths := make([]string, len(chunks))
	chunkIndexes := make([]int64, len(chunks))
	tags := make([]string, len(chunks))
	for i, ch := range chunks {
		tagsJSON, err := encodeTags(ch.Tags)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		texts[i] = truncate(ch.Text, maxLenText)
		titles[i] = truncate(ch.Title, maxLenTitle)
		sources[i] = truncate(ch.Source, maxLenSource)
		docPaths[i] = truncate(ch.DocPath, maxLenDocPath)
		chunkIndexes[i] = ch.ChunkIndex
		tags[i] = tagsJSON
	}

	columns := []entity.Column{
		entity.NewColumnFloatVector(FieldEmbedding, s.cfg.Dim, vectors),
		entity.NewColumnVarChar(FieldText, texts),
		entity.NewColumnVarChar(FieldTitle, titles),
		entity.NewColumnVarChar(FieldSource, sources),
		entity.NewColumnVarChar(FieldTags, tags),
		entity.NewColumnInt64(FieldChunkIndex, chunkIndexes),
		entity.NewColumnVarChar(FieldDocPath, docPaths),
	}

	if _, err := s.client.milvus.Insert(ctx, s.cfg.Collection, "", columns...); err != nil {
		return fmt.Errorf("%w: insert: %v", domain.ErrStoreUnavailable, err)
	}
	if err := s.client.milvus.Flush(ctx, s.cfg.Collection, false); err != nil {
		return fmt.Errorf("%w: flush: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Search returns the topK nearest chunks, optionally restricted to those
// carrying any of the given tags (see TagFilterExpr).
func (s *MemoryStore) Search(ctx context.Context, vector []float32, topK int, tags []string) ([]domain.MemoryHit, error) {
	if err := s.Ensure(ctx); err != nil {
		return nil, err
	}

	sp, err := entity.NewIndexHNSWSearchParam(searchEF(topK))
	if err != nil {
		return nil, fmt.Errorf("build search param: %w", err)
	}

	expr := TagFilterExpr(tags)
	outputFields := []string{FieldText, FieldTitle, FieldSource, FieldTags, FieldChunkIndex, FieldDocPath}
	results, err := s.client.milvus.Search(ctx,
		s.cfg.Collection,
		nil,
		expr,
		outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrStoreUnavailable, err)
	}

	var hits []domain.MemoryHit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			hit := domain.MemoryHit{Score: result.Scores[i]}
			if col, ok := result.Fields.GetColumn(FieldText).(*entity.ColumnVarChar); ok {
				hit.Text = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldTitle).(*entity.ColumnVarChar); ok {
				hit.Title = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldSource).(*entity.ColumnVarChar); ok {
				hit.Source = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldDocPath).(*entity.ColumnVarChar); ok {
				hit.DocPath = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldChunkIndex).(*entity.ColumnInt64); ok {
				hit.ChunkIndex = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldTags).(*entity.ColumnVarChar); ok {
				hit.TagsJSON = col.Data()[i]
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// RowCount returns the number of stored chunks.
func (s *MemoryStore) RowCount(ctx context.Context) (int64, error) {
	return rowCount(ctx, s.client, s.cfg.Collection)
}
