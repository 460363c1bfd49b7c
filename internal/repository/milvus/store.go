package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// StoreConfig holds collection-level settings for the primary corpus.
type StoreConfig struct {
	Collection         string
	Dim                int
	HNSWM              int
	HNSWEfConstruction int
}

// Store manages the primary article collection: schema lifecycle, inserts
// and nearest-neighbour search.
type Store struct {
	client *Client
	cfg    StoreConfig
	logger *zap.Logger

	mu    sync.Mutex
	ready bool
}

// NewStore creates a Store. The collection is created lazily on first use.
func NewStore(client *Client, cfg StoreConfig, logger *zap.Logger) *Store {
	return &Store{client: client, cfg: cfg, logger: logger}
}

// Ensure makes the collection queryable: creates it with an HNSW/COSINE
// index when missing, then loads it. Safe to call from every operation; the
// lifecycle runs at most once per process unless it fails.
func (s *Store) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	if err := ensureCollection(ctx, s.client, ensureParams{
		schema:          DocumentSchema(s.cfg.Collection, s.cfg.Dim),
		dim:             s.cfg.Dim,
		hnswM:           s.cfg.HNSWM,
		hnswEfConstruct: s.cfg.HNSWEfConstruction,
	}, s.logger); err != nil {
		return err
	}

	s.ready = true
	return nil
}

// Insert stores one embedded document and flushes so it is immediately
// searchable.
func (s *Store) Insert(ctx context.Context, id int64, vector []float32, doc domain.Document) error {
	if err := s.Ensure(ctx); err != nil {
		return err
	}

	tagsJSON, err := encodeTags(doc.Tags)
	if err != nil {
		return err
	}

	columns := []entity.Column{
		entity.NewColumnInt64(FieldID, []int64{id}),
		entity.NewColumnFloatVector(FieldEmbedding, s.cfg.Dim, [][]float32{vector}),
		entity.NewColumnVarChar(FieldText, []string{truncate(doc.Text, maxLenText)}),
		entity.NewColumnVarChar(FieldTitle, []string{truncate(doc.Title, maxLenTitle)}),
		entity.NewColumnVarChar(FieldURL, []string{truncate(doc.URL, maxLenURL)}),
		entity.NewColumnVarChar(FieldSource, []string{truncate(doc.Source, maxLenSource)}),
		entity.NewColumnVarChar(FieldPublishedDate, []string{truncate(doc.PublishedDate, maxLenPublishedDate)}),
		entity.NewColumnVarChar(FieldTags, []string{tagsJSON}),
	}

	if _, err := s.client.milvus.Insert(ctx, s.cfg.Collection, "", columns...); err != nil {
		return fmt.Errorf("%w: insert: %v", domain.ErrStoreUnavailable, err)
	}
	if err := s.client.milvus.Flush(ctx, s.cfg.Collection, false); err != nil {
		return fmt.Errorf("%w: flush: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Search returns the topK nearest neighbours of vector, most similar first.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchHit, error) {
	if err := s.Ensure(ctx); err != nil {
		return nil, err
	}

	sp, err := entity.NewIndexHNSWSearchParam(searchEF(topK))
	if err != nil {
		return nil, fmt.Errorf("build search param: %w", err)
	}

	outputFields := []string{FieldText, FieldTitle, FieldURL, FieldSource, FieldPublishedDate, FieldTags}
	results, err := s.client.milvus.Search(ctx,
		s.cfg.Collection,
		nil,
		"",
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

	var hits []domain.SearchHit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			hit := domain.SearchHit{Score: result.Scores[i]}
			if col, ok := result.Fields.GetColumn(FieldText).(*entity.ColumnVarChar); ok {
				hit.Text = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldTitle).(*entity.ColumnVarChar); ok {
				hit.Title = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldURL).(*entity.ColumnVarChar); ok {
				hit.URL = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldSource).(*entity.ColumnVarChar); ok {
				hit.Source = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldPublishedDate).(*entity.ColumnVarChar); ok {
				hit.PublishedDate = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn(FieldTags).(*entity.ColumnVarChar); ok {
				hit.TagsJSON = col.Data()[i]
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// RowCount returns the number of stored entities.
func (s *Store) RowCount(ctx context.Context) (int64, error) {
	return rowCount(ctx, s.client, s.cfg.Collection)
}

// ensureParams drives the shared collection lifecycle.
type ensureParams struct {
	schema          *entity.Schema
	dim             int
	hnswM           int
	hnswEfConstruct int
}

func ensureCollection(ctx context.Context, c *Client, p ensureParams, logger *zap.Logger) error {
	name := p.schema.CollectionName

	has, err := c.milvus.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: has collection %s: %v", domain.ErrStoreUnavailable, name, err)
	}

	if has {
		if err := verifyDim(ctx, c, name, p.dim); err != nil {
			return err
		}
	} else {
		if err := c.milvus.CreateCollection(ctx, p.schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("%w: create collection %s: %v", domain.ErrStoreUnavailable, name, err)
		}
		logger.Info("created collection",
			zap.String("collection", name),
			zap.Int("dim", p.dim),
		)
	}

	if err := ensureIndex(ctx, c, name, p, logger); err != nil {
		return err
	}

	if err := c.milvus.LoadCollection(ctx, name, false); err != nil {
		return fmt.Errorf("%w: load collection %s: %v", domain.ErrStoreUnavailable, name, err)
	}
	return nil
}

// ensureIndex builds the HNSW index when the embedding field has none. Runs
// on every ensure, not just collection creation: a crash between creating
// and indexing a collection must not leave it permanently unloadable.
func ensureIndex(ctx context.Context, c *Client, name string, p ensureParams, logger *zap.Logger) error {
	if existing, err := c.milvus.DescribeIndex(ctx, name, FieldEmbedding); err == nil && len(existing) > 0 {
		return nil
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, p.hnswM, p.hnswEfConstruct)
	if err != nil {
		return fmt.Errorf("build hnsw index: %w", err)
	}
	if err := c.milvus.CreateIndex(ctx, name, FieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("%w: create index on %s: %v", domain.ErrStoreUnavailable, name, err)
	}
	logger.Info("created index", zap.String("collection", name))
	return nil
}

// verifyDim rejects an existing collection whose vector width disagrees with
// the configured embedding dimension.
func verifyDim(ctx context.Context, c *Client, name string, dim int) error {
	coll, err := c.milvus.DescribeCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: describe collection %s: %v", domain.ErrStoreUnavailable, name, err)
	}
	for _, f := range coll.Schema.Fields {
		if f.Name != FieldEmbedding {
			continue
		}
		got, err := strconv.Atoi(f.TypeParams["dim"])
		if err != nil {
			return fmt.Errorf("%w: collection %s has unreadable dim %q", domain.ErrSchemaMismatch, name, f.TypeParams["dim"])
		}
		if got != dim {
			return fmt.Errorf("%w: collection %s has dim %d, expected %d", domain.ErrSchemaMismatch, name, got, dim)
		}
		return nil
	}
	return fmt.Errorf("%w: collection %s has no %s field", domain.ErrSchemaMismatch, name, FieldEmbedding)
}

func rowCount(ctx context.Context, c *Client, name string) (int64, error) {
	stats, err := c.milvus.GetCollectionStatistics(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("%w: collection statistics %s: %v", domain.ErrStoreUnavailable, name, err)
	}
	n, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse row_count %q: %w", stats["row_count"], err)
	}
	return n, nil
}

// searchEF widens the HNSW search beam with the requested result count.
func searchEF(topK int) int {
	ef := topK * 4
	if ef < 64 {
		ef = 64
	}
	return ef
}

// truncate cuts s to limit characters on a rune boundary so multibyte text
// never turns into invalid UTF-8 at the column limit.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// encodeTags marshals the tag list for the tags column. Over-long payloads
// are rejected up front; cutting the JSON would corrupt it and later reads
// would silently degrade the tags to an empty list.
func encodeTags(tags []string) (string, error) {
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	if len([]rune(string(b))) > maxLenTags {
		return "", fmt.Errorf("%w: encoded tags exceed %d characters", domain.ErrInvalidInput, maxLenTags)
	}
	return string(b), nil
}
