// Package retrieve turns a question into normalized source records via
// embedding and vector search.
package retrieve

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Config holds retrieval settings.
type Config struct {
	TopK            int
	SnippetMaxChars int
	Concurrency     int64
}

// Service retrieves the most similar documents for a query. Store calls are
// blocking, so they pass through a weighted semaphore: one slow search cannot
// monopolize the process under concurrent requests.
type Service struct {
	embed Embedder
	store Store
	cfg   Config
	slots *semaphore.Weighted
}

// New creates a retrieval service.
func New(embed Embedder, store Store, cfg Config) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if cfg.SnippetMaxChars <= 0 {
		cfg.SnippetMaxChars = 800
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Service{
		embed: embed,
		store: store,
		cfg:   cfg,
		slots: semaphore.NewWeighted(cfg.Concurrency),
	}
}

// Retrieve embeds the query, searches the corpus, and normalizes the hits.
// k <= 0 selects the configured default. Results keep the store's similarity
// ordering, most similar first.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]domain.SourceRecord, error) {
	if k <= 0 {
		k = s.cfg.TopK
	}

	embRes, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire search slot: %w", err)
	}
	hits, searchErr := s.store.Search(ctx, embRes.Embedding, k)
	s.slots.Release(1)
	if searchErr != nil {
		return nil, fmt.Errorf("vector search: %w", searchErr)
	}

	records := make([]domain.SourceRecord, 0, len(hits))
	for _, hit := range hits {
		records = append(records, normalizeHit(hit, s.cfg.SnippetMaxChars))
	}
	return records, nil
}

// normalizeHit converts a raw store hit into an API-ready source record.
// Malformed tag JSON degrades to an empty list rather than failing the
// whole retrieval.
func normalizeHit(hit domain.SearchHit, snippetMax int) domain.SourceRecord {
	tags := []string{}
	if hit.TagsJSON != "" {
		if err := json.Unmarshal([]byte(hit.TagsJSON), &tags); err != nil {
			tags = []string{}
		}
	}
	if tags == nil {
		tags = []string{}
	}

	return domain.SourceRecord{
		Title:         hit.Title,
		URL:           hit.URL,
		Source:        hit.Source,
		PublishedDate: hit.PublishedDate,
		Tags:          tags,
		Distance:      hit.Score,
		Snippet:       truncateRunes(hit.Text, snippetMax),
	}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
