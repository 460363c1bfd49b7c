// Package ingest embeds and stores documents in the article corpus.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/logger"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// MaxTextChars bounds the embeddable document body.
const MaxTextChars = 30000

// Service ingests one document at a time: validate, embed, insert.
type Service struct {
	embed Embedder
	store Store
	newID func() int64
}

// New creates an ingestion service. newID assigns primary keys; pass
// milvus.NewDocumentID in production.
func New(embed Embedder, store Store, newID func() int64) *Service {
	return &Service{embed: embed, store: store, newID: newID}
}

// Ingest validates and stores the document, returning its assigned ID.
func (s *Service) Ingest(ctx context.Context, doc domain.Document) (int64, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return 0, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	if len([]rune(doc.Text)) > MaxTextChars {
		return 0, fmt.Errorf("%w: text exceeds %d characters", domain.ErrInvalidInput, MaxTextChars)
	}

	embRes, err := s.embed.Embed(ctx, doc.Text)
	if err != nil {
		metrics.IngestsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("embed document: %w", err)
	}

	id := s.newID()
	if err := s.store.Insert(ctx, id, embRes.Embedding, doc); err != nil {
		metrics.IngestsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("insert document: %w", err)
	}

	metrics.IngestsTotal.WithLabelValues("ok").Inc()
	logger.FromContext(ctx).Info("ingested document",
		zap.Int64("id", id),
		zap.String("title", doc.Title),
		zap.Int("text_chars", len(doc.Text)),
		zap.Int("tokens", embRes.TotalTokens),
	)
	return id, nil
}
