package ingest

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Embedder vectorizes the document text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Store persists embedded documents.
type Store interface {
	Insert(ctx context.Context, id int64, vector []float32, doc domain.Document) error
}
