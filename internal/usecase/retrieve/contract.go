package retrieve

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Store runs nearest-neighbour search over the article corpus.
type Store interface {
	Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchHit, error)
}
