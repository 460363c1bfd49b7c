package memory

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Embedder vectorizes queries and chunk texts.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Store is the security-memory collection.
type Store interface {
	Search(ctx context.Context, vector []float32, topK int, tags []string) ([]domain.MemoryHit, error)
	InsertChunks(ctx context.Context, vectors [][]float32, chunks []domain.MemoryChunk) error
	RowCount(ctx context.Context) (int64, error)
}
