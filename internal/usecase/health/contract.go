package health

import "context"

// StorePinger checks vector store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// GenerationChecker checks generation backend availability.
type GenerationChecker interface {
	HealthCheck(ctx context.Context) error
}

// RowCounter reports the document corpus size.
type RowCounter interface {
	RowCount(ctx context.Context) (int64, error)
}
