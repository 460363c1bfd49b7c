package chat

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Retriever supplies ranked source records for the question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.SourceRecord, error)
}

// Generator produces the final answer from the assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
