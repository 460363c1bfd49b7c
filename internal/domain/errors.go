package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrStoreUnavailable signals that the vector store cannot be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrSchemaMismatch signals that an existing collection disagrees with the expected schema.
	ErrSchemaMismatch = errors.New("collection schema mismatch")
	// ErrEmbeddingUnavailable signals that the embedding service returned no vectors,
	// typically because the model is not provisioned.
	ErrEmbeddingUnavailable = errors.New("embedding service returned no vectors")
	// ErrEmbeddingTransport signals a transport or API failure while embedding.
	ErrEmbeddingTransport = errors.New("embedding request failed")
	// ErrGenerationFailure signals that the text-generation backend failed or
	// returned an unusable response.
	ErrGenerationFailure = errors.New("generation failed")
	// ErrStageTimeout signals that one pipeline stage exceeded its budget.
	ErrStageTimeout = errors.New("stage timed out")
	// ErrOverallTimeout signals that the whole chat call exceeded its total budget.
	ErrOverallTimeout = errors.New("request exceeded total time budget")
	// ErrInvalidInput signals a rejected request payload.
	ErrInvalidInput = errors.New("invalid input")
)

// StageTimeoutError wraps ErrStageTimeout with the stage that breached its budget.
type StageTimeoutError struct {
	Stage  string
	Budget time.Duration
}

func (e *StageTimeoutError) Error() string {
	return fmt.Sprintf("%s: stage %q exceeded %s", ErrStageTimeout.Error(), e.Stage, e.Budget)
}

func (e *StageTimeoutError) Unwrap() error { return ErrStageTimeout }

// NewStageTimeout creates a stage timeout error.
func NewStageTimeout(stage string, budget time.Duration) error {
	return &StageTimeoutError{Stage: stage, Budget: budget}
}
