package domain

import "context"

// Generator produces a completion for a fully rendered prompt. One shot, no
// retries; callers own the timeout.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
