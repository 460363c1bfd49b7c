// Package chat orchestrates the retrieve -> prompt -> generate pipeline
// with per-stage and overall deadlines.
package chat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/logger"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Stage names as they appear in timeout errors and metrics labels.
const (
	StageRetrieve = "retrieve"
	StagePrompt   = "prompt"
	StageGenerate = "generate"
)

// Config carries the per-stage budgets and the overall deadline.
// Total must cover at least the generate budget.
type Config struct {
	RetrieveTimeout time.Duration
	PromptTimeout   time.Duration
	GenerateTimeout time.Duration
	TotalTimeout    time.Duration
}

// Timing reports wall-clock stage durations in milliseconds, rounded
// to a tenth.
type Timing struct {
	RetrieveMS float64 `json:"retrieve"`
	PromptMS   float64 `json:"prompt"`
	GenerateMS float64 `json:"generate"`
	TotalMS    float64 `json:"total"`
}

// Result is a completed chat turn. On error the orchestrator returns no
// partial result.
type Result struct {
	Answer      string
	Sources     []domain.SourceRecord
	Level       domain.DetailLevel
	Timing      Timing
	PromptChars int
}

// Preview is the assembled prompt without generation, for inspection.
type Preview struct {
	Prompt  string
	Sources []domain.SourceRecord
	Level   domain.DetailLevel
}

// Service runs the chat pipeline.
type Service struct {
	retriever Retriever
	generator Generator
	cfg       Config
}

func New(retriever Retriever, generator Generator, cfg Config) *Service {
	if cfg.RetrieveTimeout <= 0 {
		cfg.RetrieveTimeout = 10 * time.Second
	}
	if cfg.PromptTimeout <= 0 {
		cfg.PromptTimeout = 5 * time.Second
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 120 * time.Second
	}
	if cfg.TotalTimeout <= 0 {
		cfg.TotalTimeout = 180 * time.Second
	}
	return &Service{retriever: retriever, generator: generator, cfg: cfg}
}

// Chat answers the question. An empty level means auto-classification.
func (s *Service) Chat(ctx context.Context, message string, level domain.DetailLevel) (Result, error) {
	total, cancel := context.WithTimeout(ctx, s.cfg.TotalTimeout)
	defer cancel()

	started := time.Now()

	var sources []domain.SourceRecord
	retrieveDur, err := s.runStage(total, StageRetrieve, s.cfg.RetrieveTimeout, func(stageCtx context.Context) error {
		var retrieveErr error
		sources, retrieveErr = s.retriever.Retrieve(stageCtx, message, 0)
		return retrieveErr
	})
	if err != nil {
		return Result{}, s.fail(ctx, err)
	}

	// Classification belongs to the prompt stage: its cost counts against
	// the prompt budget and shows up in the prompt timing.
	var prompt string
	promptDur, err := s.runStage(total, StagePrompt, s.cfg.PromptTimeout, func(stageCtx context.Context) error {
		if level == "" {
			level = Classify(message)
		}
		prompt = BuildPrompt(message, level, sources)
		return stageCtx.Err()
	})
	if err != nil {
		return Result{}, s.fail(ctx, err)
	}

	var answer string
	generateDur, err := s.runStage(total, StageGenerate, s.cfg.GenerateTimeout, func(stageCtx context.Context) error {
		var genErr error
		answer, genErr = s.generator.Generate(stageCtx, prompt)
		return genErr
	})
	if err != nil {
		return Result{}, s.fail(ctx, err)
	}

	metrics.ChatsTotal.WithLabelValues("ok").Inc()

	res := Result{
		Answer:  answer,
		Sources: sources,
		Level:   level,
		Timing: Timing{
			RetrieveMS: roundMS(retrieveDur),
			PromptMS:   roundMS(promptDur),
			GenerateMS: roundMS(generateDur),
			TotalMS:    roundMS(time.Since(started)),
		},
		PromptChars: len([]rune(prompt)),
	}

	logger.FromContext(ctx).Info("chat completed",
		zap.String("level", string(level)),
		zap.Int("sources", len(sources)),
		zap.Int("prompt_chars", res.PromptChars),
		zap.Float64("total_ms", res.Timing.TotalMS),
	)
	return res, nil
}

// PreviewPrompt retrieves and assembles the prompt without calling the
// generator. Only the retrieve budget applies.
func (s *Service) PreviewPrompt(ctx context.Context, message string, level domain.DetailLevel) (Preview, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.cfg.RetrieveTimeout)
	defer cancel()

	sources, err := s.retriever.Retrieve(stageCtx, message, 0)
	if err != nil {
		if stageCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return Preview{}, domain.NewStageTimeout(StageRetrieve, s.cfg.RetrieveTimeout)
		}
		return Preview{}, fmt.Errorf("retrieve sources: %w", err)
	}

	if level == "" {
		level = Classify(message)
	}
	return Preview{
		Prompt:  BuildPrompt(message, level, sources),
		Sources: sources,
		Level:   level,
	}, nil
}

// runStage executes fn under a stage deadline nested in the total deadline
// and records the stage duration. A deadline hit on the total context wins
// over the stage one.
func (s *Service) runStage(total context.Context, stage string, budget time.Duration, fn func(context.Context) error) (time.Duration, error) {
	stageCtx, cancel := context.WithTimeout(total, budget)
	defer cancel()

	start := time.Now()
	err := fn(stageCtx)
	elapsed := time.Since(start)
	metrics.ChatStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())

	if err == nil {
		return elapsed, nil
	}
	if total.Err() == context.DeadlineExceeded {
		return elapsed, fmt.Errorf("%w: after %s in stage %q", domain.ErrOverallTimeout, elapsed.Round(time.Millisecond), stage)
	}
	if stageCtx.Err() == context.DeadlineExceeded {
		return elapsed, domain.NewStageTimeout(stage, budget)
	}
	return elapsed, fmt.Errorf("%s: %w", stage, err)
}

func (s *Service) fail(ctx context.Context, err error) error {
	status := "error"
	if errors.Is(err, domain.ErrStageTimeout) || errors.Is(err, domain.ErrOverallTimeout) {
		status = "timeout"
	}
	metrics.ChatsTotal.WithLabelValues(status).Inc()
	logger.FromContext(ctx).Warn("chat failed", zap.String("status", status), zap.Error(err))
	return err
}

func roundMS(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*10) / 10
}
