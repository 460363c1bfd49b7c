package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results. Documents is nil when the corpus
// size could not be read.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents *int64
}

// Service coordinates health checks across the store and the model backends.
type Service struct {
	store      StorePinger
	embedding  EmbeddingChecker
	generation GenerationChecker
	docs       RowCounter
}

// New creates a Service. embedding, generation, and docs can be nil.
func New(store StorePinger, embedding EmbeddingChecker, generation GenerationChecker, docs RowCounter) *Service {
	return &Service{store: store, embedding: embedding, generation: generation, docs: docs}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.store.Ping(ctx); err != nil {
		checks["milvus"] = CheckError
	} else {
		checks["milvus"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.generation != nil {
		if err := s.generation.HealthCheck(ctx); err != nil {
			checks["generation"] = CheckError
		} else {
			checks["generation"] = CheckOK
		}
	}

	var docs *int64
	if s.docs != nil && checks["milvus"] == CheckOK {
		if n, err := s.docs.RowCount(ctx); err == nil {
			docs = &n
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Documents: docs}
}
