package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockRowCounter struct {
	count int64
	err   error
}

func (m *mockRowCounter) RowCount(_ context.Context) (int64, error) { return m.count, m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockChecker{}, &mockChecker{}, &mockRowCounter{count: 10})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"milvus", "embedding", "generation"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
	if r.Documents == nil || *r.Documents != 10 {
		t.Errorf("expected 10 documents, got %v", r.Documents)
	}
}

func TestCheck_StoreError(t *testing.T) {
	svc := New(&mockStorePinger{err: errors.New("conn refused")}, &mockChecker{}, &mockChecker{}, &mockRowCounter{count: 10})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["milvus"] != CheckError {
		t.Errorf("expected milvus %q, got %q", CheckError, r.Checks["milvus"])
	}
	if r.Documents != nil {
		t.Error("document count must be skipped when the store is down")
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockChecker{err: errors.New("timeout")}, &mockChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks["embedding"])
	}
	if r.Checks["milvus"] != CheckOK {
		t.Errorf("expected milvus %q, got %q", CheckOK, r.Checks["milvus"])
	}
}

func TestCheck_GenerationError(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockChecker{}, &mockChecker{err: errors.New("model down")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["generation"] != CheckError {
		t.Errorf("expected generation %q, got %q", CheckError, r.Checks["generation"])
	}
}

func TestCheck_OptionalCheckersAbsent(t *testing.T) {
	svc := New(&mockStorePinger{}, nil, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when checker is nil")
	}
	if _, ok := r.Checks["generation"]; ok {
		t.Error("generation check should be absent when checker is nil")
	}
	if r.Documents != nil {
		t.Error("documents should be nil without a row counter")
	}
}

func TestCheck_RowCountErrorIsNotDegrading(t *testing.T) {
	svc := New(&mockStorePinger{}, nil, nil, &mockRowCounter{err: errors.New("stats failed")})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("a failed row count must not degrade status, got %q", r.Status)
	}
	if r.Documents != nil {
		t.Errorf("expected nil documents, got %v", r.Documents)
	}
}
