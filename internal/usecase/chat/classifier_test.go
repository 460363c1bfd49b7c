package chat

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    domain.DetailLevel
	}{
		{
			name:    "empty message",
			message: "",
			want:    domain.DetailBasic,
		},
		{
			name:    "whitespace only",
			message: "   \n  ",
			want:    domain.DetailBasic,
		},
		{
			name:    "short plain question",
			message: "How do I bake bread?",
			want:    domain.DetailBasic,
		},
		{
			name:    "short but mentions a CLI tool",
			message: "What is docker?",
			want:    domain.DetailStandard,
		},
		{
			name:    "lowercase acronym does not count",
			message: "should i use an api here",
			want:    domain.DetailBasic,
		},
		{
			name:    "uppercase acronym counts",
			message: "Is TLS enough here?",
			want:    domain.DetailStandard,
		},
		{
			name:    "code block plus CLI tool",
			message: "```\nkubectl get pods\n```\nwhy is this pending",
			want:    domain.DetailAdvanced,
		},
		{
			name:    "logs plus protocol plus acronym",
			message: "error:connection reset over tcp, is TLS to blame",
			want:    domain.DetailAdvanced,
		},
		{
			name:    "long structural message without signals",
			message: strings.Repeat("please explain this topic in some depth ", 5),
			want:    domain.DetailStandard,
		},
		{
			name:    "two questions stay standard without other signals",
			message: "What is a message queue? And when should I use one over a database table?",
			want:    domain.DetailStandard,
		},
		{
			name:    "stack trace paste",
			message: "Traceback (most recent call last):\n  File \"app.py\"\n  File \"rag.py\"\nValueError: boom",
			want:    domain.DetailAdvanced,
		},
		{
			name:    "curl with jwt",
			message: "curl -H 'Authorization: Bearer ...' fails, is my jwt wrong?",
			want:    domain.DetailAdvanced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.message); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	msg := "How does OAuth work with grpc?\n```go\nclient.Do(req)\n```"
	first := Classify(msg)
	for i := 0; i < 10; i++ {
		if got := Classify(msg); got != first {
			t.Fatalf("classification changed between calls: %q vs %q", first, got)
		}
	}
}
