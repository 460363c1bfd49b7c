package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:       HTTPConfig{Port: 8080},
		Milvus:     MilvusConfig{Address: "localhost:19530"},
		Embedding:  EmbeddingConfig{BaseURL: "http://localhost:11434/v1"},
		Generation: GenerationConfig{BaseURL: "http://localhost:11434/v1"},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingMilvusAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Milvus.Address = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing milvus address")
	}
}

func TestValidate_MissingEmbeddingBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.BaseURL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing embedding base_url")
	}
}

func TestValidate_CacheEnabledWithoutAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Enabled = true

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for enabled cache without addrs")
	}

	cfg.Cache.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with cache addrs set: %v", err)
	}
}

func TestValidate_TotalBudgetBelowGenerate(t *testing.T) {
	cfg := validConfig()
	cfg.RAG.GenerateTimeoutSec = 120
	cfg.RAG.TotalTimeoutSec = 60

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when total budget is below generate budget")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 200 {
		t.Errorf("expected WriteTimeoutSec=200, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Milvus.Collection != "rag_docs" {
		t.Errorf("expected Collection='rag_docs', got %q", cfg.Milvus.Collection)
	}
	if cfg.Milvus.ConnectTimeoutSec != 30 {
		t.Errorf("expected ConnectTimeoutSec=30, got %d", cfg.Milvus.ConnectTimeoutSec)
	}
	if cfg.Milvus.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Milvus.HNSWM)
	}
	if cfg.Milvus.HNSWEFConstruct != 200 {
		t.Errorf("expected HNSWEFConstruct=200, got %d", cfg.Milvus.HNSWEFConstruct)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("expected Dimensions=768, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.RAG.TopK != 4 {
		t.Errorf("expected TopK=4, got %d", cfg.RAG.TopK)
	}
	if cfg.RAG.SnippetMaxChars != 800 {
		t.Errorf("expected SnippetMaxChars=800, got %d", cfg.RAG.SnippetMaxChars)
	}
	if cfg.RAG.RetrieveTimeoutSec != 10 {
		t.Errorf("expected RetrieveTimeoutSec=10, got %d", cfg.RAG.RetrieveTimeoutSec)
	}
	if cfg.RAG.PromptTimeoutSec != 5 {
		t.Errorf("expected PromptTimeoutSec=5, got %d", cfg.RAG.PromptTimeoutSec)
	}
	if cfg.RAG.GenerateTimeoutSec != 120 {
		t.Errorf("expected GenerateTimeoutSec=120, got %d", cfg.RAG.GenerateTimeoutSec)
	}
	if cfg.RAG.TotalTimeoutSec != 180 {
		t.Errorf("expected TotalTimeoutSec=180, got %d", cfg.RAG.TotalTimeoutSec)
	}
	if cfg.Memory.Collection != "security_memory" {
		t.Errorf("expected Memory.Collection='security_memory', got %q", cfg.Memory.Collection)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Milvus: MilvusConfig{Collection: "custom_docs", HNSWM: 32, HNSWEFConstruct: 400},
		RAG:    RAGConfig{TopK: 8, SnippetMaxChars: 400, TotalTimeoutSec: 300},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Milvus.Collection != "custom_docs" {
		t.Errorf("expected Collection='custom_docs', got %q", cfg.Milvus.Collection)
	}
	if cfg.Milvus.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Milvus.HNSWM)
	}
	if cfg.RAG.TopK != 8 {
		t.Errorf("expected TopK=8, got %d", cfg.RAG.TopK)
	}
	if cfg.RAG.SnippetMaxChars != 400 {
		t.Errorf("expected SnippetMaxChars=400, got %d", cfg.RAG.SnippetMaxChars)
	}
	if cfg.RAG.TotalTimeoutSec != 300 {
		t.Errorf("expected TotalTimeoutSec=300, got %d", cfg.RAG.TotalTimeoutSec)
	}
}
