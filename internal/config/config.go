package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the ragdex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Milvus     MilvusConfig     `yaml:"milvus"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	RAG        RAGConfig        `yaml:"rag"`
	Memory     MemoryConfig     `yaml:"memory"`
	Cache      CacheConfig      `yaml:"cache"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// MilvusConfig holds vector store connection and collection settings.
type MilvusConfig struct {
	Address           string `yaml:"address"`
	Collection        string `yaml:"collection"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
	HNSWM             int    `yaml:"hnsw_m"`
	HNSWEFConstruct   int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// GenerationConfig holds text-generation provider settings.
type GenerationConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// RAGConfig holds retrieval and chat pipeline settings.
type RAGConfig struct {
	TopK               int `yaml:"top_k"`
	SnippetMaxChars    int `yaml:"snippet_max_chars"`
	SearchConcurrency  int `yaml:"search_concurrency"`
	RetrieveTimeoutSec int `yaml:"retrieve_timeout_sec"`
	PromptTimeoutSec   int `yaml:"prompt_timeout_sec"`
	GenerateTimeoutSec int `yaml:"generate_timeout_sec"`
	TotalTimeoutSec    int `yaml:"total_timeout_sec"`
}

// MemoryConfig holds the security-memory corpus settings.
type MemoryConfig struct {
	Collection string `yaml:"collection"`
	TopK       int    `yaml:"top_k"`
}

// CacheConfig holds the optional embedding cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Generation can legitimately take minutes; keep the write window above
		// the total chat budget so the server does not cut off slow answers.
		c.HTTP.WriteTimeoutSec = 200
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Milvus.Collection == "" {
		c.Milvus.Collection = "rag_docs"
	}
	if c.Milvus.ConnectTimeoutSec <= 0 {
		c.Milvus.ConnectTimeoutSec = 30
	}
	if c.Milvus.HNSWM <= 0 {
		c.Milvus.HNSWM = 16
	}
	if c.Milvus.HNSWEFConstruct <= 0 {
		c.Milvus.HNSWEFConstruct = 200
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "qwen2.5:14b-instruct"
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = 4
	}
	if c.RAG.SnippetMaxChars <= 0 {
		c.RAG.SnippetMaxChars = 800
	}
	if c.RAG.SearchConcurrency <= 0 {
		c.RAG.SearchConcurrency = 8
	}
	if c.RAG.RetrieveTimeoutSec <= 0 {
		c.RAG.RetrieveTimeoutSec = 10
	}
	if c.RAG.PromptTimeoutSec <= 0 {
		c.RAG.PromptTimeoutSec = 5
	}
	if c.RAG.GenerateTimeoutSec <= 0 {
		c.RAG.GenerateTimeoutSec = 120
	}
	if c.RAG.TotalTimeoutSec <= 0 {
		c.RAG.TotalTimeoutSec = 180
	}
	if c.Memory.Collection == "" {
		c.Memory.Collection = "security_memory"
	}
	if c.Memory.TopK <= 0 {
		c.Memory.TopK = 5
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Milvus.Address == "" {
		return fmt.Errorf("milvus.address is required")
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.Generation.BaseURL == "" {
		return fmt.Errorf("generation.base_url is required")
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled is true")
	}
	if c.RAG.TotalTimeoutSec < c.RAG.GenerateTimeoutSec {
		return fmt.Errorf(
			"rag.total_timeout_sec (%d) must not be below rag.generate_timeout_sec (%d)",
			c.RAG.TotalTimeoutSec, c.RAG.GenerateTimeoutSec,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
