package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// Config holds the bookrag service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Cache      CacheConfig      `yaml:"cache"`
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
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int64 `yaml:"max_upload_mb"`
}

// EmbeddingConfig holds the OpenAI-compatible embedding backend settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // label for metrics/logs, e.g. "ollama"
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"` // 0 = provider default
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// GenerationConfig holds the OpenAI-compatible chat backend settings.
type GenerationConfig struct {
	BaseURL      string  `yaml:"base_url"`
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	SystemPrompt string  `yaml:"system_prompt"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	TimeoutSec   int     `yaml:"timeout_sec"`
}

// ChunkingConfig controls segmentation and the ingestion-side chunk guards.
type ChunkingConfig struct {
	MaxTokens     int `yaml:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
	MinChunkChars int `yaml:"min_chunk_chars"`
	MaxChunkChars int `yaml:"max_chunk_chars"`
}

// RetrievalConfig controls ranking and the diversity filter.
type RetrievalConfig struct {
	TopK               int     `yaml:"top_k"`
	DiversityThreshold float32 `yaml:"diversity_threshold"`
}

// IngestConfig controls the ingestion worker pool and startup documents.
type IngestConfig struct {
	Workers int      `yaml:"workers"`
	Paths   []string `yaml:"paths"` // ingested once at startup
}

// CacheConfig holds the optional Valkey/Redis embedding cache settings.
// The cache is disabled when Addrs is empty.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLHours         int      `yaml:"ttl_hours"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether an embedding cache backend is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// Pipeline converts chunking and retrieval settings into the domain tuning struct.
func (c *Config) Pipeline() domain.PipelineConfig {
	return domain.PipelineConfig{
		MaxTokens:          c.Chunking.MaxTokens,
		OverlapTokens:      c.Chunking.OverlapTokens,
		MinChunkChars:      c.Chunking.MinChunkChars,
		MaxChunkChars:      c.Chunking.MaxChunkChars,
		TopK:               c.Retrieval.TopK,
		DiversityThreshold: c.Retrieval.DiversityThreshold,
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
	pipeline := domain.DefaultPipelineConfig()

	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 32
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "http://localhost:11434/v1"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 60
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = c.Embedding.BaseURL
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = c.Embedding.APIKey
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gemma2:2b"
	}
	if c.Generation.SystemPrompt == "" {
		c.Generation.SystemPrompt = "The assistant will act like a helpful research assistant."
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 300
	}
	// overlap_tokens: 0 is meaningful, so it defaults only together with max_tokens.
	if c.Chunking.MaxTokens == 0 {
		c.Chunking.MaxTokens = pipeline.MaxTokens
		if c.Chunking.OverlapTokens == 0 {
			c.Chunking.OverlapTokens = pipeline.OverlapTokens
		}
	}
	if c.Chunking.MinChunkChars == 0 {
		c.Chunking.MinChunkChars = pipeline.MinChunkChars
	}
	if c.Chunking.MaxChunkChars == 0 {
		c.Chunking.MaxChunkChars = pipeline.MaxChunkChars
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = pipeline.TopK
	}
	if c.Retrieval.DiversityThreshold == 0 {
		c.Retrieval.DiversityThreshold = pipeline.DiversityThreshold
	}
	if c.Ingest.Workers == 0 {
		c.Ingest.Workers = 4
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "valkey"
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "bookrag:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if c.Chunking.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("chunking.max_tokens must be positive, got %d", c.Chunking.MaxTokens))
	}
	if c.Chunking.OverlapTokens < 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		errs = append(errs, fmt.Errorf(
			"chunking.overlap_tokens must be in [0, max_tokens), got %d", c.Chunking.OverlapTokens,
		))
	}
	if c.Chunking.MinChunkChars < 0 {
		errs = append(errs, fmt.Errorf("chunking.min_chunk_chars must not be negative, got %d", c.Chunking.MinChunkChars))
	}
	if c.Chunking.MaxChunkChars <= 0 {
		errs = append(errs, fmt.Errorf("chunking.max_chunk_chars must be positive, got %d", c.Chunking.MaxChunkChars))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK))
	}
	if c.Retrieval.DiversityThreshold <= 0 || c.Retrieval.DiversityThreshold > 1 {
		errs = append(errs, fmt.Errorf(
			"retrieval.diversity_threshold must be in (0, 1], got %g", c.Retrieval.DiversityThreshold,
		))
	}
	if c.Ingest.Workers <= 0 {
		errs = append(errs, fmt.Errorf("ingest.workers must be positive, got %d", c.Ingest.Workers))
	}
	switch c.Cache.Driver {
	case "valkey", "redis":
		// ok
	default:
		errs = append(errs, fmt.Errorf("cache.driver must be \"valkey\" or \"redis\", got %q", c.Cache.Driver))
	}

	return errors.Join(errs...)
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
