package bookrag

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type openAIConfig struct {
	apiKey  string
	baseURL string
	model   string
}

type clientConfig struct {
	embedder       Embedder
	openAIEmbedder *openAIConfig
	dimensions     int

	generator       Generator
	openAIGenerator *openAIConfig
	systemPrompt    string

	driver    string // "valkey" or "redis"; empty disables the cache
	addrs     []string
	password  string
	keyPrefix string
	cacheTTL  time.Duration

	docInstruction   string
	queryInstruction string

	pipeline domain.PipelineConfig
	workers  int
	timeout  time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithEmbedder sets a custom text embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAIEmbedder uses an OpenAI-compatible /embeddings endpoint.
// An empty baseURL targets api.openai.com.
func WithOpenAIEmbedder(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIEmbedder = &openAIConfig{apiKey: apiKey, baseURL: baseURL, model: model}
	})
}

// WithDimensions requests truncated embeddings from models that support it.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithGenerator sets a custom answer generator.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithOpenAIGenerator uses an OpenAI-compatible chat completions endpoint.
func WithOpenAIGenerator(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIGenerator = &openAIConfig{apiKey: apiKey, baseURL: baseURL, model: model}
	})
}

// WithSystemPrompt overrides the system instruction sent with every question.
func WithSystemPrompt(prompt string) Option {
	return optionFunc(func(c *clientConfig) {
		c.systemPrompt = prompt
	})
}

// WithValkeyCache caches embeddings in a Valkey instance.
func WithValkeyCache(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedisCache caches embeddings in a Redis instance.
func WithRedisCache(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCacheTTL sets the embedding cache entry lifetime. Zero keeps entries forever.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithCacheKeyPrefix namespaces cache keys when several programs share one instance.
func WithCacheKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithInstructions prepends model instructions to document and query text,
// e.g. "search_document: " and "search_query: " for nomic-embed-text.
func WithInstructions(document, query string) Option {
	return optionFunc(func(c *clientConfig) {
		c.docInstruction = document
		c.queryInstruction = query
	})
}

// WithPipeline overrides chunking and retrieval tuning.
// Zero fields keep their defaults.
func WithPipeline(p PipelineConfig) Option {
	return optionFunc(func(c *clientConfig) {
		if p.MaxTokens > 0 {
			c.pipeline.MaxTokens = p.MaxTokens
		}
		if p.OverlapTokens > 0 && p.OverlapTokens < c.pipeline.MaxTokens {
			c.pipeline.OverlapTokens = p.OverlapTokens
		}
		if p.MinChunkChars > 0 {
			c.pipeline.MinChunkChars = p.MinChunkChars
		}
		if p.MaxChunkChars > 0 {
			c.pipeline.MaxChunkChars = p.MaxChunkChars
		}
		if p.TopK > 0 {
			c.pipeline.TopK = p.TopK
		}
		if p.DiversityThreshold > 0 {
			c.pipeline.DiversityThreshold = p.DiversityThreshold
		}
	})
}

// WithWorkers sets the number of concurrent embedding calls during ingestion.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithTimeout bounds each OpenAI request. Default: 60s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
