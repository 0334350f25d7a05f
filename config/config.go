// Package config loads service configuration from a YAML file, a .env file
// and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/specter/ai"
	"gopkg.in/yaml.v3"
)

// Index adapters.
const (
	AdapterBadger   = "badger"
	AdapterPGVector = "pgvector"
)

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
	Cache      CacheConfig      `yaml:"cache"`
	AI         AIConfig         `yaml:"ai"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr             string        `yaml:"addr"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// IndexConfig selects and configures the vector index.
type IndexConfig struct {
	Adapter     string         `yaml:"adapter"` // badger or pgvector
	OpenTimeout time.Duration  `yaml:"open_timeout"`
	Badger      BadgerConfig   `yaml:"badger"`
	PGVector    PGVectorConfig `yaml:"pgvector"`
}

// BadgerConfig holds embedded index settings.
type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// PGVectorConfig holds PostgreSQL index settings.
type PGVectorConfig struct {
	DSN        string `yaml:"dsn"`
	Table      string `yaml:"table"`
	Dimensions int    `yaml:"dimensions"`
	MaxConns   int    `yaml:"max_conns"`
}

// RetrievalConfig tunes the vector stage.
type RetrievalConfig struct {
	Threshold    float64       `yaml:"threshold"`
	TopK         int           `yaml:"top_k"`
	EmbedTimeout time.Duration `yaml:"embed_timeout"`
}

// GenerationConfig tunes the generation chain and translation.
type GenerationConfig struct {
	AttemptTimeout   time.Duration `yaml:"attempt_timeout"`
	TranslateTimeout time.Duration `yaml:"translate_timeout"`
}

// CacheConfig configures the answer cache.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // none, memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// AIConfig is the file form of ai.Config.
type AIConfig struct {
	EmbeddingHost  string   `yaml:"embedding_host"`
	EmbeddingModel string   `yaml:"embedding_model"`
	HostedBaseURL  string   `yaml:"hosted_base_url"`
	HostedModel    string   `yaml:"hosted_model"`
	HostedToken    string   `yaml:"hosted_token"`
	OllamaURL      string   `yaml:"ollama_url"`
	OllamaModel    string   `yaml:"ollama_model"`
	AnthropicToken string   `yaml:"anthropic_token"`
	AnthropicModel string   `yaml:"anthropic_model"`
	Temperature    float64  `yaml:"temperature"`
	MaxTokens      int      `yaml:"max_tokens"`
	Providers      []string `yaml:"providers"`
}

// KnowledgeConfig points at curated content. An empty File selects the
// built-in knowledge base.
type KnowledgeConfig struct {
	File     string   `yaml:"file"`
	FAQFiles []string `yaml:"faq_files"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	defaults := ai.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:             ":8000",
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     5 * time.Minute,
			RequestTimeout:   4 * time.Minute,
			GracefulShutdown: 15 * time.Second,
		},
		Index: IndexConfig{
			Adapter:     AdapterBadger,
			OpenTimeout: 5 * time.Second,
			Badger:      BadgerConfig{Path: "./data/index"},
			PGVector: PGVectorConfig{
				Table:      "embedding_records",
				Dimensions: 768,
				MaxConns:   10,
			},
		},
		Retrieval: RetrievalConfig{
			Threshold:    0.70,
			TopK:         3,
			EmbedTimeout: 5 * time.Second,
		},
		Generation: GenerationConfig{
			AttemptTimeout:   90 * time.Second,
			TranslateTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Driver:     CacheMemory,
			TTL:        30 * time.Minute,
			MaxEntries: 10000,
			Redis:      RedisConfig{Addr: "localhost:6379", PoolSize: 10},
		},
		AI: AIConfig{
			EmbeddingHost:  defaults.EmbeddingHost,
			EmbeddingModel: defaults.EmbeddingModel,
			HostedBaseURL:  defaults.HostedBaseURL,
			HostedModel:    defaults.HostedModel,
			OllamaURL:      defaults.OllamaURL,
			OllamaModel:    defaults.OllamaModel,
			AnthropicModel: defaults.AnthropicModel,
			Temperature:    defaults.Temperature,
			MaxTokens:      defaults.MaxTokens,
			Providers:      defaults.Providers,
		},
	}
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply. A .env file in the working directory is read
// first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Addr = fmt.Sprintf(":%d", port)
		}
	}
	if v := os.Getenv("SPECTER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if v := os.Getenv("VECTOR_ADAPTER"); v != "" {
		cfg.Index.Adapter = v
	}
	if v := os.Getenv("INDEX_PATH"); v != "" {
		cfg.Index.Badger.Path = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && strings.HasPrefix(v, "postgres") {
		cfg.Index.Adapter = AdapterPGVector
		cfg.Index.PGVector.DSN = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = CacheRedis
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}
	if v := os.Getenv("CACHE_DRIVER"); v != "" {
		cfg.Cache.Driver = v
	}

	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Retrieval.Threshold = f
		}
	}
	if v := os.Getenv("TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Retrieval.TopK = k
		}
	}

	if v := os.Getenv("EMBEDDING_HOST"); v != "" {
		cfg.AI.EmbeddingHost = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.AI.EmbeddingModel = v
	}
	if v := firstEnv("OPENROUTER_API_KEY", "OPENAI_API_KEY"); v != "" {
		cfg.AI.HostedToken = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.AI.OllamaURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.AI.OllamaModel = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AI.AnthropicToken = v
	}
	if v := os.Getenv("GENERATION_PROVIDERS"); v != "" {
		cfg.AI.Providers = splitList(v)
	}

	if v := os.Getenv("KNOWLEDGE_FILE"); v != "" {
		cfg.Knowledge.File = v
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server addr is required")
	}

	switch c.Index.Adapter {
	case AdapterBadger:
		if c.Index.Badger.Path == "" && !c.Index.Badger.InMemory {
			return errors.New("badger index path is required")
		}
	case AdapterPGVector:
		if c.Index.PGVector.DSN == "" {
			return errors.New("pgvector dsn is required")
		}
		if c.Index.PGVector.Dimensions < 1 {
			return fmt.Errorf("invalid pgvector dimensions: %d", c.Index.PGVector.Dimensions)
		}
	default:
		return fmt.Errorf("invalid vector adapter: %s", c.Index.Adapter)
	}

	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New("redis addr is required")
		}
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", c.Retrieval.Threshold)
	}
	if c.Retrieval.TopK < 1 || c.Retrieval.TopK > 20 {
		return errors.New("top_k must be between 1 and 20")
	}
	if c.Index.OpenTimeout <= 0 || c.Retrieval.EmbedTimeout <= 0 || c.Generation.AttemptTimeout <= 0 || c.Generation.TranslateTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}

	return c.AIConfig().Validate()
}

// AIConfig converts the file form into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithHosted(c.AI.HostedBaseURL, c.AI.HostedModel, c.AI.HostedToken),
		ai.WithOllama(c.AI.OllamaURL, c.AI.OllamaModel),
		ai.WithAnthropic(c.AI.AnthropicModel, c.AI.AnthropicToken),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithMaxTokens(c.AI.MaxTokens),
		ai.WithProviders(append([]string(nil), c.AI.Providers...)...),
	)
}
