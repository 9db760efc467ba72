package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/askdocs/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Backend names
const (
	BackendMemory   = "memory"
	BackendQdrant   = "qdrant"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr     string        `env:"SERVER_ADDR" envDefault:":8000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10m"`

	// Database configuration (only required for the postgres response cache backend)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbeddingConnectorCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`
	LLMConnectorCfg       LLMConnectorConfig       `envPrefix:"LLM_"`

	// Pipeline configuration
	RetrievalCfg     RetrievalConfig     `envPrefix:"RETRIEVAL_"`
	ResponseCacheCfg ResponseCacheConfig `envPrefix:"RESPONSE_CACHE_"`
	DocumentCacheCfg DocumentCacheConfig `envPrefix:"DOCUMENT_CACHE_"`

	// Query configuration
	MaxQuestionLength int `env:"MAX_QUESTION_LENGTH" envDefault:"4000"`
	// DedupeInFlight collapses concurrent identical questions into one generation
	DedupeInFlight bool `env:"DEDUPE_IN_FLIGHT" envDefault:"false"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (only required by the telegram-bot binary)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"3"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	Endpoint string               `env:"ENDPOINT" envDefault:"/v1/embeddings"`
	Model    string               `env:"MODEL" envDefault:"text-embedding-nomic-embed-text-v1.5"`
	Retry    pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	CompletionsEndpoint string      `env:"COMPLETIONS_ENDPOINT" envDefault:"/v1/chat/completions"`
	Reasoning           StageConfig `envPrefix:"REASONING_"`
	Formatting          StageConfig `envPrefix:"FORMATTING_"`
}

// StageConfig configures one generation stage.
type StageConfig struct {
	Model       string               `env:"MODEL"`
	Temperature float64              `env:"TEMPERATURE"`
	MaxTokens   int                  `env:"MAX_TOKENS"`
	Retry       pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type RetrievalConfig struct {
	TopK        int          `env:"TOP_K" envDefault:"10"`
	MaxDistance float64      `env:"MAX_DISTANCE" envDefault:"1.0"`
	Backend     string       `env:"BACKEND" envDefault:"memory"`
	SeedFile    string       `env:"SEED_FILE"`
	Qdrant      QdrantConfig `envPrefix:"QDRANT_"`
}

type QdrantConfig struct {
	HTTPClientConfig
	APIKey     string `env:"API_KEY"`
	Collection string `env:"COLLECTION" envDefault:"documents"`
	Dimension  int    `env:"DIMENSION" envDefault:"768"`
}

type ResponseCacheConfig struct {
	Enabled             bool          `env:"ENABLED" envDefault:"true"`
	Backend             string        `env:"BACKEND" envDefault:"memory"`
	TopK                int           `env:"TOP_K" envDefault:"3"`
	SimilarityThreshold float64       `env:"SIMILARITY_THRESHOLD" envDefault:"0.7"`
	WriteTimeout        time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ScanLimit           int           `env:"SCAN_LIMIT" envDefault:"5000"`
}

type DocumentCacheConfig struct {
	Enabled    bool          `env:"ENABLED" envDefault:"true"`
	Backend    string        `env:"BACKEND" envDefault:"memory"`
	TTL        time.Duration `env:"TTL" envDefault:"1h"`
	BadgerPath string        `env:"BADGER_PATH" envDefault:"data/doc-cache"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"5s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"0s"`
	TLSHandshakeTimeout   time.Duration `env:"TLS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	MaxIdleConns          int           `env:"MAX_IDLE_CONNS" envDefault:"100"`
	MaxIdleConnsPerHost   int           `env:"MAX_IDLE_CONNS_PER_HOST" envDefault:"10"`
	InsecureSkipVerify    bool          `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL" envDefault:"http://127.0.0.1:1234"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag
	return cfg, nil
}

// Parse reads the configuration from the process environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	applyStageDefaults(&cfg.LLMConnectorCfg)
	fillRetry(&cfg.EmbeddingConnectorCfg.Retry, cfg.EmbeddingConnectorCfg.RequestTimeout)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyStageDefaults fills the per-stage settings that differ between the two models.
func applyStageDefaults(cfg *LLMConnectorConfig) {
	if cfg.Reasoning.Model == "" {
		cfg.Reasoning.Model = "deepseek-r1-distill-qwen-7b"
	}
	if cfg.Reasoning.Temperature == 0 {
		cfg.Reasoning.Temperature = 0.7
	}
	if cfg.Reasoning.MaxTokens == 0 {
		cfg.Reasoning.MaxTokens = -1
	}
	fillRetry(&cfg.Reasoning.Retry, 180*time.Second)

	if cfg.Formatting.Model == "" {
		cfg.Formatting.Model = "granite-3.1-8b-instruct"
	}
	if cfg.Formatting.Temperature == 0 {
		cfg.Formatting.Temperature = 0.3
	}
	if cfg.Formatting.MaxTokens == 0 {
		cfg.Formatting.MaxTokens = 1024
	}
	fillRetry(&cfg.Formatting.Retry, 90*time.Second)
}

func fillRetry(rc *pkgRetry.RetryConfig, timeout time.Duration) {
	def := pkgRetry.DefaultRetryConfig()
	if rc.Attempts == 0 {
		rc.Attempts = def.Attempts
	}
	if rc.Delay == 0 {
		rc.Delay = def.Delay
	}
	if rc.MaxDelay == 0 {
		rc.MaxDelay = def.MaxDelay
	}
	if rc.Timeout == 0 {
		rc.Timeout = timeout
	}
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.ResponseCacheCfg.SimilarityThreshold <= 0 || cfg.ResponseCacheCfg.SimilarityThreshold > 2 {
		errors = append(errors, fmt.Sprintf("RESPONSE_CACHE_SIMILARITY_THRESHOLD must be in (0, 2], got %g", cfg.ResponseCacheCfg.SimilarityThreshold))
	}

	if cfg.ResponseCacheCfg.TopK < 1 {
		errors = append(errors, fmt.Sprintf("RESPONSE_CACHE_TOP_K must be positive, got %d", cfg.ResponseCacheCfg.TopK))
	}

	if cfg.MaxQuestionLength < 1 {
		errors = append(errors, fmt.Sprintf("MAX_QUESTION_LENGTH must be positive, got %d", cfg.MaxQuestionLength))
	}

	if cfg.RetrievalCfg.TopK < 1 {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_TOP_K must be positive, got %d", cfg.RetrievalCfg.TopK))
	}

	if cfg.RetrievalCfg.MaxDistance <= 0 {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_MAX_DISTANCE must be positive, got %g", cfg.RetrievalCfg.MaxDistance))
	}

	if cfg.DocumentCacheCfg.TTL <= 0 {
		errors = append(errors, fmt.Sprintf("DOCUMENT_CACHE_TTL must be positive, got %s", cfg.DocumentCacheCfg.TTL))
	}

	switch cfg.RetrievalCfg.Backend {
	case BackendMemory, BackendQdrant:
	default:
		errors = append(errors, fmt.Sprintf("RETRIEVAL_BACKEND must be memory or qdrant, got %q", cfg.RetrievalCfg.Backend))
	}

	switch cfg.ResponseCacheCfg.Backend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required for the postgres response cache backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("RESPONSE_CACHE_BACKEND must be memory or postgres, got %q", cfg.ResponseCacheCfg.Backend))
	}

	switch cfg.DocumentCacheCfg.Backend {
	case BackendMemory, BackendBadger:
	default:
		errors = append(errors, fmt.Sprintf("DOCUMENT_CACHE_BACKEND must be memory or badger, got %q", cfg.DocumentCacheCfg.Backend))
	}

	if cfg.EmbeddingConnectorCfg.Retry.Attempts < 1 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_RETRY_ATTEMPTS must be at least 1, got %d", cfg.EmbeddingConnectorCfg.Retry.Attempts))
	}

	for name, stage := range map[string]StageConfig{"REASONING": cfg.LLMConnectorCfg.Reasoning, "FORMATTING": cfg.LLMConnectorCfg.Formatting} {
		if stage.Retry.Attempts < 1 {
			errors = append(errors, fmt.Sprintf("LLM_%s_RETRY_ATTEMPTS must be at least 1, got %d", name, stage.Retry.Attempts))
		}
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// ValidateTelegram checks the settings the bot binary needs.
func (c *TelegramConfig) ValidateTelegram() error {
	if c.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.RateLimitPerMinute < 1 || c.RateLimitPerMinute > 60 {
		return fmt.Errorf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", c.RateLimitPerMinute)
	}
	if c.RateLimitBurst < 1 || c.RateLimitBurst > 20 {
		return fmt.Errorf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", c.RateLimitBurst)
	}
	if c.ShutdownTimeout < 1 || c.ShutdownTimeout > 300 {
		return fmt.Errorf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", c.ShutdownTimeout)
	}
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
