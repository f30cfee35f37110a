// Package config provides configuration management for the LitXplore service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the LitXplore service.
type Config struct {
	// Environment is the deployment environment (development, production).
	Environment string `mapstructure:"environment"`
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Auth contains token verification settings.
	Auth AuthConfig `mapstructure:"auth"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// LLM contains LLM client settings.
	LLM LLMConfig `mapstructure:"llm"`
	// ArXiv contains arXiv API client settings.
	ArXiv ArXivConfig `mapstructure:"arxiv"`
	// Uploads contains uploaded-document storage settings.
	Uploads UploadsConfig `mapstructure:"uploads"`
	// Analysis contains paper analysis settings.
	Analysis AnalysisConfig `mapstructure:"analysis"`
	// Chat contains paper chat settings.
	Chat ChatConfig `mapstructure:"chat"`
	// Kafka contains Kafka publisher settings for task lifecycle events.
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	// Streaming endpoints hold connections open, so this stays generous.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	// Default is "require" for production security. Use "disable" only for local development.
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 25).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 5).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// AuthConfig holds bearer-token verification settings.
type AuthConfig struct {
	// JWKSURL is the identity provider's JSON Web Key Set endpoint.
	JWKSURL string `mapstructure:"jwks_url"`
	// Issuer is the expected iss claim.
	Issuer string `mapstructure:"issuer"`
	// AuthorizedParties is the azp claim allow-list. Empty means any
	// party is accepted.
	AuthorizedParties []string `mapstructure:"authorized_parties"`
	// JWKSCacheTTL is how long fetched signing keys are reused before a
	// periodic refresh (default: 1h).
	JWKSCacheTTL time.Duration `mapstructure:"jwks_cache_ttl"`
	// FetchTimeout is the timeout for JWKS endpoint requests.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// LLMConfig holds LLM client configuration.
type LLMConfig struct {
	// Provider is the LLM provider (openai, gemini).
	Provider string `mapstructure:"provider"`
	// FallbackProvider optionally names a second provider used when the
	// primary exhausts its retries (empty disables fallback).
	FallbackProvider string `mapstructure:"fallback_provider"`
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// Temperature is the LLM temperature setting.
	Temperature float64 `mapstructure:"temperature"`
	// EmbeddingModel is the model for chat chunk embeddings.
	EmbeddingModel string `mapstructure:"embedding_model"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig `mapstructure:"openai"`
	// Gemini contains Google Gemini-specific settings.
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key (loaded from LITXPLORE_LLM_OPENAI_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Model is the OpenAI model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the OpenAI API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig holds Google Gemini-specific settings.
type GeminiConfig struct {
	// APIKey is the Gemini API key (loaded from LITXPLORE_LLM_GEMINI_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Model is the Gemini model name.
	Model string `mapstructure:"model"`
	// BaseURL is the Gemini API base URL.
	BaseURL string `mapstructure:"base_url"`
}

// ArXivConfig holds arXiv API client settings.
type ArXivConfig struct {
	// BaseURL is the arXiv export API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxResults is the maximum results per search query.
	MaxResults int `mapstructure:"max_results"`
	// MaxRetries is the number of attempts for a failing search.
	MaxRetries int `mapstructure:"max_retries"`
}

// UploadsConfig holds uploaded-document storage settings.
type UploadsConfig struct {
	// Dir is the directory uploaded PDFs are stored in.
	Dir string `mapstructure:"dir"`
	// MaxFileBytes caps uploaded PDF size (default: 15MB).
	MaxFileBytes int64 `mapstructure:"max_file_bytes"`
	// SweepAge is the age after which unclaimed uploads are deleted by
	// the periodic sweep. Zero disables sweeping.
	SweepAge time.Duration `mapstructure:"sweep_age"`
	// SweepInterval is how often the sweep runs.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// AnalysisConfig holds paper analysis settings.
type AnalysisConfig struct {
	// CacheTTL is how long generated analyses stay cached.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// ModelTag identifies the generating model in cache keys and
	// analysis records. Defaults to the configured LLM model.
	ModelTag string `mapstructure:"model_tag"`
	// AtAGlanceMaxChars caps the text sent to the at-a-glance prompt.
	AtAGlanceMaxChars int `mapstructure:"at_a_glance_max_chars"`
	// InDepthMaxChars caps the text sent to the in-depth prompt.
	InDepthMaxChars int `mapstructure:"in_depth_max_chars"`
}

// ChatConfig holds paper chat settings.
type ChatConfig struct {
	// ChunkSize is the splitter chunk size in characters.
	ChunkSize int `mapstructure:"chunk_size"`
	// ChunkOverlap is the splitter overlap in characters.
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	// TopK is the number of retrieved chunks per question.
	TopK int `mapstructure:"top_k"`
	// EmbedWorkers is the number of concurrent embedding workers.
	EmbedWorkers int `mapstructure:"embed_workers"`
	// StreamChunkChars is the size of streamed response pieces.
	StreamChunkChars int `mapstructure:"stream_chunk_chars"`
	// MaxMessageChars caps the user's chat message length.
	MaxMessageChars int `mapstructure:"max_message_chars"`
}

// KafkaConfig holds Kafka publisher settings for task lifecycle events.
type KafkaConfig struct {
	// Enabled controls whether Kafka publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic task events are published to.
	Topic string `mapstructure:"topic"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// IsDevelopment returns true for the development environment.
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Environment) == "development"
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("LITXPLORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/litxplore")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if cfg.Analysis.ModelTag == "" {
		cfg.Analysis.ModelTag = cfg.activeModel()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.LLM.OpenAI.APIKey = os.Getenv("LITXPLORE_LLM_OPENAI_API_KEY")
	cfg.LLM.Gemini.APIKey = os.Getenv("LITXPLORE_LLM_GEMINI_API_KEY")
}

// activeModel returns the model name of the configured primary provider.
func (c *Config) activeModel() string {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		return c.LLM.OpenAI.Model
	default:
		return c.LLM.Gemini.Model
	}
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "litxplore")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "litxplore")
	// Default to "require" for production security. Use LITXPLORE_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Auth defaults
	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.authorized_parties", []string{})
	v.SetDefault("auth.jwks_cache_ttl", "1h")
	v.SetDefault("auth.fetch_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// LLM defaults
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.fallback_provider", "")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.embedding_model", "text-embedding-3-small")
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")

	// arXiv defaults
	v.SetDefault("arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("arxiv.timeout", "30s")
	v.SetDefault("arxiv.rate_limit", 3.0) // arXiv recommends max 3 req/sec
	v.SetDefault("arxiv.max_results", 10)
	v.SetDefault("arxiv.max_retries", 3)

	// Uploads defaults
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_file_bytes", 15<<20)
	v.SetDefault("uploads.sweep_age", "24h")
	v.SetDefault("uploads.sweep_interval", "1h")

	// Analysis defaults
	v.SetDefault("analysis.cache_ttl", "24h")
	v.SetDefault("analysis.model_tag", "")
	v.SetDefault("analysis.at_a_glance_max_chars", 3000)
	v.SetDefault("analysis.in_depth_max_chars", 15000)

	// Chat defaults
	v.SetDefault("chat.chunk_size", 1000)
	v.SetDefault("chat.chunk_overlap", 200)
	v.SetDefault("chat.top_k", 5)
	v.SetDefault("chat.embed_workers", 4)
	v.SetDefault("chat.stream_chunk_chars", 100)
	v.SetDefault("chat.max_message_chars", 4000)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.tasks.litxplore")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	// Validate auth config
	if c.Auth.JWKSURL == "" {
		return fmt.Errorf("auth jwks_url is required")
	}
	if _, err := url.ParseRequestURI(c.Auth.JWKSURL); err != nil {
		return fmt.Errorf("invalid auth jwks_url: %w", err)
	}
	if c.Auth.Issuer == "" {
		return fmt.Errorf("auth issuer is required")
	}
	if c.Auth.JWKSCacheTTL <= 0 {
		return fmt.Errorf("auth jwks_cache_ttl must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate that the configured LLM provider has its required API key set.
	for _, provider := range []string{c.LLM.Provider, c.LLM.FallbackProvider} {
		switch strings.ToLower(provider) {
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return fmt.Errorf("LLM provider %q requires LITXPLORE_LLM_OPENAI_API_KEY to be set", provider)
			}
		case "gemini":
			if c.LLM.Gemini.APIKey == "" {
				return fmt.Errorf("LLM provider %q requires LITXPLORE_LLM_GEMINI_API_KEY to be set", provider)
			}
		case "":
			// Fallback provider is optional.
		default:
			return fmt.Errorf("unknown LLM provider: %s", provider)
		}
	}

	// Validate chat config
	if c.Chat.ChunkSize <= 0 {
		return fmt.Errorf("chat chunk_size must be positive")
	}
	if c.Chat.ChunkOverlap < 0 || c.Chat.ChunkOverlap >= c.Chat.ChunkSize {
		return fmt.Errorf("chat chunk_overlap must be in [0, chunk_size)")
	}
	if c.Chat.TopK <= 0 {
		return fmt.Errorf("chat top_k must be positive")
	}

	// Validate uploads config
	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads dir is required")
	}
	if c.Uploads.MaxFileBytes <= 0 {
		return fmt.Errorf("uploads max_file_bytes must be positive")
	}

	return nil
}
