package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"finsight/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Oracle        OracleConfig
	DataStore     DataStoreConfig
	Pipeline      PipelineConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"finsight"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Port         int           `envconfig:"HTTP_PORT" default:"5000"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"5m"` // a query runs several oracle calls
}

// OracleConfig describes the text-generation provider and the outbound call policy.
type OracleConfig struct {
	Provider  string        `envconfig:"ORACLE_PROVIDER" default:"openai"` // openai | gemini
	OpenAIKey string        `envconfig:"OPENAI_API_KEY"`
	BaseURL   string        `envconfig:"ORACLE_BASE_URL"` // OpenAI-compatible endpoint, e.g. OpenRouter
	GeminiKey string        `envconfig:"GEMINI_API_KEY"`
	Timeout   time.Duration `envconfig:"ORACLE_TIMEOUT" default:"90s"`

	DefaultModel string `envconfig:"ORACLE_MODEL" default:"gpt-4o-mini"`
	MaxTokens    int    `envconfig:"ORACLE_MAX_TOKENS" default:"0"` // completion cap, 0 = provider default

	// Per-stage overrides, empty means DefaultModel
	IdentifierModel string `envconfig:"ORACLE_IDENTIFIER_MODEL"`
	ClassifierModel string `envconfig:"ORACLE_CLASSIFIER_MODEL"`
	PlannerModel    string `envconfig:"ORACLE_PLANNER_MODEL"`
	AgentModel      string `envconfig:"ORACLE_AGENT_MODEL"`

	MinRequestInterval time.Duration `envconfig:"ORACLE_MIN_REQUEST_INTERVAL" default:"500ms"`
	DistributedSpacing bool          `envconfig:"ORACLE_DISTRIBUTED_SPACING" default:"false"` // requires Redis

	Retry RetryConfig
}

// RetryConfig is the backoff policy applied to rate-limited oracle calls.
type RetryConfig struct {
	MaxAttempts int           `envconfig:"ORACLE_RETRY_MAX_ATTEMPTS" default:"10"`
	BaseDelay   time.Duration `envconfig:"ORACLE_RETRY_BASE_DELAY" default:"1s"`
	Multiplier  float64       `envconfig:"ORACLE_RETRY_MULTIPLIER" default:"2"`
	MaxDelay    time.Duration `envconfig:"ORACLE_RETRY_MAX_DELAY" default:"2m"`
}

// ModelFor returns the configured model for a stage override, falling back to the default model.
func (c OracleConfig) ModelFor(override string) string {
	if override != "" {
		return override
	}
	return c.DefaultModel
}

// DataStoreConfig points Data Resolution at the statements service.
// An empty URL wires the in-process statement service instead of HTTP.
type DataStoreConfig struct {
	URL            string        `envconfig:"DATASTORE_URL"`
	Timeout        time.Duration `envconfig:"DATASTORE_TIMEOUT" default:"10s"`
	MaxConcurrency int           `envconfig:"DATASTORE_MAX_CONCURRENCY" default:"8"`
	CacheTTL       time.Duration `envconfig:"DATASTORE_CACHE_TTL" default:"10m"`
}

type PipelineConfig struct {
	// FlatRecordInput switches non-chart agents to ticker -> field -> value input
	FlatRecordInput bool `envconfig:"PIPELINE_FLAT_RECORD_INPUT" default:"false"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig is optional: an empty host disables the statement cache and distributed spacing.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// KafkaConfig is optional: no brokers means query events are not published.
type KafkaConfig struct {
	Brokers    []string `envconfig:"KAFKA_BROKERS"`
	QueryTopic string   `envconfig:"KAFKA_QUERY_TOPIC" default:"finsight.query.events"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case "openai":
		if c.Oracle.OpenAIKey == "" {
			return errors.NewValidationError("OPENAI_API_KEY", "required for openai provider", "")
		}
	case "gemini":
		if c.Oracle.GeminiKey == "" {
			return errors.NewValidationError("GEMINI_API_KEY", "required for gemini provider", "")
		}
	default:
		return errors.NewValidationError("ORACLE_PROVIDER", "unsupported provider", c.Oracle.Provider)
	}

	if c.Oracle.DistributedSpacing && !c.Redis.Enabled() {
		return errors.NewValidationError("ORACLE_DISTRIBUTED_SPACING", "requires REDIS_HOST", true)
	}
	if c.Oracle.Retry.MaxAttempts < 1 {
		return errors.NewValidationError("ORACLE_RETRY_MAX_ATTEMPTS", "must be at least 1", c.Oracle.Retry.MaxAttempts)
	}
	return nil
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
