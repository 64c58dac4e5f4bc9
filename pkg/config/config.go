// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Parser, Namespaces, Postgres, Kafka, Redis, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Parser     ParserConfig     `yaml:"parser"`
	Namespaces NamespacesConfig `yaml:"namespaces"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// ParserConfig mirrors the query parser options. Features lists the keyword
// features to enable; empty means all built-ins.
type ParserConfig struct {
	QuestionMarkStripLevel    string   `yaml:"questionMarkStripLevel"`
	QMarkExemptPrefixes       []string `yaml:"qmarkExemptPrefixes"`
	CaseInsensitiveNamespaces bool     `yaml:"caseInsensitiveNamespaces"`
	Language                  string   `yaml:"language"`
	MaxQueryLength            int      `yaml:"maxQueryLength"`
	LengthExemptKeywords      []string `yaml:"lengthExemptKeywords"`
	Features                  []string `yaml:"features"`
}

// NamespacesConfig seeds the namespace table. With FromPostgres the table is
// also loaded from the database and refreshed every RefreshInterval.
type NamespacesConfig struct {
	Names           map[string]int `yaml:"names"`
	FromPostgres    bool           `yaml:"fromPostgres"`
	RefreshInterval time.Duration  `yaml:"refreshInterval"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	ParseEvents string `yaml:"parseEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AnalyticsConfig controls the parse-event aggregator.
type AnalyticsConfig struct {
	Port             int           `yaml:"port"`
	TopQueries       int           `yaml:"topQueries"`
	LatencySamples   int           `yaml:"latencySamples"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
	BufferSize       int           `yaml:"bufferSize"`
}

// RateLimitConfig is a per-client token bucket: Requests per Window.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			RequestTimeout:  2 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Parser: ParserConfig{
			QuestionMarkStripLevel: "final",
			QMarkExemptPrefixes:    []string{"insource:/", "intitle:/"},
			MaxQueryLength:         300,
			LengthExemptKeywords:   []string{"incategory", "articletopic"},
		},
		Namespaces: NamespacesConfig{
			Names: map[string]int{
				"Media": -2, "Special": -1, "Talk": 1, "User": 2, "User talk": 3,
				"Project": 4, "Project talk": 5, "File": 6, "File talk": 7,
				"Template": 10, "Template talk": 11, "Help": 12, "Help talk": 13,
				"Category": 14, "Category talk": 15,
			},
			RefreshInterval: 5 * time.Minute,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "queryparser",
			User:            "queryparser",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "queryparser-analytics",
			Topics: KafkaTopics{
				ParseEvents: "query-parse-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			Port:             8081,
			TopQueries:       20,
			LatencySamples:   10000,
			SnapshotInterval: time.Minute,
			BufferSize:       1024,
		},
		RateLimit: RateLimitConfig{
			Requests: 600,
			Window:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate checks the fields the services cannot run without. Parser options
// are validated again, in depth, when the parser is built.
func (c *Config) Validate() error {
	switch c.Parser.QuestionMarkStripLevel {
	case "", "none", "final", "break", "all":
	default:
		return fmt.Errorf("%w: parser.questionMarkStripLevel %q", ErrInvalid, c.Parser.QuestionMarkStripLevel)
	}
	if c.Parser.MaxQueryLength < 0 {
		return fmt.Errorf("%w: parser.maxQueryLength must not be negative", ErrInvalid)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d", ErrInvalid, c.Server.Port)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("%w: rateLimit needs positive requests and window", ErrInvalid)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers is empty", ErrInvalid)
	}
	for name := range c.Namespaces.Names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: blank namespace name", ErrInvalid)
		}
	}
	return nil
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	envInt("SP_SERVER_PORT", &cfg.Server.Port)
	envString("SP_PARSER_QMARK_STRIP_LEVEL", &cfg.Parser.QuestionMarkStripLevel)
	envString("SP_PARSER_LANGUAGE", &cfg.Parser.Language)
	envInt("SP_PARSER_MAX_QUERY_LENGTH", &cfg.Parser.MaxQueryLength)
	envBool("SP_PARSER_CASE_INSENSITIVE_NAMESPACES", &cfg.Parser.CaseInsensitiveNamespaces)
	envList("SP_PARSER_FEATURES", &cfg.Parser.Features)
	envBool("SP_NAMESPACES_FROM_POSTGRES", &cfg.Namespaces.FromPostgres)
	envString("SP_POSTGRES_HOST", &cfg.Postgres.Host)
	envInt("SP_POSTGRES_PORT", &cfg.Postgres.Port)
	envString("SP_POSTGRES_DATABASE", &cfg.Postgres.Database)
	envString("SP_POSTGRES_USER", &cfg.Postgres.User)
	envString("SP_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	envString("SP_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	envBool("SP_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	envList("SP_KAFKA_BROKERS", &cfg.Kafka.Brokers)
	envBool("SP_REDIS_ENABLED", &cfg.Redis.Enabled)
	envString("SP_REDIS_ADDR", &cfg.Redis.Addr)
	envString("SP_REDIS_PASSWORD", &cfg.Redis.Password)
	envBool("SP_RATELIMIT_ENABLED", &cfg.RateLimit.Enabled)
	envInt("SP_RATELIMIT_REQUESTS", &cfg.RateLimit.Requests)
	envInt("SP_ANALYTICS_PORT", &cfg.Analytics.Port)
	envString("SP_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("SP_LOGGING_FORMAT", &cfg.Logging.Format)
	envInt("SP_METRICS_PORT", &cfg.Metrics.Port)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envList(key string, dst *[]string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		*dst = parts
	}
}
