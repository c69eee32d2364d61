package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	DefaultPort           = 3000
	DefaultSQLiteURL      = "file:reactions?mode=memory&cache=shared"
	DefaultRedisURL       = "redis://localhost:6379/0"
	DefaultRedisPrefix    = "reactions"
	DefaultAMQPQueue      = "votes"
	DefaultAllowedOrigin  = "http://localhost:8000"
	DefaultAllowedHeaders = "Origin, X-Requested-With, Content-Type, Accept"
)

type Config struct {
	Port           int
	StoreBackend   string
	DatabaseURL    string
	RedisURL       string
	RedisPrefix    string
	AMQPURL        string
	AMQPQueue      string
	AllowedOrigin  string
	AllowedHeaders []string
	LogFormat      string
}

// LoadEnv loads variables from the file named by ENV_FILE (default .env).
// A missing file is not an error; variables already set are kept.
func LoadEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var headers string

	fs := flag.NewFlagSet("reactionsbackend", flag.ContinueOnError)

	// Network config
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.AllowedOrigin, "cors-origin", "", "Origin allowed to call the API")
	fs.StringVar(&headers, "cors-headers", "", "Comma separated request headers allowed cross-origin")

	// Storage
	fs.StringVar(&cfg.StoreBackend, "store", "", "Store backend (memory, sqlite, postgres or redis)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL for the sqlite and postgres backends")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for the redis backend")
	fs.StringVar(&cfg.RedisPrefix, "redis-prefix", "", "Key prefix for the redis backend")

	// Vote events
	fs.StringVar(&cfg.AMQPURL, "amqp", "", "RabbitMQ URL (empty disables vote events)")
	fs.StringVar(&cfg.AMQPQueue, "amqp-queue", "", "RabbitMQ queue for vote events")

	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}

	cfg.StoreBackend = strings.ToLower(envOr(cfg.StoreBackend, "STORE_BACKEND", StoreMemory))
	switch cfg.StoreBackend {
	case StoreMemory, StoreRedis:
	case StoreSQLite:
		cfg.DatabaseURL = envOr(cfg.DatabaseURL, "DATABASE_URL", DefaultSQLiteURL)
	case StorePostgres:
		cfg.DatabaseURL = envOr(cfg.DatabaseURL, "DATABASE_URL", "")
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
	default:
		return Config{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	cfg.RedisURL = envOr(cfg.RedisURL, "REDIS_URL", DefaultRedisURL)
	cfg.RedisPrefix = envOr(cfg.RedisPrefix, "REDIS_PREFIX", DefaultRedisPrefix)

	cfg.AMQPURL = envOr(cfg.AMQPURL, "RABBITMQ_URL", "")
	cfg.AMQPQueue = envOr(cfg.AMQPQueue, "RABBITMQ_QUEUE", DefaultAMQPQueue)

	cfg.AllowedOrigin = envOr(cfg.AllowedOrigin, "CORS_ALLOWED_ORIGIN", DefaultAllowedOrigin)
	cfg.AllowedHeaders = splitList(envOr(headers, "CORS_ALLOWED_HEADERS", DefaultAllowedHeaders))

	cfg.LogFormat = strings.ToLower(envOr(cfg.LogFormat, "LOG_FORMAT", LogFormatText))
	if cfg.LogFormat != LogFormatText && cfg.LogFormat != LogFormatJSON {
		return Config{}, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	return cfg, nil
}

// envOr returns v, else the env variable, else def
func envOr(v, key, def string) string {
	if v != "" {
		return v
	}
	if e := os.Getenv(key); e != "" {
		return e
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
