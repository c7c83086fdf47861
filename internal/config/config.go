package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

var DefaultCORSOrigins = []string{
	"http://localhost",
	"http://localhost:5173",
	"http://localhost:3000",
}

type Config struct {
	ServerAddr string

	JWTSecret      []byte
	AccessTokenTTL time.Duration

	DatabaseURL    string
	PostgresDriver string

	LogLevel  string
	LogFormat string

	CORSOrigins  []string
	KafkaBrokers []string
	PostCacheTTL time.Duration
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() Config {
	origins := CSV(os.Getenv("CORS_ORIGINS"))
	if len(origins) == 0 {
		origins = append([]string(nil), DefaultCORSOrigins...)
	}

	return Config{
		ServerAddr: EnvDefault("SERVER_ADDR", ":8000"),

		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		AccessTokenTTL: time.Duration(EnvIntDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,

		DatabaseURL:    EnvDefault("DATABASE_URL", StorageMemory),
		PostgresDriver: EnvDefault("POSTGRES_DRIVER", "pgx"),

		LogLevel:  EnvDefault("LOG_LEVEL", "info"),
		LogFormat: EnvDefault("LOG_FORMAT", "json"),

		CORSOrigins:  origins,
		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		PostCacheTTL: EnvDurationDefault("POST_CACHE_TTL", 0),
	}
}

func (c Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) == 0 {
		errs = append(errs, errors.New("missing required env JWT_SECRET"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.Storage() == "" {
		errs = append(errs, errors.New("DATABASE_URL: unsupported scheme"))
	}
	if c.PostgresDriver != "pgx" && c.PostgresDriver != "postgres" {
		errs = append(errs, errors.New("POSTGRES_DRIVER must be pgx or postgres"))
	}
	return errors.Join(errs...)
}

// Storage reports which store DatabaseURL selects, or "" when the scheme is unknown.
func (c Config) Storage() string {
	u := strings.TrimSpace(c.DatabaseURL)
	switch {
	case u == "" || u == StorageMemory:
		return StorageMemory
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return StoragePostgres
	case strings.HasPrefix(u, "sqlite:"):
		return StorageSQLite
	default:
		return ""
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
