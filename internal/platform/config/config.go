package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

// Server captures process level configuration.
type Server struct {
	Addr           string `env:"SECURE_UPDATE_ADDR" envDefault:":8080"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`
	// DatabaseDriver selects the database/sql driver for the postgres
	// backend: "postgres" (lib/pq) or "pgx".
	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"secure-update.db"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`

	Redis     RedisConfig
	Auth      AuthConfig
	Audit     AuditConfig
	Integrity IntegrityConfig
}

// RedisConfig configures the Redis registry backend.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// AuthConfig configures caller token validation and the admin policy.
type AuthConfig struct {
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"secure-update"`
	JWTAudience   string `env:"JWT_AUDIENCE" envDefault:"secure-update"`
	// AdminIdentities are accepted in addition to the instantiating admin.
	AdminIdentities []string `env:"ADMIN_IDENTITIES" envSeparator:","`
}

// AuditConfig configures the audit stream. With no brokers events stay in
// process memory.
type AuditConfig struct {
	KafkaBrokers  []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic         string        `env:"AUDIT_TOPIC" envDefault:"secure-update.audit"`
	BufferSize    int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1024"`
	FlushInterval time.Duration `env:"AUDIT_FLUSH_INTERVAL" envDefault:"500ms"`
}

// IntegrityConfig toggles optional validator checks.
type IntegrityConfig struct {
	RequireCID bool `env:"INTEGRITY_REQUIRE_CID" envDefault:"false"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "pgx" {
			return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}
