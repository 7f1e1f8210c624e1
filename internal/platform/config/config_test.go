package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "secure-update.audit", cfg.Audit.Topic)
	assert.Equal(t, 500*time.Millisecond, cfg.Audit.FlushInterval)
	assert.False(t, cfg.Integrity.RequireCID)
	assert.Empty(t, cfg.Audit.KafkaBrokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SECURE_UPDATE_ADDR", ":9090")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REDIS_POOL_SIZE", "32")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ADMIN_IDENTITIES", "ops,backup")
	t.Setenv("INTEGRITY_REQUIRE_CID", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, 32, cfg.Redis.PoolSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.KafkaBrokers)
	assert.Equal(t, []string{"ops", "backup"}, cfg.Auth.AdminIdentities)
	assert.True(t, cfg.Integrity.RequireCID)
}

func TestFromEnvRejectsIncompleteBackends(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{"postgres without url", BackendPostgres},
		{"redis without url", BackendRedis},
		{"unknown backend", "etcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORAGE_BACKEND", tt.backend)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnvDatabaseDriver(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", BackendPostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/registry")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)

	t.Setenv("DATABASE_DRIVER", "pgx")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)

	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err = FromEnv()
	assert.Error(t, err)
}
