package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"APP_ENV", "HTTP_ADDR", "STORAGE", "MONGO_URI", "MONGO_DB", "KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX",
	"KAFKA_GROUP_ID", "IDEMP_TTL", "OUTBOX_POLL_INTERVAL", "RETRY_BACKOFF", "WRITE_TIMEOUT",
	"METRICS_ENABLED", "GROUP_PARALLELISM", "ROOMS_FIXTURES", "CORS_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 168*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 4, cfg.GroupParallelism)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromEnvMongoRequiresConnections(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", "Mongo")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "MONGO_URI")

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "KAFKA_BROKERS")

	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"STORAGE":           "redis",
		"IDEMP_TTL":         "soon",
		"RETRY_BACKOFF":     "1s,later",
		"METRICS_ENABLED":   "maybe",
		"GROUP_PARALLELISM": "-2",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("HTTP_ADDR")
	os.Unsetenv("KAFKA_TOPIC_PREFIX")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9090\nKAFKA_TOPIC_PREFIX=hotel\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("KAFKA_TOPIC_PREFIX")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "hotel.stay.created", cfg.Topic("stay.created"))
}

func TestLoadWithoutEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
