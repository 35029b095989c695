package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMemoryModeDefaults(t *testing.T) {
	t.Setenv("STORAGE_MODE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.StorageMode)
	assert.Equal(t, 10.0, cfg.FallbackHktPerUsd)
	assert.Equal(t, time.Minute, cfg.RateRefreshEvery)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
}

func TestLoadMongoModeRequiresExternalServices(t *testing.T) {
	t.Setenv("STORAGE_MODE", "mongo")
	t.Setenv("MONGO_URI", "")
	t.Setenv("KAFKA_BROKERS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")

	t.Setenv("KAFKA_BROKERS", "localhost:9092,localhost:9093")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.KafkaBrokers)
}

func TestLoadRejectsNonPositiveFallbackRate(t *testing.T) {
	t.Setenv("STORAGE_MODE", "memory")
	t.Setenv("RATE_FALLBACK_HKT_PER_USD", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownStorageMode(t *testing.T) {
	t.Setenv("STORAGE_MODE", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadParsesDurationsAndRate(t *testing.T) {
	t.Setenv("STORAGE_MODE", "memory")
	t.Setenv("RATE_REFRESH_EVERY", "30s")
	t.Setenv("RATE_FALLBACK_HKT_PER_USD", "12.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RateRefreshEvery)
	assert.Equal(t, 12.5, cfg.FallbackHktPerUsd)
}
