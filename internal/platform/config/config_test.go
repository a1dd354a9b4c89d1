package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.Ledger.HotspotLimit)
	assert.False(t, cfg.Ledger.StrictFactorWindows)
	assert.False(t, cfg.UsesPostgres())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GHG_ADDR", ":9090")
	t.Setenv("GHG_DATABASE_URL", "postgres://ledger@localhost/ledger")
	t.Setenv("GHG_LEDGER_STRICT_FACTOR_WINDOWS", "true")
	t.Setenv("GHG_REDIS_CACHE_TTL", "1m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.UsesPostgres())
	assert.True(t, cfg.Ledger.StrictFactorWindows)
	assert.Equal(t, time.Minute, cfg.Redis.CacheTTL)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7070\"\nledger:\n  hotspot_limit: 3\n"), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, 3, cfg.Ledger.HotspotLimit)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("GHG_LEDGER_HOTSPOT_LIMIT", "0")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "hotspot_limit")
}

func TestKafkaDisabledByDefault(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.PublishesAudit())
	assert.Equal(t, "ghgledger.audit.entries", cfg.Kafka.AuditTopic)
	assert.Equal(t, 7*24*time.Hour, cfg.Kafka.Retention)
}

func TestKafkaOverrides(t *testing.T) {
	t.Setenv("GHG_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("GHG_KAFKA_ACKS", "1")
	t.Setenv("GHG_KAFKA_POLL_INTERVAL", "2s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.PublishesAudit())
	assert.Equal(t, "1", cfg.Kafka.Acks)
	assert.Equal(t, 2*time.Second, cfg.Kafka.PollInterval)
}

func TestKafkaValidation(t *testing.T) {
	t.Setenv("GHG_KAFKA_BROKERS", "broker-1:9092")
	t.Setenv("GHG_KAFKA_ACKS", "leader")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "kafka.acks")
}
