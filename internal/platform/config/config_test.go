package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PASSPORT_PROPOSE_TIMEOUT", "")
	t.Setenv("PASSPORT_ACCEPT_TIMEOUT", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PASSPORT_RATE_LIMIT", "")
	t.Setenv("PASSPORT_RATE_LIMIT_WINDOW", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultProposeTimeout, cfg.ProposeTimeout)
	assert.Equal(t, DefaultAcceptTimeout, cfg.AcceptTimeout)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "passport.events", cfg.Kafka.Topic)
	assert.Equal(t, 120, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PASSPORT_PROPOSE_TIMEOUT", "90m")
	t.Setenv("PASSPORT_ACCEPT_TIMEOUT", "2h")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.ProposeTimeout)
	assert.Equal(t, 2*time.Hour, cfg.AcceptTimeout)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnvRejectsBadTimeouts(t *testing.T) {
	t.Run("unparseable", func(t *testing.T) {
		t.Setenv("PASSPORT_PROPOSE_TIMEOUT", "soon")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("non-positive", func(t *testing.T) {
		t.Setenv("PASSPORT_ACCEPT_TIMEOUT", "0s")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
