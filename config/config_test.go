package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ROUTING_SWEEP_ENABLED", "")
	t.Setenv("ROUTING_SWEEP_BATCH", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.True(t, cfg.RoutingSweepEnabled)
	assert.Equal(t, 50, cfg.RoutingSweepBatch)
	assert.Equal(t, "*/15 * * * *", cfg.RoutingSweepSpec)
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG_ON", "yes")
	t.Setenv("FLAG_OFF", "0")
	t.Setenv("FLAG_BAD", "maybe")

	assert.True(t, getEnvBool("FLAG_ON", false))
	assert.False(t, getEnvBool("FLAG_OFF", true))
	assert.True(t, getEnvBool("FLAG_BAD", true))
	assert.False(t, getEnvBool("FLAG_MISSING", false))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("BATCH_OK", "12")
	t.Setenv("BATCH_BAD", "-3")

	assert.Equal(t, 12, getEnvInt("BATCH_OK", 1))
	assert.Equal(t, 7, getEnvInt("BATCH_BAD", 7))
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())
}
