package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "mobile-shop", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 1024, cfg.EventQueueSize)
	assert.Equal(t, 8, cfg.EventFanout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "shop-test")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("SHUTDOWN_TIMEOUT", "3")
	t.Setenv("EVENT_QUEUE_SIZE", "64")
	t.Setenv("EVENT_FANOUT", "2")

	cfg := Load()
	assert.Equal(t, "shop-test", cfg.ServiceName)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 64, cfg.EventQueueSize)
	assert.Equal(t, 2, cfg.EventFanout)
}

func TestLoadIgnoresGarbageNumbers(t *testing.T) {
	t.Setenv("EVENT_QUEUE_SIZE", "not-a-number")

	cfg := Load()
	assert.Equal(t, 1024, cfg.EventQueueSize)
}
