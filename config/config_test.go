package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1600*time.Millisecond, cfg.LowerTimeout)
	assert.Equal(t, 3200*time.Millisecond, cfg.UpperTimeout)
	assert.Equal(t, 150*time.Millisecond, cfg.HeartbeatRate)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("RAFTKV_LOWER_TIMEOUT_MS", "100")
	t.Setenv("RAFTKV_UPPER_TIMEOUT_MS", "200")
	t.Setenv("RAFTKV_HEARTBEAT_RATE_MS", "10")

	cfg := FromEnv()
	assert.Equal(t, 100*time.Millisecond, cfg.LowerTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.UpperTimeout)
	assert.Equal(t, 10*time.Millisecond, cfg.HeartbeatRate)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("RAFTKV_LOWER_TIMEOUT_MS", "not-a-number")
	cfg := FromEnv()
	assert.Equal(t, Default().LowerTimeout, cfg.LowerTimeout)
}

func TestQuorumReadCleanup(t *testing.T) {
	cfg := Config{HeartbeatRate: 150 * time.Millisecond}
	assert.Equal(t, 300*time.Millisecond, cfg.QuorumReadCleanup())
}
