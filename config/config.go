// Package config holds the tunable timing constants shared by the Raft
// core and the gateway. It generalizes the teacher's package-level
// MinimumElectionTimeoutMs tunable into a struct so tests can override it
// per-instance instead of mutating process-global state.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries the timing knobs named in spec.md §6 ("Configuration
// constants"). LowerTimeout/UpperTimeout bound the randomized election
// timer (§4.1.1); HeartbeatRate is the leader's heartbeat period (§4.1.3).
type Config struct {
	LowerTimeout  time.Duration
	UpperTimeout  time.Duration
	HeartbeatRate time.Duration
}

// Default returns the production configuration. LowerTimeout is roughly
// 10x HeartbeatRate, matching spec.md's "Typical ratios" guidance.
func Default() Config {
	return Config{
		LowerTimeout:  1600 * time.Millisecond,
		UpperTimeout:  3200 * time.Millisecond,
		HeartbeatRate: 150 * time.Millisecond,
	}
}

// FromEnv overlays environment variable overrides on top of Default, for
// deployments that need tighter or looser timing than the compiled-in
// defaults (e.g. a single-host integration test harness).
func FromEnv() Config {
	cfg := Default()
	if v, ok := durationFromEnv("RAFTKV_LOWER_TIMEOUT_MS"); ok {
		cfg.LowerTimeout = v
	}
	if v, ok := durationFromEnv("RAFTKV_UPPER_TIMEOUT_MS"); ok {
		cfg.UpperTimeout = v
	}
	if v, ok := durationFromEnv("RAFTKV_HEARTBEAT_RATE_MS"); ok {
		cfg.HeartbeatRate = v
	}
	return cfg
}

func durationFromEnv(name string) (time.Duration, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// QuorumReadCleanup is how long a gateway lets a QuorumReadState sit
// outstanding before discarding it unanswered (spec.md §4.2.1: "2 ·
// HEARTBIT_RATE").
func (c Config) QuorumReadCleanup() time.Duration {
	return 2 * c.HeartbeatRate
}
