package timer_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/raftkv/gateway/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTimerFiresWithinBounds(t *testing.T) {
	var fired int32
	start := time.Now()
	rt := timer.NewRandomTimer(10*time.Millisecond, 20*time.Millisecond, func() {
		atomic.StoreInt32(&fired, 1)
	})
	defer rt.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, 200*time.Millisecond, 2*time.Millisecond)

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 9*time.Millisecond)
}

func TestRandomTimerResetDelaysFire(t *testing.T) {
	var fired int32
	rt := timer.NewRandomTimer(30*time.Millisecond, 40*time.Millisecond, func() {
		atomic.StoreInt32(&fired, 1)
	})
	defer rt.Stop()

	time.Sleep(15 * time.Millisecond)
	rt.Reset()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired), "reset should have delayed the fire past the original deadline")
}

func TestRandomTimerStopPreventsFire(t *testing.T) {
	var fired int32
	rt := timer.NewRandomTimer(5*time.Millisecond, 10*time.Millisecond, func() {
		atomic.StoreInt32(&fired, 1)
	})
	rt.Stop()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestHeartbeatTimerFiresRepeatedly(t *testing.T) {
	var count int32
	ht := timer.NewHeartbeatTimer(5*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})
	defer ht.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) >= 3
	}, 200*time.Millisecond, 2*time.Millisecond)
}

func TestHeartbeatTimerStopHaltsCallbacks(t *testing.T) {
	var count int32
	ht := timer.NewHeartbeatTimer(5*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})
	time.Sleep(20 * time.Millisecond)
	ht.Stop()
	after := atomic.LoadInt32(&count)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&count))
}
