package pace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(60, 2)

	// Burst of 2 is immediately available, the third action is not.
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestLimiterWaitRespectsContext(t *testing.T) {
	l := NewLimiter(1, 1) // one action per minute
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.Error(t, err, "Wait should fail once the context expires")
}

func TestNewLimiterDefaults(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.True(t, l.Allow(), "defaulted limiter must still grant actions")
}

func TestSleeperRange(t *testing.T) {
	s := NewSleeper(100*time.Millisecond, 300*time.Millisecond)

	var slept []time.Duration
	s.sleep = func(d time.Duration) {
		slept = append(slept, d)
	}

	for i := 0; i < 50; i++ {
		s.Pause()
	}

	require.Len(t, slept, 50)
	var distinct int
	for i, d := range slept {
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 300*time.Millisecond)
		if i > 0 && d != slept[0] {
			distinct++
		}
	}
	assert.Greater(t, distinct, 0, "pauses should be jittered, not constant")
}

func TestSleeperSettleDoublesRange(t *testing.T) {
	s := NewSleeper(100*time.Millisecond, 200*time.Millisecond)

	var got time.Duration
	s.sleep = func(d time.Duration) {
		got = d
	}

	s.Settle()
	assert.GreaterOrEqual(t, got, 200*time.Millisecond)
	assert.Less(t, got, 400*time.Millisecond)
}

func TestSleeperPauseBetween(t *testing.T) {
	s := NewSleeper(0, 0)

	var got time.Duration
	s.sleep = func(d time.Duration) {
		got = d
	}

	s.PauseBetween(2*time.Second, 4*time.Second)
	assert.GreaterOrEqual(t, got, 2*time.Second)
	assert.Less(t, got, 4*time.Second)
}

func TestSleeperSwappedBounds(t *testing.T) {
	// max below min clamps instead of panicking in rand.
	s := NewSleeper(500*time.Millisecond, 100*time.Millisecond)
	var got time.Duration
	s.sleep = func(d time.Duration) {
		got = d
	}
	s.Pause()
	assert.Equal(t, 500*time.Millisecond, got)
}
