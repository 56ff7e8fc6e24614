// Package pace spaces out device actions so automated sessions keep a
// human rhythm. A token-bucket limiter caps actions per minute while the
// sleeper inserts randomized gaps between individual UI interactions.
package pace

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Limiter caps the number of device actions per minute.
type Limiter struct {
	rl *rate.Limiter
}

// NewLimiter creates a limiter allowing actionsPerMinute sustained actions
// with the given burst.
func NewLimiter(actionsPerMinute, burst int) *Limiter {
	if actionsPerMinute <= 0 {
		actionsPerMinute = 40
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Minute / time.Duration(actionsPerMinute)
	return &Limiter{rl: rate.NewLimiter(rate.Every(interval), burst)}
}

// Wait blocks until the next action is allowed or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// Allow reports whether an action may proceed right now without waiting.
func (l *Limiter) Allow() bool {
	return l.rl.Allow()
}

// Sleeper produces randomized pauses in a configured range. Uniform delays
// between taps and swipes are a well-known automation fingerprint, so every
// pause gets its own jitter.
//
// Pauses always run to completion: they cover app rendering latency, and
// shutdown is only observed between discrete crawl steps, never mid-wait.
type Sleeper struct {
	min   time.Duration
	max   time.Duration
	rnd   *rand.Rand
	sleep func(d time.Duration)
}

// NewSleeper creates a sleeper pausing between min and max per call.
func NewSleeper(min, max time.Duration) *Sleeper {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Sleeper{
		min:   min,
		max:   max,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: time.Sleep,
	}
}

// Pause sleeps for a random duration in the configured range.
func (s *Sleeper) Pause() {
	s.sleep(s.pick(s.min, s.max))
}

// Settle pauses at twice the configured range. Navigations cost more
// human attention than taps, and the opened screen needs time to render.
func (s *Sleeper) Settle() {
	s.PauseBetween(2*s.min, 2*s.max)
}

// PauseBetween sleeps for a random duration in [min, max], ignoring the
// configured range.
func (s *Sleeper) PauseBetween(min, max time.Duration) {
	if max < min {
		max = min
	}
	s.sleep(s.pick(min, max))
}

func (s *Sleeper) pick(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(s.rnd.Int63n(int64(max-min)))
}
