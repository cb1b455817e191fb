package matcher

import (
	"math/rand/v2"
	"time"
)

const (
	DefaultCooldownMin = 10 * time.Second
	DefaultCooldownMax = 15 * time.Second
)

// Pauser blocks for a throttling pause and reports how long it waited.
type Pauser interface {
	Pause() time.Duration
}

// Cooldown sleeps a uniformly random whole number of seconds in [Min, Max].
type Cooldown struct {
	Min   time.Duration
	Max   time.Duration
	sleep func(time.Duration)
	intN  func(n int64) int64
}

func NewCooldown() *Cooldown {
	return &Cooldown{
		Min:   DefaultCooldownMin,
		Max:   DefaultCooldownMax,
		sleep: time.Sleep,
		intN:  rand.Int64N,
	}
}

func (c *Cooldown) Duration() time.Duration {
	minSec := int64(c.Min / time.Second)
	maxSec := int64(c.Max / time.Second)
	if maxSec <= minSec {
		return time.Duration(minSec) * time.Second
	}
	return time.Duration(minSec+c.intN(maxSec-minSec+1)) * time.Second
}

func (c *Cooldown) Pause() time.Duration {
	d := c.Duration()
	if d > 0 {
		c.sleep(d)
	}
	return d
}

// NoPause never waits.
type NoPause struct{}

func (NoPause) Pause() time.Duration { return 0 }
