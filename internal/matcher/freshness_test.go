package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshnessGate(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	cat := newFakeCatalog()
	cat.updated[1] = now.Add(-6 * 24 * time.Hour)
	cat.updated[2] = now.Add(-8 * 24 * time.Hour)
	cat.updated[3] = now.Add(-FreshnessWindow)

	g := NewFreshnessGate(cat)
	g.now = func() time.Time { return now }

	tests := []struct {
		name string
		aid  int
		want bool
	}{
		{"six days old", 1, true},
		{"eight days old", 2, false},
		{"exactly one window", 3, false},
		{"no rows", 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh, err := g.IsFreshEnough(context.Background(), tt.aid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fresh)
		})
	}
}

func TestCooldownDuration(t *testing.T) {
	c := NewCooldown()
	var slept time.Duration
	c.sleep = func(d time.Duration) { slept = d }

	c.intN = func(n int64) int64 {
		assert.EqualValues(t, 6, n, "10..15 inclusive is six choices")
		return 0
	}
	assert.Equal(t, 10*time.Second, c.Pause())
	assert.Equal(t, 10*time.Second, slept)

	c.intN = func(n int64) int64 { return n - 1 }
	assert.Equal(t, 15*time.Second, c.Duration())

	c.Min, c.Max = 3*time.Second, 3*time.Second
	assert.Equal(t, 3*time.Second, c.Duration())
}

func TestCooldownRealRandomStaysInRange(t *testing.T) {
	c := NewCooldown()
	for i := 0; i < 200; i++ {
		d := c.Duration()
		assert.GreaterOrEqual(t, d, DefaultCooldownMin)
		assert.LessOrEqual(t, d, DefaultCooldownMax)
		assert.Zero(t, d%time.Second)
	}
}
