package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindow_AllowsUpToLimit(t *testing.T) {
	w := NewSlidingWindow(10*time.Second, 60)
	base := time.Now()

	for i := 0; i < 60; i++ {
		assert.True(t, w.Allow(base.Add(time.Duration(i)*time.Millisecond)), "message %d should be allowed", i+1)
	}
	assert.False(t, w.Allow(base.Add(100*time.Millisecond)), "61st message within the window must be rejected")
}

func TestSlidingWindow_SpacedMessagesNeverTrip(t *testing.T) {
	w := NewSlidingWindow(10*time.Second, 60)
	base := time.Now()

	for i := 0; i < 200; i++ {
		now := base.Add(time.Duration(i) * 11 * time.Second)
		assert.True(t, w.Allow(now), "message %d spaced beyond the window must pass", i+1)
		assert.Equal(t, 1, w.Len())
	}
}

func TestSlidingWindow_OldEntriesExpire(t *testing.T) {
	w := NewSlidingWindow(10*time.Second, 60)
	base := time.Now()

	for i := 0; i < 60; i++ {
		w.Allow(base)
	}
	assert.False(t, w.Allow(base.Add(time.Second)))

	// The whole burst falls out of the trailing window.
	assert.True(t, w.Allow(base.Add(11*time.Second)))
	assert.Equal(t, 1, w.Len())
}
