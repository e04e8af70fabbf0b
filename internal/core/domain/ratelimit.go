package domain

import "time"

// SlidingWindow is a fixed-window-with-retroactive-trim message counter:
// bursts are limited to the cap within any trailing window, not smoothed
// like a token bucket. It lives inside the owning Session and is only
// touched by that connection's handler goroutine, so it needs no locking.
type SlidingWindow struct {
	window time.Duration
	limit  int
	stamps []time.Time
}

// NewSlidingWindow builds a window counter with the given span and cap.
func NewSlidingWindow(window time.Duration, limit int) *SlidingWindow {
	return &SlidingWindow{window: window, limit: limit}
}

// Allow records an event at now and reports whether the trailing window
// is still within the cap. Entries older than the window are dropped
// before counting.
func (w *SlidingWindow) Allow(now time.Time) bool {
	w.stamps = append(w.stamps, now)

	cutoff := now.Add(-w.window)
	trim := 0
	for trim < len(w.stamps) && !w.stamps[trim].After(cutoff) {
		trim++
	}
	if trim > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[trim:]...)
	}

	return len(w.stamps) <= w.limit
}

// Len returns the number of events currently inside the window.
func (w *SlidingWindow) Len() int {
	return len(w.stamps)
}
