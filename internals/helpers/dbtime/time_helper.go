package dbtime

import (
	"math"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = func() time.Time { return time.Now().UTC() }
)

// Now is the clock every service reads; tests swap it with SetClock.
func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

// SetClock replaces the clock and returns a restore func.
func SetClock(fn func() time.Time) (restore func()) {
	mu.Lock()
	prev := nowFunc
	nowFunc = fn
	mu.Unlock()
	return func() {
		mu.Lock()
		nowFunc = prev
		mu.Unlock()
	}
}

// TimeLeft is the unrounded time an attempt has left: the smaller of the
// per-attempt duration and the exam window. It goes negative once over.
func TimeLeft(startedAt, examEnd time.Time, durationMinutes int, now time.Time) time.Duration {
	byDuration := startedAt.Add(time.Duration(durationMinutes) * time.Minute).Sub(now)
	byWindow := examEnd.Sub(now)
	if byWindow < byDuration {
		return byWindow
	}
	return byDuration
}

// Expired reports whether no time at all is left; a fraction of a second still counts.
func Expired(startedAt, examEnd time.Time, durationMinutes int, now time.Time) bool {
	return TimeLeft(startedAt, examEnd, durationMinutes, now) <= 0
}

// RemainingSeconds is TimeLeft in whole seconds for display, floored at zero.
func RemainingSeconds(startedAt, examEnd time.Time, durationMinutes int, now time.Time) int {
	left := math.Floor(TimeLeft(startedAt, examEnd, durationMinutes, now).Seconds())
	if left < 0 {
		return 0
	}
	return int(left)
}

func Ptr(t time.Time) *time.Time { return &t }
