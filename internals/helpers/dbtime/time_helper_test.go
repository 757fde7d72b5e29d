package dbtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeLeftTakesTheEarlierLimit(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(10 * time.Minute)

	assert.Equal(t, 50*time.Minute, TimeLeft(start, start.Add(3*time.Hour), 60, now))
	assert.Equal(t, 5*time.Minute, TimeLeft(start, now.Add(5*time.Minute), 60, now))
	assert.Equal(t, -time.Minute, TimeLeft(start, now.Add(-time.Minute), 60, now))
}

func TestSubSecondRemainderIsNotExpired(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	now := start.Add(time.Hour - 900*time.Millisecond)

	assert.Equal(t, 0, RemainingSeconds(start, end, 60, now))
	assert.False(t, Expired(start, end, 60, now))

	assert.True(t, Expired(start, end, 60, start.Add(time.Hour)))
	assert.True(t, Expired(start, end, 60, start.Add(2*time.Hour)))
	assert.Equal(t, 0, RemainingSeconds(start, end, 60, start.Add(2*time.Hour)))
	assert.Equal(t, 59, RemainingSeconds(start, end, 1, start.Add(500*time.Millisecond)))
}
