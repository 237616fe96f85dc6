package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ist(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, IndiaLocation)
}

func TestIsMarketOpen(t *testing.T) {
	// Monday 2024-06-03
	assert.False(t, IsMarketOpen(ist(2024, 6, 3, 9, 0)), "pre-open")
	assert.True(t, IsMarketOpen(ist(2024, 6, 3, 9, 15)), "opening bell")
	assert.True(t, IsMarketOpen(ist(2024, 6, 3, 12, 0)), "midday")
	assert.True(t, IsMarketOpen(ist(2024, 6, 3, 15, 29)), "last minute")
	assert.False(t, IsMarketOpen(ist(2024, 6, 3, 15, 30)), "close")
	assert.False(t, IsMarketOpen(ist(2024, 6, 1, 12, 0)), "saturday")
	assert.False(t, IsMarketOpen(ist(2024, 6, 2, 12, 0)), "sunday")
}

func TestNextMarketOpen(t *testing.T) {
	// Before the bell on a weekday: same day
	next := NextMarketOpen(ist(2024, 6, 3, 8, 0))
	assert.Equal(t, ist(2024, 6, 3, 9, 15), next)

	// After the bell: next day
	next = NextMarketOpen(ist(2024, 6, 3, 10, 0))
	assert.Equal(t, ist(2024, 6, 4, 9, 15), next)

	// Friday evening skips the weekend
	next = NextMarketOpen(ist(2024, 6, 7, 16, 0))
	assert.Equal(t, ist(2024, 6, 10, 9, 15), next)
}

func TestMarketClose(t *testing.T) {
	assert.Equal(t, ist(2024, 6, 3, 15, 30), MarketClose(ist(2024, 6, 3, 11, 0)))
}
