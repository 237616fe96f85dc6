// Package utils provides shared utility functions.
package utils

import (
	"time"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// IsMarketOpen reports whether the NSE cash market trades at t
// (9:15 to 15:30 IST on weekdays).
func IsMarketOpen(t time.Time) bool {
	local := t.In(IndiaLocation)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= 555 && minutes < 930
}

// NextMarketOpen returns the first market opening time at or after t.
func NextMarketOpen(t time.Time) time.Time {
	local := t.In(IndiaLocation)

	next := time.Date(local.Year(), local.Month(), local.Day(), 9, 15, 0, 0, IndiaLocation)
	if local.After(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// MarketClose returns the market close time on the day of t.
func MarketClose(t time.Time) time.Time {
	local := t.In(IndiaLocation)
	return time.Date(local.Year(), local.Month(), local.Day(), 15, 30, 0, 0, IndiaLocation)
}
