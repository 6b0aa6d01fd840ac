package planner

import (
	"time"

	"meal-rotation/internal/history"
)

const secondsPerWeek = 7 * 24 * 60 * 60

// CurrentWeek returns floor(days since the Unix epoch / 7) for now.
func CurrentWeek(now time.Time) history.WeekIndex {
	secs := now.Unix()
	week := secs / secondsPerWeek
	if secs%secondsPerWeek < 0 {
		week--
	}
	return history.WeekIndex(week)
}

// WeekStart returns the UTC instant at which week begins.
func WeekStart(week history.WeekIndex) time.Time {
	return time.Unix(int64(week)*secondsPerWeek, 0).UTC()
}
