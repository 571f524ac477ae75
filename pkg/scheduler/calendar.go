package scheduler

import "time"

// IsWorkingDay reports whether t falls on Monday through Friday
func IsWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddWorkingDays returns the instant reached by stepping forward from start
// one calendar day at a time until days working days have been counted.
// Saturdays and Sundays are skipped. The time of day is kept.
func AddWorkingDays(start time.Time, days int) time.Time {
	if days <= 0 {
		return start
	}
	// from a weekend, counting proceeds exactly as from the Friday before
	result := start
	switch result.Weekday() {
	case time.Saturday:
		result = result.AddDate(0, 0, -1)
	case time.Sunday:
		result = result.AddDate(0, 0, -2)
	}

	// five working days from a weekday is always one calendar week
	result = result.AddDate(0, 0, days/5*7)
	for added := 0; added < days%5; {
		result = result.AddDate(0, 0, 1)
		if IsWorkingDay(result) {
			added++
		}
	}
	return result
}

// DayAfter reports whether t falls on a calendar day later than deadline's
func DayAfter(t, deadline time.Time) bool {
	return truncateDay(t).After(truncateDay(deadline.In(t.Location())))
}

func sameDay(t, other time.Time) bool {
	return truncateDay(t).Equal(truncateDay(other.In(t.Location())))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
