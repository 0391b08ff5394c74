package valuation

import "time"

// DateFormat is the ISO-8601 calendar date layout used for return points
const DateFormat = "2006-01-02"

// TruncateToDay returns UTC midnight of the UTC calendar day containing t
// Every date the valuation compares goes through this function first, so window
// boundaries do not depend on the caller's time zone
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRange generates every UTC day from start to end, both inclusive
// Returns nil when end is before start
func DayRange(start, end time.Time) []time.Time {
	current := TruncateToDay(start)
	last := TruncateToDay(end)
	if last.Before(current) {
		return nil
	}

	days := make([]time.Time, 0, daysBetween(current, last)+1)
	for !current.After(last) {
		days = append(days, current)
		current = current.AddDate(0, 0, 1)
	}
	return days
}

// Window returns the inclusive [start, end] of a trailing window of n days ending on the day of end
func Window(end time.Time, n int) (time.Time, time.Time) {
	last := TruncateToDay(end)
	return last.AddDate(0, 0, -(n - 1)), last
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
