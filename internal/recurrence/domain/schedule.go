package domain

import "time"

// interval returns the calendar step for a frequency. Unknown frequencies
// fall back to monthly.
func interval(freq Frequency) (days, months, years int) {
	switch freq {
	case FrequencyWeekly:
		return 7, 0, 0
	case FrequencyBiweekly:
		return 14, 0, 0
	case FrequencyBimonthly:
		return 0, 2, 0
	case FrequencyQuarterly:
		return 0, 3, 0
	case FrequencyQuadmonthly:
		return 0, 4, 0
	case FrequencySemiannually:
		return 0, 6, 0
	case FrequencyAnnually:
		return 0, 0, 1
	default:
		return 0, 1, 0
	}
}

// NextDueDate computes the next issue date after from: one frequency step
// forward, then shifted day by day onto issueDay. The result is always
// strictly after from, so weekly schedules whose step already lands on
// issueDay still move a full period.
func NextDueDate(from time.Time, freq Frequency, issueDay time.Weekday) time.Time {
	days, months, years := interval(freq)
	next := from.AddDate(years, months, days)
	// Bounded by at most one extra week of day shifts.
	for i := 0; i < 8 && (next.Weekday() != issueDay || !next.After(from)); i++ {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Truncate a timestamp to local midnight in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
