package eventslots

import "time"

// ValidInterval reports whether [start, end) is a well-formed half-open
// interval. Zero-length and inverted intervals are rejected.
func ValidInterval(start, end time.Time) bool {
	return start.Before(end)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back slots sharing an endpoint do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DayNumber returns the 1-based convention day a slot starts on, counted in
// calendar days from the convention start. Without a start date (or for slots
// before it) the first day is assumed.
func DayNumber(conventionStart *time.Time, slotStart time.Time) int {
	if conventionStart == nil {
		return 1
	}
	start := conventionStart.UTC().Truncate(24 * time.Hour)
	day := slotStart.UTC().Truncate(24 * time.Hour)
	n := int(day.Sub(start).Hours()/24) + 1
	if n < 1 {
		return 1
	}
	return n
}
