package booking

import (
	"sort"
	"time"
)

// TruncateToDate strips the time-of-day component from a timestamp,
// anchoring it at midnight UTC.  Two timestamps differing only in time
// of day are the same calendar date for every comparison in this
// package.
func TruncateToDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeDates truncates every timestamp to its UTC calendar date,
// collapses duplicates and returns the result sorted ascending.  A nil
// or empty input yields an empty slice, which callers reject as "no
// dates selected".  The stable sorted order keeps serialized date sets
// deterministic.
func NormalizeDates(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := TruncateToDate(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// dateSet builds a membership set keyed by UTC-midnight dates.
func dateSet(dates []time.Time) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		set[TruncateToDate(d)] = struct{}{}
	}
	return set
}
