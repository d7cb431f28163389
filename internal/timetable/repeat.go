package timetable

import (
	"time"

	"github.com/teambition/rrule-go"
)

// maxRepeat caps weekly expansion for a single lesson action.
const maxRepeat = 52

// Occurrences expands r into repeatCount consecutive weekly occurrences, r itself first.
// A repeat count below 2 yields r alone.
func Occurrences(r TimeRange, repeatCount int) []TimeRange {
	if repeatCount <= 1 || !r.Valid() {
		return []TimeRange{r}
	}
	if repeatCount > maxRepeat {
		repeatCount = maxRepeat
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   repeatCount,
		Dtstart: time.Unix(r.Start, 0).UTC(),
	})
	if err != nil {
		return []TimeRange{r}
	}
	length := r.Duration()
	starts := rule.All()
	out := make([]TimeRange, 0, len(starts))
	for _, start := range starts {
		s := start.Unix()
		out = append(out, TimeRange{Start: s, End: s + length})
	}
	return out
}

// Within keeps the ranges that intersect window. Ranges outside the window cannot be checked
// against a window-scoped snapshot.
func Within(ranges []TimeRange, window TimeRange) []TimeRange {
	if !window.Valid() {
		return ranges
	}
	out := make([]TimeRange, 0, len(ranges))
	for _, r := range ranges {
		if Overlaps(r, window) {
			out = append(out, r)
		}
	}
	return out
}
