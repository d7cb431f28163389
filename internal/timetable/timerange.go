// Package timetable holds the occupancy and conflict primitives used by the event editor.
//
// Everything in this package is pure and synchronous. Results are a best-effort pre-filter over
// the snapshot the caller supplied; the schedule backend stays the source of truth.
package timetable

import "fmt"

// TimeRange is a half-open interval [Start, End) in seconds since epoch.
type TimeRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Valid reports whether the range is non-empty.
func (r TimeRange) Valid() bool {
	return r.Start < r.End
}

// Duration returns the length of the range in seconds.
func (r TimeRange) Duration() int64 {
	return r.End - r.Start
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Overlaps reports whether two half-open ranges intersect. Touching ranges do not overlap.
func Overlaps(a, b TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}
