package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{name: "disjoint", a: TimeRange{0, 10}, b: TimeRange{20, 30}, want: false},
		{name: "touching", a: TimeRange{0, 10}, b: TimeRange{10, 20}, want: false},
		{name: "partial start", a: TimeRange{0, 10}, b: TimeRange{5, 15}, want: true},
		{name: "containment", a: TimeRange{0, 100}, b: TimeRange{40, 50}, want: true},
		{name: "identical", a: TimeRange{100, 200}, b: TimeRange{100, 200}, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			assert.Equal(t, Overlaps(tc.a, tc.b), Overlaps(tc.b, tc.a), "overlap must be symmetric")
		})
	}
}

func TestOverlapsReflexive(t *testing.T) {
	for _, r := range []TimeRange{{0, 1}, {100, 200}, {-50, 50}} {
		assert.True(t, Overlaps(r, r), r.String())
	}
}

func TestHasConflictEmptyIndex(t *testing.T) {
	idx := BuildIndex(nil)
	assert.False(t, HasConflict(idx, 1, TimeRange{0, 1000}))
	assert.False(t, HasConflict(idx, 42, TimeRange{-1, 1}))
}

func TestHasConflictDetectsOverlap(t *testing.T) {
	b1 := Booking{Resource: 1, Range: TimeRange{100, 200}, Owner: "lesson-1"}
	idx := BuildIndex([]Booking{b1})

	assert.True(t, HasConflict(idx, 1, TimeRange{150, 250}))
	assert.False(t, HasConflict(idx, 1, TimeRange{200, 300}))
	assert.False(t, HasConflict(idx, 2, TimeRange{150, 250}), "other resources are independent")
}

func TestBuildIndexKeepsOrderAndDuplicates(t *testing.T) {
	idx := BuildIndex([]Booking{
		{Resource: 1, Range: TimeRange{300, 400}},
		{Resource: 2, Range: TimeRange{0, 10}},
		{Resource: 1, Range: TimeRange{100, 200}},
		{Resource: 1, Range: TimeRange{100, 200}},
	})
	require.Len(t, idx.Bookings(1), 3)
	assert.Equal(t, TimeRange{300, 400}, idx.Bookings(1)[0].Range)
	assert.Equal(t, 4, idx.Len())
	assert.Empty(t, idx.Bookings(9))
}

func TestExcludeOwnSelfEdit(t *testing.T) {
	b := Booking{Resource: 7, Range: TimeRange{100, 200}, Owner: "lesson-9"}
	idx := BuildIndex([]Booking{b})

	filtered := ExcludeOwn(idx, b.Owner)
	assert.False(t, HasConflict(filtered, 7, TimeRange{100, 200}))
	assert.True(t, HasConflict(idx, 7, TimeRange{100, 200}), "original index must stay untouched")
}

func TestExcludeOwnRemovesEveryBucket(t *testing.T) {
	idx := BuildIndex([]Booking{
		{Resource: 1, Range: TimeRange{0, 10}, Owner: "a"},
		{Resource: 2, Range: TimeRange{0, 10}, Owner: "a"},
		{Resource: 2, Range: TimeRange{20, 30}, Owner: "b"},
	})
	filtered := ExcludeOwn(idx, "a")
	assert.Empty(t, filtered.Bookings(1))
	require.Len(t, filtered.Bookings(2), 1)
	assert.Equal(t, EventID("b"), filtered.Bookings(2)[0].Owner)
}

func TestExcludeExactRemovesOnlyOneMatch(t *testing.T) {
	r := TimeRange{100, 200}
	idx := BuildIndex([]Booking{
		{Resource: 1, Range: r},
		{Resource: 1, Range: r},
		{Resource: 2, Range: r},
	})
	filtered := ExcludeExact(idx, 1, r)
	assert.True(t, HasConflict(filtered, 1, r), "a second booking at the same time still conflicts")
	assert.Len(t, filtered.Bookings(1), 1)
	assert.Len(t, filtered.Bookings(2), 1)
}

func TestExcludeFallsBackToExactMatch(t *testing.T) {
	r := TimeRange{100, 200}
	idx := BuildIndex([]Booking{{Resource: 1, Range: r}})

	assert.False(t, HasConflict(Exclude(idx, Booking{Resource: 1, Range: r}), 1, r))
	assert.True(t, HasConflict(Exclude(idx, Booking{Resource: 1, Range: TimeRange{100, 150}}), 1, r))
}

func TestExcludeUnknownOwnerFallsBackToExactMatch(t *testing.T) {
	r := TimeRange{1000, 2000}
	idx := BuildIndex([]Booking{
		{Resource: 1, Range: r},
		{Resource: 2, Range: TimeRange{1500, 2500}, Owner: "l-7"},
	})

	filtered := Exclude(idx, Booking{Resource: 1, Range: r, Owner: "l-1"})
	assert.False(t, HasConflict(filtered, 1, r))
	assert.True(t, HasConflict(filtered, 2, r), "other resources keep their bookings")

	owned := BuildIndex([]Booking{{Resource: 1, Range: r, Owner: "l-1"}, {Resource: 1, Range: r, Owner: "l-2"}})
	assert.True(t, HasConflict(Exclude(owned, Booking{Resource: 1, Range: r, Owner: "l-1"}), 1, r),
		"a resolved owner never triggers the exact fallback")
}

func TestCheckCollectsOverlaps(t *testing.T) {
	idx := BuildIndex([]Booking{
		{Resource: 1, Range: TimeRange{0, 100}},
		{Resource: 1, Range: TimeRange{150, 250}},
		{Resource: 1, Range: TimeRange{300, 400}},
	})
	result := Check(idx, 1, TimeRange{50, 200})
	assert.True(t, result.Conflicting)
	assert.Equal(t, []TimeRange{{0, 100}, {150, 250}}, result.Overlapping)

	clear := Check(idx, 1, TimeRange{250, 300})
	assert.False(t, clear.Conflicting)
	assert.Empty(t, clear.Overlapping)
}

func TestAnnotateConflictsOrdersFreeFirst(t *testing.T) {
	idx := BuildIndex([]Booking{
		{Resource: 1, Range: TimeRange{0, 100}},
		{Resource: 3, Range: TimeRange{50, 150}},
	})
	got := AnnotateConflicts(idx, []ResourceID{1, 2, 3, 4}, TimeRange{60, 90})
	assert.Equal(t, []ResourceAnnotation{
		{Resource: 2, Conflicting: false},
		{Resource: 4, Conflicting: false},
		{Resource: 1, Conflicting: true},
		{Resource: 3, Conflicting: true},
	}, got)
}

func TestOccurrencesWeekly(t *testing.T) {
	const week = int64(7 * 24 * 60 * 60)
	r := TimeRange{Start: 1_700_000_000, End: 1_700_003_600}

	assert.Equal(t, []TimeRange{r}, Occurrences(r, 1))
	assert.Equal(t, []TimeRange{r}, Occurrences(r, 0))

	got := Occurrences(r, 3)
	require.Len(t, got, 3)
	for i, occ := range got {
		assert.Equal(t, r.Start+int64(i)*week, occ.Start)
		assert.Equal(t, r.Duration(), occ.Duration())
	}
}

func TestWithinKeepsWindowedRanges(t *testing.T) {
	ranges := []TimeRange{{0, 10}, {50, 60}, {200, 210}}
	assert.Equal(t, []TimeRange{{50, 60}}, Within(ranges, TimeRange{20, 100}))
	assert.Equal(t, ranges, Within(ranges, TimeRange{}))
}
