package export

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

func TestOccupancyICS(t *testing.T) {
	snap := timetable.Snapshot{
		WindowStart: 0,
		WindowEnd:   86400,
		Rooms: []timetable.Booking{
			{Resource: 1, Range: timetable.TimeRange{Start: 7200, End: 10800}, Owner: "l-2"},
			{Resource: 2, Range: timetable.TimeRange{Start: 3600, End: 7200}},
		},
		Invigilations: []timetable.Booking{
			{Resource: 500, Range: timetable.TimeRange{Start: 5400, End: 6000}, Owner: "inv-1"},
		},
	}
	names := Names{Rooms: map[timetable.ResourceID]string{1: "Lab A"}}

	out := OccupancyICS(snap, names, time.Unix(0, 0))
	assert.Contains(t, out, "PRODID:"+productID)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 3)

	summaries := make([]string, 0, len(events))
	for _, ev := range events {
		summaries = append(summaries, ev.GetProperty(ical.ComponentPropertySummary).Value)
	}
	assert.Equal(t, []string{"Booked: Room 2", "Invigilation: Teacher 500", "Booked: Lab A"}, summaries)

	start, err := events[2].GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, int64(7200), start.Unix())
	assert.Equal(t, "room-1-l-2@sma-timetable-editor", events[2].Id())
	assert.Equal(t, "Lab A", events[2].GetProperty(ical.ComponentPropertyLocation).Value)
}

func TestOccupancyICSEmptySnapshot(t *testing.T) {
	out := OccupancyICS(timetable.Snapshot{WindowStart: 0, WindowEnd: 10}, Names{}, time.Now())
	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	assert.Empty(t, cal.Events())
}
