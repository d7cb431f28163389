// Package export renders occupancy snapshots for calendar clients.
package export

import (
	"fmt"
	"sort"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

const productID = "-//sma-timetable-editor//occupancy//EN"

// Names resolves display names for resources. Missing names fall back to the numeric id.
type Names struct {
	Rooms    map[timetable.ResourceID]string
	Teachers map[timetable.ResourceID]string
}

func (n Names) room(id timetable.ResourceID) string {
	if name, ok := n.Rooms[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Room %d", id)
}

func (n Names) teacher(id timetable.ResourceID) string {
	if name, ok := n.Teachers[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Teacher %d", id)
}

// OccupancyICS serialises every booking of the snapshot as a VEVENT. Room bookings carry the room
// as LOCATION; invigilations are summarised per teacher. Events are ordered by start time.
func OccupancyICS(snap timetable.Snapshot, names Names, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Occupancy " + snap.Window().String())

	type entry struct {
		uid      string
		summary  string
		location string
		r        timetable.TimeRange
	}
	entries := make([]entry, 0, len(snap.Rooms)+len(snap.Invigilations))
	for i, b := range snap.Rooms {
		entries = append(entries, entry{
			uid:      uid("room", b, i),
			summary:  "Booked: " + names.room(b.Resource),
			location: names.room(b.Resource),
			r:        b.Range,
		})
	}
	for i, b := range snap.Invigilations {
		entries = append(entries, entry{
			uid:     uid("invigilation", b, i),
			summary: "Invigilation: " + names.teacher(b.Resource),
			r:       b.Range,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].r.Start < entries[j].r.Start })

	stamp = stamp.UTC()
	for _, e := range entries {
		event := cal.AddEvent(e.uid)
		event.SetDtStampTime(stamp)
		event.SetStartAt(time.Unix(e.r.Start, 0).UTC())
		event.SetEndAt(time.Unix(e.r.End, 0).UTC())
		event.SetSummary(e.summary)
		if e.location != "" {
			event.SetLocation(e.location)
		}
	}
	return cal.Serialize()
}

// uid is stable per booking. Bookings without an owner fall back to their position.
func uid(kind string, b timetable.Booking, i int) string {
	if b.Owner != "" {
		return fmt.Sprintf("%s-%d-%s@sma-timetable-editor", kind, b.Resource, b.Owner)
	}
	return fmt.Sprintf("%s-%d-%d-%d@sma-timetable-editor", kind, b.Resource, b.Range.Start, i)
}
