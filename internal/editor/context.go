package editor

import "github.com/noah-isme/sma-timetable-editor/internal/timetable"

// Event is an existing lesson, invigilation or unavailability record together with its payload.
// Edit sessions receive it directly; it carries the booking used for self-exclusion.
type Event struct {
	ID          timetable.EventID     `json:"id"`
	Kind        EventKind             `json:"kind"`
	Range       timetable.TimeRange   `json:"range"`
	RoomID      *timetable.ResourceID `json:"room_id,omitempty"`
	SubjectID   *int64                `json:"subject_id,omitempty"`
	RepeatCount int                   `json:"repeat_count,omitempty"`
	TopicID     int64                 `json:"topic_id,omitempty"`
	Note        string                `json:"note,omitempty"`
}

// RoomBooking returns the event's own room booking, if it occupies a room.
func (e Event) RoomBooking() (timetable.Booking, bool) {
	if e.RoomID == nil {
		return timetable.Booking{}, false
	}
	return timetable.Booking{Resource: *e.RoomID, Range: e.Range, Owner: e.ID}, true
}

// SubjectOption is a subject the class can be taught, with the teacher assigned to it.
type SubjectOption struct {
	ID        int64                `json:"id"`
	Name      string               `json:"name"`
	TeacherID timetable.ResourceID `json:"teacher_id"`
}

// RoomOption is a selectable room.
type RoomOption struct {
	ID   timetable.ResourceID `json:"id"`
	Name string               `json:"name"`
}

// TopicOption is a selectable invigilation topic.
type TopicOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SessionContext holds the read-only inputs of one editor session.
type SessionContext struct {
	Mode    Mode
	Initial *Event
	// Selection is the range picked in the calendar, used to seed the form.
	Selection timetable.TimeRange

	WindowStart int64
	WindowEnd   int64

	// Rooms is keyed by room id, Invigilations by teacher id.
	Rooms         timetable.OccupancyIndex
	Invigilations timetable.OccupancyIndex

	RoomOptions []RoomOption
	Subjects    []SubjectOption
	Topics      []TopicOption

	// StaffID is the teacher whose invigilations or unavailability are edited.
	StaffID int64

	// ExpandRepeats fans lesson checks out over weekly repeats visible in the window.
	ExpandRepeats bool
}

// Window returns the viewing window.
func (c *SessionContext) Window() timetable.TimeRange {
	return timetable.TimeRange{Start: c.WindowStart, End: c.WindowEnd}
}

// Editing reports whether the session edits an existing event.
func (c *SessionContext) Editing() bool {
	return c.Mode == ModeEdit && c.Initial != nil
}

func (c *SessionContext) subject(id int64) (SubjectOption, bool) {
	for _, s := range c.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return SubjectOption{}, false
}

func (c *SessionContext) roomIDs() []timetable.ResourceID {
	ids := make([]timetable.ResourceID, 0, len(c.RoomOptions))
	for _, r := range c.RoomOptions {
		ids = append(ids, r.ID)
	}
	return ids
}
