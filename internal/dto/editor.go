package dto

import (
	"github.com/noah-isme/sma-timetable-editor/internal/editor"
	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

// RangeRequest is a half-open [start, end) range in epoch seconds.
type RangeRequest struct {
	Start int64 `json:"start" validate:"gte=0"`
	End   int64 `json:"end" validate:"gtfield=Start"`
}

// Range converts the request into a time range.
func (r RangeRequest) Range() timetable.TimeRange {
	return timetable.TimeRange{Start: r.Start, End: r.End}
}

// EventRequest is the existing event an edit session starts from.
type EventRequest struct {
	ID          string       `json:"id"`
	Range       RangeRequest `json:"range"`
	RoomID      *int64       `json:"room_id" validate:"omitempty,gt=0"`
	SubjectID   *int64       `json:"subject_id" validate:"omitempty,gt=0"`
	RepeatCount int          `json:"repeat_count" validate:"omitempty,min=1,max=52"`
	TopicID     int64        `json:"topic_id" validate:"omitempty,gt=0"`
	Note        string       `json:"note" validate:"max=500"`
}

// Event converts the request into the editor's event.
func (e EventRequest) Event(kind editor.EventKind) *editor.Event {
	ev := &editor.Event{
		ID:          timetable.EventID(e.ID),
		Kind:        kind,
		Range:       e.Range.Range(),
		SubjectID:   e.SubjectID,
		RepeatCount: e.RepeatCount,
		TopicID:     e.TopicID,
		Note:        e.Note,
	}
	if e.RoomID != nil {
		room := timetable.ResourceID(*e.RoomID)
		ev.RoomID = &room
	}
	return ev
}

// OpenSessionRequest opens an add or edit session over one viewing window.
type OpenSessionRequest struct {
	Kind      string        `json:"kind" validate:"required,oneof=lesson unavailable invigilate"`
	Mode      string        `json:"mode" validate:"omitempty,oneof=add edit"`
	Window    RangeRequest  `json:"window"`
	Selection *RangeRequest `json:"selection" validate:"omitempty"`
	ClassID   int64         `json:"class_id" validate:"omitempty,gt=0"`
	StaffID   int64         `json:"staff_id" validate:"omitempty,gt=0"`
	Event     *EventRequest `json:"event" validate:"required_if=Mode edit"`
}

// FormPatchRequest overwrites the given form fields.
type FormPatchRequest struct {
	Start        *int64  `json:"start"`
	End          *int64  `json:"end"`
	RoomID       *int64  `json:"room_id" validate:"omitempty,gt=0"`
	ClearRoom    bool    `json:"clear_room"`
	SubjectID    *int64  `json:"subject_id" validate:"omitempty,gt=0"`
	ClearSubject bool    `json:"clear_subject"`
	RepeatCount  *int    `json:"repeat_count" validate:"omitempty,min=1,max=52"`
	TopicID      *int64  `json:"topic_id" validate:"omitempty,gt=0"`
	Note         *string `json:"note" validate:"omitempty,max=500"`
}

// Patch converts the request, completing a half-given range from the current one.
func (p FormPatchRequest) Patch(current timetable.TimeRange) editor.FormPatch {
	patch := editor.FormPatch{
		ClearRoom:    p.ClearRoom,
		SubjectID:    p.SubjectID,
		ClearSubject: p.ClearSubject,
		RepeatCount:  p.RepeatCount,
		TopicID:      p.TopicID,
		Note:         p.Note,
	}
	if p.Start != nil || p.End != nil {
		r := current
		if p.Start != nil {
			r.Start = *p.Start
		}
		if p.End != nil {
			r.End = *p.End
		}
		patch.Range = &r
	}
	if p.RoomID != nil {
		room := timetable.ResourceID(*p.RoomID)
		patch.RoomID = &room
	}
	return patch
}

// ValidationResult lists every problem with the current form.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Messages []string `json:"messages"`
}

// ConflictQuery asks which rooms are free for a range. The exclude fields describe the booking
// being edited: its event id, and the room and original range used when the id is not found.
type ConflictQuery struct {
	Window         RangeRequest  `json:"window"`
	Range          RangeRequest  `json:"range"`
	RoomIDs        []int64       `json:"room_ids" validate:"omitempty,dive,gt=0"`
	ExcludeEventID string        `json:"exclude_event_id"`
	ExcludeRoomID  int64         `json:"exclude_room_id" validate:"omitempty,gt=0"`
	ExcludeRange   *RangeRequest `json:"exclude_range"`
	RepeatCount    int           `json:"repeat_count" validate:"omitempty,min=1,max=52"`
}

// RoomAvailability is one annotated room of a conflict query.
type RoomAvailability struct {
	RoomID      int64                 `json:"room_id"`
	Name        string                `json:"name"`
	Conflicting bool                  `json:"conflicting"`
	Overlapping []timetable.TimeRange `json:"overlapping,omitempty"`
}

// ConflictReport answers a conflict query, free rooms first.
type ConflictReport struct {
	Range  timetable.TimeRange `json:"range"`
	Rooms  []RoomAvailability  `json:"rooms"`
	Cached bool                `json:"cached"`
}

// OccupancyQuery selects the window and format of an occupancy export.
type OccupancyQuery struct {
	WindowStart int64  `form:"window_start" validate:"gte=0"`
	WindowEnd   int64  `form:"window_end" validate:"gtfield=WindowStart"`
	Format      string `form:"format" validate:"omitempty,oneof=ics csv pdf"`
}

// OccupancyExport is a rendered occupancy document.
type OccupancyExport struct {
	Filename    string
	ContentType string
	Body        []byte
}
