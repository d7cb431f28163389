package models

import "github.com/noah-isme/sma-timetable-editor/internal/timetable"

// RoomBookingRow is a row of the room_bookings read model.
type RoomBookingRow struct {
	ID      string `db:"id"`
	RoomID  int64  `db:"room_id"`
	EventID string `db:"event_id"` // empty for rows with no owning event
	StartAt int64  `db:"start_at"`
	EndAt   int64  `db:"end_at"`
}

// Booking converts the row into an occupancy booking keyed by room.
func (r RoomBookingRow) Booking() timetable.Booking {
	return timetable.Booking{
		Resource: timetable.ResourceID(r.RoomID),
		Range:    timetable.TimeRange{Start: r.StartAt, End: r.EndAt},
		Owner:    timetable.EventID(r.EventID),
	}
}

// InvigilationRow is a row of the invigilations read model.
type InvigilationRow struct {
	ID        string `db:"id"`
	TeacherID int64  `db:"teacher_id"`
	EventID   string `db:"event_id"`
	StartAt   int64  `db:"start_at"`
	EndAt     int64  `db:"end_at"`
}

// Booking converts the row into an occupancy booking keyed by teacher.
func (r InvigilationRow) Booking() timetable.Booking {
	return timetable.Booking{
		Resource: timetable.ResourceID(r.TeacherID),
		Range:    timetable.TimeRange{Start: r.StartAt, End: r.EndAt},
		Owner:    timetable.EventID(r.EventID),
	}
}

// Room is a bookable room.
type Room struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ClassSubject is a subject taught to a class and the teacher assigned to it.
type ClassSubject struct {
	SubjectID int64  `db:"subject_id" json:"subject_id"`
	Name      string `db:"name" json:"name"`
	TeacherID int64  `db:"teacher_id" json:"teacher_id"`
}

// InvigilateTopic is an exam a teacher can be assigned to invigilate.
type InvigilateTopic struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
