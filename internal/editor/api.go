package editor

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

// Convention names how a backend reply signals success.
type Convention int

const (
	// ConventionCode treats code == 200 as success (class schedule backend).
	ConventionCode Convention = iota
	// ConventionStatus treats status == 0 as success (legacy staff schedule backend).
	ConventionStatus
)

// Reply is the backend's {code|status, message, data?} envelope.
type Reply struct {
	Code    *int            `json:"code,omitempty"`
	Status  *int            `json:"status,omitempty"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OK reports success under the given convention.
func (r *Reply) OK(conv Convention) bool {
	if r == nil {
		return false
	}
	switch conv {
	case ConventionStatus:
		return r.Status != nil && *r.Status == 0
	default:
		return r.Code != nil && *r.Code == 200
	}
}

// LessonPayload is sent when adding or editing a lesson.
type LessonPayload struct {
	ID        timetable.EventID     `json:"id,omitempty"`
	Start     int64                 `json:"start"`
	End       int64                 `json:"end"`
	RoomID    *timetable.ResourceID `json:"room_id,omitempty"`
	SubjectID *int64                `json:"subject_id,omitempty"`
	RepeatNum int                   `json:"repeat_num"`
}

// LessonDelete removes a lesson and RepeatNum-1 of its following weekly occurrences.
type LessonDelete struct {
	ID        timetable.EventID `json:"id"`
	RepeatNum int               `json:"repeat_num"`
}

// InvigilatePayload is sent when adding or updating an invigilation.
type InvigilatePayload struct {
	ID      timetable.EventID `json:"id,omitempty"`
	Start   int64             `json:"start"`
	End     int64             `json:"end"`
	TopicID int64             `json:"topic_id"`
	Note    string            `json:"note"`
}

// InvigilateDelete removes a single invigilation. It has no repeat count.
type InvigilateDelete struct {
	ID timetable.EventID `json:"id"`
}

// UnavailableUpdate replaces unavailable ranges for a teacher in one call.
type UnavailableUpdate struct {
	Remove []timetable.TimeRange `json:"remove,omitempty"`
	Add    []timetable.TimeRange `json:"add,omitempty"`
	Note   string                `json:"note,omitempty"`
}

// ClassScheduleAPI edits lessons of a class timetable.
type ClassScheduleAPI interface {
	AddLesson(ctx context.Context, classID int64, p LessonPayload) (*Reply, error)
	EditLesson(ctx context.Context, classID int64, p LessonPayload) (*Reply, error)
	DeleteLesson(ctx context.Context, classID int64, d LessonDelete) (*Reply, error)
}

// StaffScheduleAPI is the legacy teacher timetable backend. It cannot add lessons.
type StaffScheduleAPI interface {
	EditLesson(ctx context.Context, staffID int64, p LessonPayload) (*Reply, error)
	DeleteLesson(ctx context.Context, staffID int64, d LessonDelete) (*Reply, error)
}

// InvigilateAPI manages a teacher's invigilation commitments.
type InvigilateAPI interface {
	AddInvigilate(ctx context.Context, staffID int64, p InvigilatePayload) (*Reply, error)
	UpdateInvigilate(ctx context.Context, staffID int64, p InvigilatePayload) (*Reply, error)
	DeleteInvigilate(ctx context.Context, staffID int64, d InvigilateDelete) (*Reply, error)
}

// UnavailabilityAPI bulk-updates a teacher's unavailable ranges.
type UnavailabilityAPI interface {
	UpdateUnavailable(ctx context.Context, staffID int64, u UnavailableUpdate) (*Reply, error)
}

// ScheduleShape is either ClassSchedule or StaffSchedule.
type ScheduleShape interface {
	convention() Convention
	name() string
}

// ClassSchedule routes lesson calls to the class timetable backend.
type ClassSchedule struct {
	API     ClassScheduleAPI
	ClassID int64
}

func (ClassSchedule) convention() Convention { return ConventionCode }
func (ClassSchedule) name() string           { return "class schedule" }

// StaffSchedule routes lesson calls to the legacy staff timetable backend.
type StaffSchedule struct {
	API     StaffScheduleAPI
	StaffID int64
}

func (StaffSchedule) convention() Convention { return ConventionStatus }
func (StaffSchedule) name() string           { return "staff schedule" }

// APIBundle is what the host page hands the editor.
type APIBundle struct {
	Schedule       ScheduleShape
	Invigilate     InvigilateAPI
	Unavailability UnavailabilityAPI
}

// Bundle is an APIBundle resolved once when a session opens.
type Bundle struct {
	Class          *ClassSchedule
	Staff          *StaffSchedule
	Invigilate     InvigilateAPI
	Unavailability UnavailabilityAPI
	Convention     Convention
}

// Resolve fixes the schedule shape and reply convention of the bundle. APIs holding a nil
// pointer count as absent.
func (b APIBundle) Resolve() (Bundle, error) {
	resolved := Bundle{}
	if !isNil(b.Invigilate) {
		resolved.Invigilate = b.Invigilate
	}
	if !isNil(b.Unavailability) {
		resolved.Unavailability = b.Unavailability
	}
	switch shape := b.Schedule.(type) {
	case ClassSchedule:
		if isNil(shape.API) {
			return Bundle{}, capabilityError("", "class schedule api")
		}
		resolved.Class = &shape
	case *ClassSchedule:
		if shape == nil || isNil(shape.API) {
			return Bundle{}, capabilityError("", "class schedule api")
		}
		cp := *shape
		resolved.Class = &cp
	case StaffSchedule:
		if isNil(shape.API) {
			return Bundle{}, capabilityError("", "staff schedule api")
		}
		resolved.Staff = &shape
	case *StaffSchedule:
		if shape == nil || isNil(shape.API) {
			return Bundle{}, capabilityError("", "staff schedule api")
		}
		cp := *shape
		resolved.Staff = &cp
	case nil:
		return Bundle{}, capabilityError("", "schedule api")
	}
	resolved.Convention = b.Schedule.convention()
	return resolved, nil
}

func isNil(api interface{}) bool {
	if api == nil {
		return true
	}
	v := reflect.ValueOf(api)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// ShapeName names the active schedule shape.
func (b Bundle) ShapeName() string {
	switch {
	case b.Class != nil:
		return b.Class.name()
	case b.Staff != nil:
		return b.Staff.name()
	}
	return "none"
}
