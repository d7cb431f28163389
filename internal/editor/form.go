package editor

import "github.com/noah-isme/sma-timetable-editor/internal/timetable"

// FormState is the editable state of a session. It is fully defined once a strategy seeded it;
// fields a kind does not use stay at their zero value.
type FormState struct {
	Range       timetable.TimeRange   `json:"range"`
	RoomID      *timetable.ResourceID `json:"room_id,omitempty"`
	SubjectID   *int64                `json:"subject_id,omitempty"`
	RepeatCount int                   `json:"repeat_count"`
	TopicID     int64                 `json:"topic_id,omitempty"`
	Note        string                `json:"note,omitempty"`
}

// FormPatch holds the fields to overwrite. Nil fields are left untouched.
type FormPatch struct {
	Range        *timetable.TimeRange
	RoomID       *timetable.ResourceID
	ClearRoom    bool
	SubjectID    *int64
	ClearSubject bool
	RepeatCount  *int
	TopicID      *int64
	Note         *string
}

// Apply merges a patch into a copy of the form.
func (f FormState) Apply(p FormPatch) FormState {
	next := f
	if p.Range != nil {
		next.Range = *p.Range
	}
	if p.ClearRoom {
		next.RoomID = nil
	}
	if p.RoomID != nil {
		room := *p.RoomID
		next.RoomID = &room
	}
	if p.ClearSubject {
		next.SubjectID = nil
	}
	if p.SubjectID != nil {
		subject := *p.SubjectID
		next.SubjectID = &subject
	}
	if p.RepeatCount != nil {
		next.RepeatCount = *p.RepeatCount
	}
	if p.TopicID != nil {
		next.TopicID = *p.TopicID
	}
	if p.Note != nil {
		next.Note = *p.Note
	}
	return next
}

// FieldType tells the console which widget renders a field.
type FieldType string

const (
	FieldRange  FieldType = "range"
	FieldPicker FieldType = "picker"
	FieldNumber FieldType = "number"
	FieldText   FieldType = "text"
)

// OptionDescriptor is one choice of a picker field.
type OptionDescriptor struct {
	Value       int64  `json:"value"`
	Label       string `json:"label"`
	Selected    bool   `json:"selected,omitempty"`
	Conflicting bool   `json:"conflicting,omitempty"`
}

// FieldDescriptor describes one form field.
type FieldDescriptor struct {
	Name     string             `json:"name"`
	Label    string             `json:"label"`
	Type     FieldType          `json:"type"`
	Required bool               `json:"required,omitempty"`
	Value    interface{}        `json:"value,omitempty"`
	Options  []OptionDescriptor `json:"options,omitempty"`
}

// FormDescriptor tells the console how to render the form of a session.
type FormDescriptor struct {
	Kind      EventKind         `json:"kind"`
	Title     string            `json:"title"`
	Fields    []FieldDescriptor `json:"fields"`
	Deletable bool              `json:"deletable"`
}

func rangeField(form FormState) FieldDescriptor {
	return FieldDescriptor{Name: "range", Label: "Time", Type: FieldRange, Required: true, Value: form.Range}
}

func title(kind string, sctx *SessionContext) string {
	if sctx.Editing() {
		return "Edit " + kind
	}
	return "Add " + kind
}
