package editor

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

type lessonStrategy struct{}

func (lessonStrategy) Kind() EventKind { return KindLesson }

func (lessonStrategy) Requires(mode Mode, b Bundle) error {
	switch {
	case b.Class != nil:
		return nil
	case b.Staff != nil:
		if mode == ModeAdd {
			return capabilityError(KindLesson, "a class schedule api to add lessons")
		}
		return nil
	}
	return capabilityError(KindLesson, "a schedule api")
}

func (lessonStrategy) Init(sctx *SessionContext) FormState {
	form := FormState{Range: sctx.Selection, RepeatCount: 1}
	if sctx.Editing() {
		initial := sctx.Initial
		form.Range = initial.Range
		form.RoomID = copyResource(initial.RoomID)
		form.SubjectID = copyInt(initial.SubjectID)
		if initial.RepeatCount > 0 {
			form.RepeatCount = initial.RepeatCount
		}
	}
	return form
}

func (s lessonStrategy) Describe(form FormState, sctx *SessionContext) FormDescriptor {
	rooms := s.roomIndex(sctx)
	annotated := timetable.AnnotateConflicts(rooms, sctx.roomIDs(), s.checkRanges(form, sctx)...)
	names := make(map[timetable.ResourceID]string, len(sctx.RoomOptions))
	for _, r := range sctx.RoomOptions {
		names[r.ID] = r.Name
	}
	roomOptions := make([]OptionDescriptor, 0, len(annotated))
	for _, a := range annotated {
		roomOptions = append(roomOptions, OptionDescriptor{
			Value:       int64(a.Resource),
			Label:       names[a.Resource],
			Selected:    form.RoomID != nil && *form.RoomID == a.Resource,
			Conflicting: a.Conflicting,
		})
	}

	subjectOptions := make([]OptionDescriptor, 0, len(sctx.Subjects))
	for _, subj := range sctx.Subjects {
		subjectOptions = append(subjectOptions, OptionDescriptor{
			Value:       subj.ID,
			Label:       subj.Name,
			Selected:    form.SubjectID != nil && *form.SubjectID == subj.ID,
			Conflicting: timetable.HasAnyConflict(sctx.Invigilations, subj.TeacherID, s.checkRanges(form, sctx)),
		})
	}

	return FormDescriptor{
		Kind:  KindLesson,
		Title: title("lesson", sctx),
		Fields: []FieldDescriptor{
			rangeField(form),
			{Name: "room_id", Label: "Room", Type: FieldPicker, Required: len(sctx.RoomOptions) > 0, Options: roomOptions},
			{Name: "subject_id", Label: "Subject", Type: FieldPicker, Options: subjectOptions},
			{Name: "repeat_count", Label: "Repeat (weeks)", Type: FieldNumber, Required: true, Value: form.RepeatCount},
		},
		Deletable: sctx.Editing(),
	}
}

// Validate runs every check and accumulates: range, repeat count, room selection, the subject
// teacher's invigilations, then room occupancy with the edited lesson excluded.
func (s lessonStrategy) Validate(form FormState, sctx *SessionContext) []string {
	messages := rangeMessages(form.Range)
	if form.RepeatCount < 1 {
		messages = append(messages, "repeat count must be at least 1")
	}

	if len(sctx.RoomOptions) > 0 && form.RoomID == nil {
		messages = append(messages, "room is required")
	}

	if !form.Range.Valid() {
		return messages
	}
	ranges := s.checkRanges(form, sctx)

	if form.SubjectID != nil {
		if subj, ok := sctx.subject(*form.SubjectID); ok {
			for _, r := range ranges {
				if result := timetable.Check(sctx.Invigilations, subj.TeacherID, r); result.Conflicting {
					messages = append(messages, fmt.Sprintf("teacher %d has an invigilation during %v", subj.TeacherID, result.Overlapping))
					break
				}
			}
		} else {
			messages = append(messages, fmt.Sprintf("subject %d is not offered to this class", *form.SubjectID))
		}
	}

	if form.RoomID != nil {
		rooms := s.roomIndex(sctx)
		for _, r := range ranges {
			if result := timetable.Check(rooms, *form.RoomID, r); result.Conflicting {
				messages = append(messages, conflictMessage("room", result))
				break
			}
		}
	}

	return messages
}

func (lessonStrategy) Save(ctx context.Context, form FormState, sctx *SessionContext, b Bundle) error {
	payload := LessonPayload{
		Start:     form.Range.Start,
		End:       form.Range.End,
		RoomID:    copyResource(form.RoomID),
		SubjectID: copyInt(form.SubjectID),
		RepeatNum: form.RepeatCount,
	}
	editing := sctx.Editing()
	if editing {
		payload.ID = sctx.Initial.ID
	}

	switch {
	case b.Class != nil:
		if editing {
			reply, err := b.Class.API.EditLesson(ctx, b.Class.ClassID, payload)
			return settle(reply, err, b.Convention)
		}
		reply, err := b.Class.API.AddLesson(ctx, b.Class.ClassID, payload)
		return settle(reply, err, b.Convention)
	case b.Staff != nil:
		if !editing {
			return capabilityError(KindLesson, "a class schedule api to add lessons")
		}
		reply, err := b.Staff.API.EditLesson(ctx, b.Staff.StaffID, payload)
		return settle(reply, err, b.Convention)
	}
	return capabilityError(KindLesson, "a schedule api")
}

func (lessonStrategy) Delete(ctx context.Context, current Event, _ *SessionContext, b Bundle) error {
	repeat := current.RepeatCount
	if repeat < 1 {
		repeat = 1
	}
	req := LessonDelete{ID: current.ID, RepeatNum: repeat}
	switch {
	case b.Class != nil:
		reply, err := b.Class.API.DeleteLesson(ctx, b.Class.ClassID, req)
		return settle(reply, err, b.Convention)
	case b.Staff != nil:
		reply, err := b.Staff.API.DeleteLesson(ctx, b.Staff.StaffID, req)
		return settle(reply, err, b.Convention)
	}
	return capabilityError(KindLesson, "a schedule api")
}

// roomIndex is the room occupancy with the edited lesson's own booking removed.
func (lessonStrategy) roomIndex(sctx *SessionContext) timetable.OccupancyIndex {
	if sctx.Editing() {
		if own, ok := sctx.Initial.RoomBooking(); ok {
			return timetable.Exclude(sctx.Rooms, own)
		}
	}
	return sctx.Rooms
}

// checkRanges lists the occurrences a lesson check covers. Repeats are only expanded when
// adding: later occurrences of an edited series are separate bookings the editor cannot
// self-exclude.
func (lessonStrategy) checkRanges(form FormState, sctx *SessionContext) []timetable.TimeRange {
	if !sctx.ExpandRepeats || sctx.Editing() || form.RepeatCount <= 1 {
		return []timetable.TimeRange{form.Range}
	}
	ranges := timetable.Within(timetable.Occurrences(form.Range, form.RepeatCount), sctx.Window())
	if len(ranges) == 0 {
		return []timetable.TimeRange{form.Range}
	}
	return ranges
}

func copyResource(id *timetable.ResourceID) *timetable.ResourceID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
