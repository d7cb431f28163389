package editor

import (
	"context"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

type invigilateStrategy struct{}

func (invigilateStrategy) Kind() EventKind { return KindInvigilate }

func (invigilateStrategy) Requires(_ Mode, b Bundle) error {
	if b.Invigilate == nil {
		return capabilityError(KindInvigilate, "an invigilate api")
	}
	return nil
}

func (invigilateStrategy) Init(sctx *SessionContext) FormState {
	form := FormState{Range: sctx.Selection, RepeatCount: 1}
	if len(sctx.Topics) > 0 {
		form.TopicID = sctx.Topics[0].ID
	}
	if sctx.Editing() {
		form.Range = sctx.Initial.Range
		form.Note = sctx.Initial.Note
		if sctx.Initial.TopicID != 0 {
			form.TopicID = sctx.Initial.TopicID
		}
	}
	return form
}

func (invigilateStrategy) Describe(form FormState, sctx *SessionContext) FormDescriptor {
	topics := make([]OptionDescriptor, 0, len(sctx.Topics))
	for _, topic := range sctx.Topics {
		topics = append(topics, OptionDescriptor{Value: topic.ID, Label: topic.Name, Selected: topic.ID == form.TopicID})
	}
	return FormDescriptor{
		Kind:  KindInvigilate,
		Title: title("invigilation", sctx),
		Fields: []FieldDescriptor{
			rangeField(form),
			{Name: "topic_id", Label: "Topic", Type: FieldPicker, Required: true, Options: topics},
			{Name: "note", Label: "Note", Type: FieldText, Value: form.Note},
		},
		Deletable: sctx.Editing(),
	}
}

func (s invigilateStrategy) Validate(form FormState, sctx *SessionContext) []string {
	messages := rangeMessages(form.Range)
	if form.TopicID == 0 {
		messages = append(messages, "topic is required")
	}
	if !form.Range.Valid() {
		return messages
	}
	teacher := timetable.ResourceID(sctx.StaffID)
	if result := timetable.Check(s.ownIndex(sctx), teacher, form.Range); result.Conflicting {
		messages = append(messages, conflictMessage("teacher", result))
	}
	return messages
}

func (invigilateStrategy) Save(ctx context.Context, form FormState, sctx *SessionContext, b Bundle) error {
	if b.Invigilate == nil {
		return capabilityError(KindInvigilate, "an invigilate api")
	}
	payload := InvigilatePayload{
		Start:   form.Range.Start,
		End:     form.Range.End,
		TopicID: form.TopicID,
		Note:    form.Note,
	}
	if sctx.Editing() {
		payload.ID = sctx.Initial.ID
		reply, err := b.Invigilate.UpdateInvigilate(ctx, sctx.StaffID, payload)
		return settle(reply, err, b.Convention)
	}
	reply, err := b.Invigilate.AddInvigilate(ctx, sctx.StaffID, payload)
	return settle(reply, err, b.Convention)
}

func (invigilateStrategy) Delete(ctx context.Context, current Event, sctx *SessionContext, b Bundle) error {
	if b.Invigilate == nil {
		return capabilityError(KindInvigilate, "an invigilate api")
	}
	reply, err := b.Invigilate.DeleteInvigilate(ctx, sctx.StaffID, InvigilateDelete{ID: current.ID})
	return settle(reply, err, b.Convention)
}

func (invigilateStrategy) ownIndex(sctx *SessionContext) timetable.OccupancyIndex {
	if !sctx.Editing() {
		return sctx.Invigilations
	}
	own := timetable.Booking{
		Resource: timetable.ResourceID(sctx.StaffID),
		Range:    sctx.Initial.Range,
		Owner:    sctx.Initial.ID,
	}
	return timetable.Exclude(sctx.Invigilations, own)
}
