package editor

import (
	"context"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

type unavailableStrategy struct{}

func (unavailableStrategy) Kind() EventKind { return KindUnavailable }

func (unavailableStrategy) Requires(_ Mode, b Bundle) error {
	if b.Unavailability == nil {
		return capabilityError(KindUnavailable, "an unavailability api")
	}
	return nil
}

func (unavailableStrategy) Init(sctx *SessionContext) FormState {
	form := FormState{Range: sctx.Selection, RepeatCount: 1}
	if sctx.Editing() {
		form.Range = sctx.Initial.Range
		form.Note = sctx.Initial.Note
	}
	return form
}

func (unavailableStrategy) Describe(form FormState, sctx *SessionContext) FormDescriptor {
	return FormDescriptor{
		Kind:  KindUnavailable,
		Title: title("unavailable time", sctx),
		Fields: []FieldDescriptor{
			rangeField(form),
			{Name: "note", Label: "Reason", Type: FieldText, Value: form.Note},
		},
		Deletable: sctx.Editing(),
	}
}

// Validate only checks the range; unavailability never collides with anything.
func (unavailableStrategy) Validate(form FormState, _ *SessionContext) []string {
	return rangeMessages(form.Range)
}

func (unavailableStrategy) Save(ctx context.Context, form FormState, sctx *SessionContext, b Bundle) error {
	if b.Unavailability == nil {
		return capabilityError(KindUnavailable, "an unavailability api")
	}
	update := UnavailableUpdate{Add: []timetable.TimeRange{form.Range}, Note: form.Note}
	if sctx.Editing() {
		update.Remove = []timetable.TimeRange{sctx.Initial.Range}
	}
	reply, err := b.Unavailability.UpdateUnavailable(ctx, sctx.StaffID, update)
	return settle(reply, err, b.Convention)
}

func (unavailableStrategy) Delete(ctx context.Context, current Event, sctx *SessionContext, b Bundle) error {
	if b.Unavailability == nil {
		return capabilityError(KindUnavailable, "an unavailability api")
	}
	update := UnavailableUpdate{Remove: []timetable.TimeRange{current.Range}}
	reply, err := b.Unavailability.UpdateUnavailable(ctx, sctx.StaffID, update)
	return settle(reply, err, b.Convention)
}
