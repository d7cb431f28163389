package editor

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-editor/pkg/errors"
)

// Strategy is the behaviour of one event kind.
//
// Validate is pure. Save and Delete call the backend once and never retry; a reply without the
// success code comes back as a BackendRejection. Callers must not call Save when Validate
// returned messages.
type Strategy interface {
	Kind() EventKind
	// Requires checks the resolved bundle offers what this kind needs in the given mode.
	Requires(mode Mode, b Bundle) error
	Init(sctx *SessionContext) FormState
	Describe(form FormState, sctx *SessionContext) FormDescriptor
	Validate(form FormState, sctx *SessionContext) []string
	Save(ctx context.Context, form FormState, sctx *SessionContext, b Bundle) error
	Delete(ctx context.Context, current Event, sctx *SessionContext, b Bundle) error
}

var registry = map[EventKind]Strategy{
	KindLesson:      lessonStrategy{},
	KindInvigilate:  invigilateStrategy{},
	KindUnavailable: unavailableStrategy{},
}

// Lookup returns the strategy registered for kind.
func Lookup(kind EventKind) (Strategy, bool) {
	s, ok := registry[kind]
	return s, ok
}

// Kinds lists the registered kinds in a stable order.
func Kinds() []EventKind {
	kinds := make([]EventKind, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func settle(reply *Reply, err error, conv Convention) error {
	if err != nil {
		return err
	}
	if reply == nil {
		return appErrors.Clone(appErrors.ErrBackendUnavailable, "empty reply from schedule backend")
	}
	if !reply.OK(conv) {
		return rejection(reply)
	}
	return nil
}

func rangeMessages(r timetable.TimeRange) []string {
	if r.Valid() {
		return nil
	}
	return []string{"end time must be after start time"}
}

func conflictMessage(what string, result timetable.ConflictResult) string {
	return fmt.Sprintf("%s %d is already booked during %v", what, result.Resource, result.Overlapping)
}
