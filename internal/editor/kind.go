// Package editor implements the timetable event editor: one strategy per event kind sharing a
// common add/edit lifecycle, driven by a Session.
package editor

import "strings"

// EventKind selects the strategy handling an editor session.
type EventKind string

const (
	KindLesson      EventKind = "lesson"
	KindUnavailable EventKind = "unavailable"
	KindInvigilate  EventKind = "invigilate"
)

// ParseKind normalises a kind name.
func ParseKind(raw string) (EventKind, bool) {
	kind := EventKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case KindLesson, KindUnavailable, KindInvigilate:
		return kind, true
	}
	return "", false
}

// Mode distinguishes creating an event from editing an existing one.
type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)
