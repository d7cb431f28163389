package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	appErrors "github.com/noah-isme/sma-timetable-editor/pkg/errors"
)

// ValidationError carries every problem found by a strategy's Validate.
type ValidationError struct {
	Messages []string `json:"messages"`
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return strings.Join(e.Messages, "; ")
}

func validationFailure(messages []string) error {
	verr := &ValidationError{Messages: messages}
	appErr := appErrors.Wrap(verr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "event failed validation")
	appErr.Details = verr
	return appErr
}

// ConflictDetail is the per-resource conflict report attached to a backend rejection.
type ConflictDetail struct {
	TeacherErrors []string `json:"teacher_error"`
	StudentErrors []string `json:"student_error"`
	RoomErrors    []string `json:"room_error"`
}

// BackendRejection is returned when the backend reply lacks its success code.
type BackendRejection struct {
	Message string          `json:"message"`
	Data    *ConflictDetail `json:"data,omitempty"`
}

func (e *BackendRejection) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Structured reports whether the backend named conflicting resources.
func (e *BackendRejection) Structured() bool {
	return e != nil && e.Data != nil
}

func rejection(reply *Reply) error {
	rej := &BackendRejection{Message: reply.Message, Data: parseConflictDetail(reply.Data)}
	if rej.Message == "" {
		rej.Message = appErrors.ErrBackendRejected.Message
	}
	appErr := appErrors.Wrap(rej, appErrors.ErrBackendRejected.Code, appErrors.ErrBackendRejected.Status, rej.Message)
	appErr.Details = rej
	return appErr
}

// parseConflictDetail returns nil unless data is an object carrying at least one of the conflict
// keys. Missing lists default to empty.
func parseConflictDetail(data json.RawMessage) *ConflictDetail {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	detail := &ConflictDetail{}
	found := false
	for key, target := range map[string]*[]string{
		"teacher_error": &detail.TeacherErrors,
		"student_error": &detail.StudentErrors,
		"room_error":    &detail.RoomErrors,
	} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		found = true
		*target = decodeMessages(value)
	}
	if !found {
		return nil
	}
	for _, list := range []*[]string{&detail.TeacherErrors, &detail.StudentErrors, &detail.RoomErrors} {
		if *list == nil {
			*list = []string{}
		}
	}
	return detail
}

// decodeMessages accepts a list of strings or of arbitrary values, rendering the latter as JSON.
func decodeMessages(value json.RawMessage) []string {
	var messages []string
	if err := json.Unmarshal(value, &messages); err == nil {
		return messages
	}
	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, string(item))
	}
	return out
}

// CapabilityError reports an API bundle missing what a strategy needs.
type CapabilityError struct {
	Kind       EventKind
	Capability string
}

func (e *CapabilityError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("api bundle is missing %s", e.Capability)
	}
	return fmt.Sprintf("%s events need %s", e.Kind, e.Capability)
}

func capabilityError(kind EventKind, capability string) error {
	cerr := &CapabilityError{Kind: kind, Capability: capability}
	return appErrors.Wrap(cerr, appErrors.ErrCapabilityMismatch.Code, appErrors.ErrCapabilityMismatch.Status, cerr.Error())
}
