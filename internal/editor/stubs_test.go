package editor

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

func intPtr(v int) *int { return &v }

func okCode() *Reply { return &Reply{Code: intPtr(200), Message: "ok"} }

func okStatus() *Reply { return &Reply{Status: intPtr(0), Message: "ok"} }

func room(id int64) *timetable.ResourceID {
	r := timetable.ResourceID(id)
	return &r
}

func subjectRef(id int64) *int64 { return &id }

type classAPIStub struct {
	mu      sync.Mutex
	reply   *Reply
	err     error
	added   []LessonPayload
	edited  []LessonPayload
	deleted []LessonDelete
	classID int64
	block   chan struct{}
}

func (s *classAPIStub) respond() (*Reply, error) {
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.reply == nil {
		return okCode(), nil
	}
	return s.reply, nil
}

func (s *classAPIStub) AddLesson(ctx context.Context, classID int64, p LessonPayload) (*Reply, error) {
	s.mu.Lock()
	s.classID = classID
	s.added = append(s.added, p)
	s.mu.Unlock()
	return s.respond()
}

func (s *classAPIStub) EditLesson(ctx context.Context, classID int64, p LessonPayload) (*Reply, error) {
	s.mu.Lock()
	s.classID = classID
	s.edited = append(s.edited, p)
	s.mu.Unlock()
	return s.respond()
}

func (s *classAPIStub) DeleteLesson(ctx context.Context, classID int64, d LessonDelete) (*Reply, error) {
	s.mu.Lock()
	s.classID = classID
	s.deleted = append(s.deleted, d)
	s.mu.Unlock()
	return s.respond()
}

type staffAPIStub struct {
	reply   *Reply
	edited  []LessonPayload
	deleted []LessonDelete
	staffID int64
}

func (s *staffAPIStub) EditLesson(ctx context.Context, staffID int64, p LessonPayload) (*Reply, error) {
	s.staffID = staffID
	s.edited = append(s.edited, p)
	if s.reply == nil {
		return okStatus(), nil
	}
	return s.reply, nil
}

func (s *staffAPIStub) DeleteLesson(ctx context.Context, staffID int64, d LessonDelete) (*Reply, error) {
	s.staffID = staffID
	s.deleted = append(s.deleted, d)
	if s.reply == nil {
		return okStatus(), nil
	}
	return s.reply, nil
}

type invigilateAPIStub struct {
	reply   *Reply
	added   []InvigilatePayload
	updated []InvigilatePayload
	deleted []json.RawMessage
	staffID int64
}

func (s *invigilateAPIStub) result() (*Reply, error) {
	if s.reply == nil {
		return okCode(), nil
	}
	return s.reply, nil
}

func (s *invigilateAPIStub) AddInvigilate(ctx context.Context, staffID int64, p InvigilatePayload) (*Reply, error) {
	s.staffID = staffID
	s.added = append(s.added, p)
	return s.result()
}

func (s *invigilateAPIStub) UpdateInvigilate(ctx context.Context, staffID int64, p InvigilatePayload) (*Reply, error) {
	s.staffID = staffID
	s.updated = append(s.updated, p)
	return s.result()
}

func (s *invigilateAPIStub) DeleteInvigilate(ctx context.Context, staffID int64, d InvigilateDelete) (*Reply, error) {
	s.staffID = staffID
	raw, _ := json.Marshal(d)
	s.deleted = append(s.deleted, raw)
	return s.result()
}

type unavailabilityAPIStub struct {
	reply   *Reply
	updates []UnavailableUpdate
}

func (s *unavailabilityAPIStub) UpdateUnavailable(ctx context.Context, staffID int64, u UnavailableUpdate) (*Reply, error) {
	s.updates = append(s.updates, u)
	if s.reply == nil {
		return okCode(), nil
	}
	return s.reply, nil
}
