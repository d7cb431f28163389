package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-editor/internal/dto"
	"github.com/noah-isme/sma-timetable-editor/internal/editor"
	"github.com/noah-isme/sma-timetable-editor/internal/export"
	"github.com/noah-isme/sma-timetable-editor/internal/models"
	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
	"github.com/noah-isme/sma-timetable-editor/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-editor/pkg/errors"
)

type snapshotLoader interface {
	Load(ctx context.Context, window timetable.TimeRange) (*timetable.Snapshot, bool, error)
	Invalidate(ctx context.Context)
}

type catalogReader interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListClassSubjects(ctx context.Context, classID int64) ([]models.ClassSubject, error)
	ListTopics(ctx context.Context) ([]models.InvigilateTopic, error)
}

// BundleFactory builds the backend API bundle of one session.
type BundleFactory func(classID, staffID int64) editor.APIBundle

// EditorServiceConfig carries the settings EditorService reads.
type EditorServiceConfig struct {
	Shape         string
	ExpandRepeats bool
}

// EditorService opens editor sessions over a loaded snapshot and drives them on behalf of HTTP
// callers. Sessions are owned by the user that opened them.
type EditorService struct {
	snapshots snapshotLoader
	catalog   catalogReader
	bundles   BundleFactory
	store     *editor.Store
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       EditorServiceConfig
	now       func() time.Time
}

// NewEditorService constructs the service.
func NewEditorService(snapshots snapshotLoader, catalog catalogReader, bundles BundleFactory, store *editor.Store, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg EditorServiceConfig) *EditorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Shape == "" {
		cfg.Shape = config.BackendShapeClass
	}
	return &EditorService{
		snapshots: snapshots,
		catalog:   catalog,
		bundles:   bundles,
		store:     store,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// OpenSession validates the request, loads the window snapshot and opens a session.
func (s *EditorService) OpenSession(ctx context.Context, req dto.OpenSessionRequest, claims *models.JWTClaims) (*editor.View, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid editor session payload")
	}
	kind, ok := editor.ParseKind(req.Kind)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event kind")
	}
	mode := editor.ModeAdd
	if req.Mode == string(editor.ModeEdit) {
		mode = editor.ModeEdit
	}
	if mode == editor.ModeAdd && req.Selection == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "selection is required when adding an event")
	}

	staffID, err := s.resolveStaff(req.StaffID, claims)
	if err != nil {
		return nil, err
	}
	lessonOnClass := kind == editor.KindLesson && s.cfg.Shape == config.BackendShapeClass
	if lessonOnClass && req.ClassID == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id is required for lessons")
	}
	if !lessonOnClass && staffID == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staff_id is required")
	}

	window := req.Window.Range()
	snap, _, err := s.snapshots.Load(ctx, window)
	if err != nil {
		return nil, err
	}

	sctx := &editor.SessionContext{
		Mode:          mode,
		WindowStart:   window.Start,
		WindowEnd:     window.End,
		Rooms:         timetable.BuildIndex(snap.Rooms),
		Invigilations: timetable.BuildIndex(snap.Invigilations),
		StaffID:       staffID,
		ExpandRepeats: s.cfg.ExpandRepeats,
	}
	if req.Selection != nil {
		sctx.Selection = req.Selection.Range()
	}
	if mode == editor.ModeEdit && req.Event != nil {
		sctx.Initial = req.Event.Event(kind)
	}
	if err := s.loadOptions(ctx, kind, req.ClassID, sctx); err != nil {
		return nil, err
	}

	opts := []editor.Option{editor.WithLogger(s.logger), editor.WithClock(s.now)}
	if claims != nil {
		opts = append(opts, editor.WithOwner(claims.UserID))
	}
	sess, err := editor.Open(kind, sctx, s.bundles(req.ClassID, staffID), opts...)
	if err != nil {
		return nil, err
	}
	s.store.Put(sess)
	s.metrics.SetOpenSessions(s.store.Len())
	view := sess.View()
	return &view, nil
}

// Session returns the current view of a session.
func (s *EditorService) Session(id string, claims *models.JWTClaims) (*editor.View, error) {
	sess, err := s.lookup(id, claims)
	if err != nil {
		return nil, err
	}
	view := sess.View()
	return &view, nil
}

// PatchForm merges a form patch into the session.
func (s *EditorService) PatchForm(id string, req dto.FormPatchRequest, claims *models.JWTClaims) (*editor.View, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid form patch")
	}
	sess, err := s.lookup(id, claims)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Patch(req.Patch(sess.Form().Range)); err != nil {
		return nil, err
	}
	view := sess.View()
	return &view, nil
}

// Validate lists every problem with the session's form.
func (s *EditorService) Validate(id string, claims *models.JWTClaims) (*dto.ValidationResult, error) {
	sess, err := s.lookup(id, claims)
	if err != nil {
		return nil, err
	}
	messages, err := sess.Validate()
	if err != nil {
		return nil, err
	}
	s.metrics.RecordConflictCheck(string(sess.Kind()), len(messages) > 0)
	if messages == nil {
		messages = []string{}
	}
	return &dto.ValidationResult{Valid: len(messages) == 0, Messages: messages}, nil
}

// Confirm validates and saves the session. The save runs to completion even when the caller
// goes away, so the session never stays busy on a dropped request.
func (s *EditorService) Confirm(ctx context.Context, id string, claims *models.JWTClaims) (*editor.View, error) {
	sess, err := s.lookup(id, claims)
	if err != nil {
		return nil, err
	}
	err = sess.Confirm(context.WithoutCancel(ctx))
	return s.finish(ctx, sess, "confirm", err)
}

// DeleteEvent deletes the event an edit session was opened on.
func (s *EditorService) DeleteEvent(ctx context.Context, id string, claims *models.JWTClaims) (*editor.View, error) {
	sess, err := s.lookup(id, claims)
	if err != nil {
		return nil, err
	}
	err = sess.Delete(context.WithoutCancel(ctx))
	return s.finish(ctx, sess, "delete", err)
}

// Cancel discards a session.
func (s *EditorService) Cancel(id string, claims *models.JWTClaims) error {
	sess, err := s.lookup(id, claims)
	if err != nil {
		return err
	}
	if err := sess.Cancel(); err != nil {
		return err
	}
	s.store.Delete(id)
	s.metrics.RecordSessionOutcome(string(sess.Kind()), "cancel", "ok")
	s.metrics.SetOpenSessions(s.store.Len())
	return nil
}

// CheckConflicts annotates candidate rooms for a range, free rooms first. It backs picker hints
// and never replaces the save-time check.
func (s *EditorService) CheckConflicts(ctx context.Context, req dto.ConflictQuery) (*dto.ConflictReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict query")
	}
	window := req.Window.Range()
	snap, cached, err := s.snapshots.Load(ctx, window)
	if err != nil {
		return nil, err
	}
	rooms, err := s.catalog.ListRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	names := make(map[timetable.ResourceID]string, len(rooms))
	for _, r := range rooms {
		names[timetable.ResourceID(r.ID)] = r.Name
	}

	candidates := make([]timetable.ResourceID, 0, len(rooms))
	if len(req.RoomIDs) > 0 {
		for _, id := range req.RoomIDs {
			candidates = append(candidates, timetable.ResourceID(id))
		}
	} else {
		for _, r := range rooms {
			candidates = append(candidates, timetable.ResourceID(r.ID))
		}
	}

	idx := timetable.BuildIndex(snap.Rooms)
	if req.ExcludeEventID != "" || req.ExcludeRoomID != 0 {
		own := timetable.Booking{
			Resource: timetable.ResourceID(req.ExcludeRoomID),
			Range:    req.Range.Range(),
			Owner:    timetable.EventID(req.ExcludeEventID),
		}
		if req.ExcludeRange != nil {
			own.Range = req.ExcludeRange.Range()
		}
		idx = timetable.Exclude(idx, own)
	}
	ranges := timetable.Within(timetable.Occurrences(req.Range.Range(), req.RepeatCount), window)
	if len(ranges) == 0 {
		ranges = []timetable.TimeRange{req.Range.Range()}
	}

	report := &dto.ConflictReport{Range: req.Range.Range(), Cached: cached, Rooms: []dto.RoomAvailability{}}
	for _, a := range timetable.AnnotateConflicts(idx, candidates, ranges...) {
		room := dto.RoomAvailability{RoomID: int64(a.Resource), Name: names[a.Resource], Conflicting: a.Conflicting}
		for _, r := range ranges {
			room.Overlapping = append(room.Overlapping, timetable.Check(idx, a.Resource, r).Overlapping...)
		}
		report.Rooms = append(report.Rooms, room)
	}
	s.metrics.RecordConflictCheck("room_query", anyConflicting(report.Rooms))
	return report, nil
}

// ExportOccupancy renders a window's room and invigilation occupancy as ics (default), csv or pdf.
func (s *EditorService) ExportOccupancy(ctx context.Context, q dto.OccupancyQuery) (*dto.OccupancyExport, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occupancy query")
	}
	snap, _, err := s.snapshots.Load(ctx, timetable.TimeRange{Start: q.WindowStart, End: q.WindowEnd})
	if err != nil {
		return nil, err
	}
	rooms, err := s.catalog.ListRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	names := export.Names{Rooms: make(map[timetable.ResourceID]string, len(rooms))}
	for _, r := range rooms {
		names.Rooms[timetable.ResourceID(r.ID)] = r.Name
	}

	switch q.Format {
	case "csv":
		body, err := export.RenderCSV(export.OccupancyTable(*snap, names, time.UTC))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render occupancy")
		}
		return &dto.OccupancyExport{Filename: "occupancy.csv", ContentType: "text/csv", Body: body}, nil
	case "pdf":
		body, err := export.RenderPDF(export.OccupancyTable(*snap, names, time.UTC), "Occupancy "+snap.Window().String())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render occupancy")
		}
		return &dto.OccupancyExport{Filename: "occupancy.pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		body := export.OccupancyICS(*snap, names, s.now())
		return &dto.OccupancyExport{Filename: "occupancy.ics", ContentType: "text/calendar; charset=utf-8", Body: []byte(body)}, nil
	}
}

func (s *EditorService) finish(ctx context.Context, sess *editor.Session, action string, err error) (*editor.View, error) {
	kind := string(sess.Kind())
	if err != nil {
		s.metrics.RecordSessionOutcome(kind, action, outcome(err))
		if errors.Is(err, appErrors.ErrValidation) {
			s.metrics.RecordConflictCheck(kind, true)
		}
		return nil, err
	}
	s.metrics.RecordSessionOutcome(kind, action, "ok")
	s.snapshots.Invalidate(context.WithoutCancel(ctx))
	view := sess.View()
	s.store.Delete(sess.ID())
	s.metrics.SetOpenSessions(s.store.Len())
	return &view, nil
}

func (s *EditorService) lookup(id string, claims *models.JWTClaims) (*editor.Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "editor session not found")
	}
	if owner := sess.Owner(); owner != "" && (claims == nil || claims.UserID != owner) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "editor session belongs to another user")
	}
	return sess, nil
}

// resolveStaff defaults the staff id to the caller's and keeps teachers on their own record.
func (s *EditorService) resolveStaff(requested int64, claims *models.JWTClaims) (int64, error) {
	if claims == nil {
		return requested, nil
	}
	if requested == 0 {
		requested = claims.StaffID
	}
	if claims.Role == models.RoleTeacher && requested != 0 && requested != claims.StaffID {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "teachers can only edit their own timetable")
	}
	return requested, nil
}

func (s *EditorService) loadOptions(ctx context.Context, kind editor.EventKind, classID int64, sctx *editor.SessionContext) error {
	switch kind {
	case editor.KindLesson:
		rooms, err := s.catalog.ListRooms(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
		}
		for _, r := range rooms {
			sctx.RoomOptions = append(sctx.RoomOptions, editor.RoomOption{ID: timetable.ResourceID(r.ID), Name: r.Name})
		}
		if classID == 0 {
			return nil
		}
		subjects, err := s.catalog.ListClassSubjects(ctx, classID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class subjects")
		}
		for _, subj := range subjects {
			sctx.Subjects = append(sctx.Subjects, editor.SubjectOption{
				ID:        subj.SubjectID,
				Name:      subj.Name,
				TeacherID: timetable.ResourceID(subj.TeacherID),
			})
		}
	case editor.KindInvigilate:
		topics, err := s.catalog.ListTopics(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invigilation topics")
		}
		for _, topic := range topics {
			sctx.Topics = append(sctx.Topics, editor.TopicOption{ID: topic.ID, Name: topic.Name})
		}
	}
	return nil
}

func outcome(err error) string {
	switch appErrors.FromError(err).Code {
	case appErrors.ErrValidation.Code:
		return "invalid"
	case appErrors.ErrBackendRejected.Code:
		return "rejected"
	case appErrors.ErrBackendUnavailable.Code:
		return "unavailable"
	case appErrors.ErrSessionBusy.Code:
		return "busy"
	case appErrors.ErrSessionClosed.Code:
		return "closed"
	}
	return "error"
}

func anyConflicting(rooms []dto.RoomAvailability) bool {
	for _, r := range rooms {
		if r.Conflicting {
			return true
		}
	}
	return false
}
