package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-editor/internal/models"
	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-editor/pkg/errors"
)

const snapshotKeyPrefix = "editor:snapshot:"

type bookingReader interface {
	ListRoomBookings(ctx context.Context, window timetable.TimeRange) ([]models.RoomBookingRow, error)
	ListInvigilations(ctx context.Context, window timetable.TimeRange) ([]models.InvigilationRow, error)
}

// SnapshotService loads the occupancy of a viewing window, read through the snapshot cache.
type SnapshotService struct {
	repo    bookingReader
	cache   *CacheService
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSnapshotService constructs the service. cache may be nil.
func NewSnapshotService(repo bookingReader, cache *CacheService, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{repo: repo, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

// Load returns the snapshot for window and whether it came from cache.
func (s *SnapshotService) Load(ctx context.Context, window timetable.TimeRange) (*timetable.Snapshot, bool, error) {
	if !window.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "window end must be after window start")
	}
	key := snapshotKey(window)

	var cached timetable.Snapshot
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	rooms, err := s.repo.ListRoomBookings(ctx, window)
	s.metrics.ObserveDBQuery("list_room_bookings", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room bookings")
	}

	start = time.Now()
	invigilations, err := s.repo.ListInvigilations(ctx, window)
	s.metrics.ObserveDBQuery("list_invigilations", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invigilations")
	}

	snap := &timetable.Snapshot{
		WindowStart:   window.Start,
		WindowEnd:     window.End,
		Rooms:         make([]timetable.Booking, 0, len(rooms)),
		Invigilations: make([]timetable.Booking, 0, len(invigilations)),
	}
	for _, row := range rooms {
		snap.Rooms = append(snap.Rooms, row.Booking())
	}
	for _, row := range invigilations {
		snap.Invigilations = append(snap.Invigilations, row.Booking())
	}

	// Set logs its own failures.
	_ = s.cache.Set(ctx, key, snap, s.ttl)
	s.logger.Debug("occupancy snapshot loaded",
		zap.Int64("window_start", window.Start),
		zap.Int64("window_end", window.End),
		zap.Int("rooms", len(snap.Rooms)),
		zap.Int("invigilations", len(snap.Invigilations)),
	)
	return snap, false, nil
}

// Invalidate drops every cached snapshot. Called after the backend accepted a change.
func (s *SnapshotService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, snapshotKeyPrefix+"*"); err != nil {
		s.logger.Warn("snapshot cache invalidation failed", zap.Error(err))
	}
}

func snapshotKey(window timetable.TimeRange) string {
	return fmt.Sprintf("%s%d:%d", snapshotKeyPrefix, window.Start, window.End)
}
