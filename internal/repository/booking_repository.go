package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-editor/internal/models"
	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

// BookingRepository reads the occupancy read model. Writes happen in the schedule backend.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListRoomBookings returns room bookings intersecting the window.
func (r *BookingRepository) ListRoomBookings(ctx context.Context, window timetable.TimeRange) ([]models.RoomBookingRow, error) {
	const query = `SELECT id, room_id, COALESCE(event_id, '') AS event_id, start_at, end_at FROM room_bookings WHERE start_at < $2 AND end_at > $1 ORDER BY room_id, start_at`
	var rows []models.RoomBookingRow
	if err := r.db.SelectContext(ctx, &rows, query, window.Start, window.End); err != nil {
		return nil, fmt.Errorf("list room bookings: %w", err)
	}
	return rows, nil
}

// ListInvigilations returns teacher invigilation commitments intersecting the window.
func (r *BookingRepository) ListInvigilations(ctx context.Context, window timetable.TimeRange) ([]models.InvigilationRow, error) {
	const query = `SELECT id, teacher_id, COALESCE(event_id, '') AS event_id, start_at, end_at FROM invigilations WHERE start_at < $2 AND end_at > $1 ORDER BY teacher_id, start_at`
	var rows []models.InvigilationRow
	if err := r.db.SelectContext(ctx, &rows, query, window.Start, window.End); err != nil {
		return nil, fmt.Errorf("list invigilations: %w", err)
	}
	return rows, nil
}
