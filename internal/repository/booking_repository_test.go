package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBookingRepositoryListRoomBookings(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "room_id", "event_id", "start_at", "end_at"}).
		AddRow("b-1", 1, "l-1", 1500, 2500).
		AddRow("b-2", 2, "l-2", 100, 900)
	mock.ExpectQuery(regexp.QuoteMeta("FROM room_bookings WHERE start_at < $2 AND end_at > $1")).
		WithArgs(int64(0), int64(10000)).
		WillReturnRows(rows)

	got, err := repo.ListRoomBookings(context.Background(), timetable.TimeRange{Start: 0, End: 10000})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, timetable.Booking{Resource: 1, Range: timetable.TimeRange{Start: 1500, End: 2500}, Owner: "l-1"}, got[0].Booking())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListInvigilations(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "event_id", "start_at", "end_at"}).
		AddRow("i-1", 500, "inv-1", 1500, 1600)
	mock.ExpectQuery(regexp.QuoteMeta("FROM invigilations WHERE start_at < $2 AND end_at > $1")).
		WithArgs(int64(1000), int64(2000)).
		WillReturnRows(rows)

	got, err := repo.ListInvigilations(context.Background(), timetable.TimeRange{Start: 1000, End: 2000})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, timetable.ResourceID(500), got[0].Booking().Resource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCoalescesMissingEventIDs(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(event_id, '') AS event_id")+".*FROM room_bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "event_id", "start_at", "end_at"}).
			AddRow("b-1", 1, "", 1000, 2000))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(event_id, '') AS event_id")+".*FROM invigilations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "event_id", "start_at", "end_at"}).
			AddRow("i-1", 500, "", 1000, 2000))

	window := timetable.TimeRange{Start: 0, End: 10000}
	rooms, err := repo.ListRoomBookings(context.Background(), window)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Empty(t, rooms[0].Booking().Owner)

	invigilations, err := repo.ListInvigilations(context.Background(), window)
	require.NoError(t, err)
	require.Len(t, invigilations, 1)
	assert.Empty(t, invigilations[0].Booking().Owner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryWrapsErrors(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM room_bookings").WillReturnError(boom)

	_, err := repo.ListRoomBookings(context.Background(), timetable.TimeRange{Start: 0, End: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "list room bookings")
}

func TestCatalogRepository(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM rooms")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Lab A").AddRow(2, "Room 101"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_subjects cs JOIN subjects s")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "name", "teacher_id"}).AddRow(10, "Math", 500))
	mock.ExpectQuery(regexp.QuoteMeta("FROM invigilate_topics")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Finals"))

	rooms, err := repo.ListRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	subjects, err := repo.ListClassSubjects(ctx, 42)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, int64(500), subjects[0].TeacherID)

	topics, err := repo.ListTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Finals", topics[0].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}
