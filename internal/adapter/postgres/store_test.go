package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/couchcryptid/disaster-events-service/internal/domain"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "event_type", "latitude", "longitude", "description", "severity", "online", "timestamp", "predicted_severity"}

// lib/pq hands back TIMESTAMP columns in a zero-offset location rather than UTC.
var storedAt = time.Date(2024, time.April, 26, 15, 10, 0, 0, time.FixedZone("", 0))

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *EventStore) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mock, NewEventStore(db, logger)
}

func TestInitSchema(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS events`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`INSERT INTO events`).
		WithArgs("flood", 12.97, 77.59, "river overflow", 3, true, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp"}).AddRow(int64(1), storedAt))

	got, err := store.Insert(context.Background(), domain.Event{
		EventType: "flood", Latitude: 12.97, Longitude: 77.59,
		Description: "river overflow", Severity: 3, Online: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, time.UTC, got.Timestamp.Location())
	assert.True(t, storedAt.Equal(got.Timestamp))
	assert.Nil(t, got.PredictedSeverity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_WithPrediction(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`INSERT INTO events`).
		WithArgs("cyclone", 19.07, 72.87, "landfall", 5, false, 4.75).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp"}).AddRow(int64(7), storedAt))

	p := 4.75
	got, err := store.Insert(context.Background(), domain.Event{
		EventType: "cyclone", Latitude: 19.07, Longitude: 72.87,
		Description: "landfall", Severity: 5, PredictedSeverity: &p,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	require.NotNil(t, got.PredictedSeverity)
	assert.Equal(t, 4.75, *got.PredictedSeverity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_ConstraintViolation(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`INSERT INTO events`).
		WillReturnError(&pq.Error{Code: "23502", Message: "null value in column"})

	_, err := store.Insert(context.Background(), domain.Event{EventType: "flood"})
	require.Error(t, err)

	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert", se.Op)
	assert.Equal(t, "23502", se.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	mock, store := setupMockDB(t)

	rows := sqlmock.NewRows(columns).
		AddRow(int64(1), "flood", 12.9, 77.6, "river overflow", int64(4), true, storedAt, 3.25).
		AddRow(int64(2), "fire", 1.0, 2.0, "brush", int64(2), false, storedAt, nil).
		AddRow(int64(3), nil, nil, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery(`SELECT (.+) FROM events ORDER BY id`).WillReturnRows(rows)

	events, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, domain.Event{
		ID: 1, EventType: "flood", Latitude: 12.9, Longitude: 77.6,
		Description: "river overflow", Severity: 4, Online: true,
		Timestamp:         time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC),
		PredictedSeverity: ptr(3.25),
	}, events[0])
	assert.Nil(t, events[1].PredictedSeverity)

	// Rows written by other tools may carry NULLs.
	assert.Equal(t, domain.Event{ID: 3}, events[2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Empty(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM events`).WillReturnRows(sqlmock.NewRows(columns))

	events, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_QueryError(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM events`).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "events" does not exist`})

	events, err := store.List(context.Background())
	assert.Nil(t, events)

	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "list", se.Op)
	assert.Equal(t, "42P01", se.Code)
}

func TestGet(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(2), "fire", 1.0, 2.0, "brush", int64(2), false, storedAt, nil))

	got, err := store.Get(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "fire", got.EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(columns))

	got, err := store.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_ConnectionError(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).WillReturnError(sql.ErrConnDone)

	got, err := store.Get(context.Background(), 1)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, sql.ErrConnDone)

	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.Empty(t, se.Code)
}

func TestPing(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectPing()
	assert.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err := store.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage ping")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptr(v float64) *float64 { return &v }
