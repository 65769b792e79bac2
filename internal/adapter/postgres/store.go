// Package postgres implements the primary event store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-events-service/internal/domain"
	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                 SERIAL PRIMARY KEY,
	event_type         VARCHAR,
	latitude           DOUBLE PRECISION,
	longitude          DOUBLE PRECISION,
	description        VARCHAR,
	severity           INTEGER,
	online             BOOLEAN,
	"timestamp"        TIMESTAMP DEFAULT (now() AT TIME ZONE 'utc'),
	predicted_severity DOUBLE PRECISION NULL
)`

const selectColumns = `id, event_type, latitude, longitude, description, severity, online, "timestamp", predicted_severity`

// Open creates the connection pool and verifies connectivity.
func Open(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// EventStore implements domain.EventStore.
type EventStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEventStore wraps an open pool.
func NewEventStore(db *sql.DB, logger *slog.Logger) *EventStore {
	return &EventStore{db: db, logger: logger.With("component", "postgres")}
}

// InitSchema creates the events table when it does not exist. Safe to call on every start.
func (s *EventStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return storageError("init schema", err)
	}
	return nil
}

// Insert stores e and returns it with the server-assigned ID and timestamp.
func (s *EventStore) Insert(ctx context.Context, e domain.Event) (domain.Event, error) {
	const q = `
		INSERT INTO events (event_type, latitude, longitude, description, severity, online, predicted_severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, "timestamp"`

	var predicted sql.NullFloat64
	if e.PredictedSeverity != nil {
		predicted = sql.NullFloat64{Float64: *e.PredictedSeverity, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, q,
		e.EventType, e.Latitude, e.Longitude, e.Description, e.Severity, e.Online, predicted,
	).Scan(&e.ID, &e.Timestamp)
	if err != nil {
		return domain.Event{}, storageError("insert", err)
	}
	e.Timestamp = asUTC(e.Timestamp)
	return e, nil
}

// List returns all events in insertion order.
func (s *EventStore) List(ctx context.Context) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, storageError("list", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storageError("list", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list", err)
	}
	return events, nil
}

// Get returns the event with the given ID, or nil when no row matches.
func (s *EventStore) Get(ctx context.Context, id int64) (*domain.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("get", err)
	}
	return &e, nil
}

// Ping verifies the pool can reach the database.
func (s *EventStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEvent reads one row of selectColumns. Columns are nullable in the schema,
// so NULLs from rows written by other tools decode to zero values.
func scanEvent(sc scanner) (domain.Event, error) {
	var (
		e           domain.Event
		eventType   sql.NullString
		lat, lon    sql.NullFloat64
		description sql.NullString
		severity    sql.NullInt64
		online      sql.NullBool
		ts          sql.NullTime
		predicted   sql.NullFloat64
	)
	if err := sc.Scan(&e.ID, &eventType, &lat, &lon, &description, &severity, &online, &ts, &predicted); err != nil {
		return domain.Event{}, err
	}

	e.EventType = eventType.String
	e.Latitude = lat.Float64
	e.Longitude = lon.Float64
	e.Description = description.String
	e.Severity = int(severity.Int64)
	e.Online = online.Bool
	if ts.Valid {
		e.Timestamp = asUTC(ts.Time)
	}
	if predicted.Valid {
		v := predicted.Float64
		e.PredictedSeverity = &v
	}
	return e, nil
}

// asUTC reinterprets a TIMESTAMP WITHOUT TIME ZONE value, which lib/pq returns
// in a zero-offset location, as UTC.
func asUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// storageError wraps a driver error, lifting the SQLSTATE out of *pq.Error.
func storageError(op string, err error) error {
	se := &domain.StorageError{Op: op, Err: err}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		se.Code = string(pqErr.Code)
	}
	return se
}
