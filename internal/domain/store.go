package domain

import "context"

// EventStore is the primary, relational system of record.
type EventStore interface {
	// Insert stores e and returns it with the assigned ID and timestamp.
	Insert(ctx context.Context, e Event) (Event, error)

	// List returns all events in insertion order.
	List(ctx context.Context) ([]Event, error)

	// Get returns the event with the given ID, or nil without error when absent.
	Get(ctx context.Context, id int64) (*Event, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
