package domain

import (
	"time"
)

// Event is a disaster report as held by the primary store.
type Event struct {
	ID                int64     `json:"id"`
	EventType         string    `json:"event_type"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Description       string    `json:"description"`
	Severity          int       `json:"severity"`
	Online            bool      `json:"online"`
	Timestamp         time.Time `json:"timestamp"`
	PredictedSeverity *float64  `json:"predicted_severity"`
}

// NewEvent holds the caller-supplied fields of an event before it is stored.
type NewEvent struct {
	EventType   string
	Latitude    float64
	Longitude   float64
	Description string
	Severity    int
	Online      bool
}

// Event builds the record to insert. ID and Timestamp are left for the primary store.
func (n NewEvent) Event(predicted *float64) Event {
	return Event{
		EventType:         n.EventType,
		Latitude:          n.Latitude,
		Longitude:         n.Longitude,
		Description:       n.Description,
		Severity:          n.Severity,
		Online:            n.Online,
		PredictedSeverity: predicted,
	}
}

// EventPayload is the create request body. Pointer fields distinguish a missing
// field from its zero value.
type EventPayload struct {
	EventType   *string  `json:"event_type"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Description *string  `json:"description"`
	Severity    *int     `json:"severity"`
	Online      *bool    `json:"online"`
}

// Validate checks field presence and returns the typed input. Values are not
// range-checked.
func (p EventPayload) Validate() (NewEvent, error) {
	var missing []string
	if p.EventType == nil {
		missing = append(missing, "event_type")
	}
	if p.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if p.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if p.Description == nil {
		missing = append(missing, "description")
	}
	if p.Severity == nil {
		missing = append(missing, "severity")
	}
	if p.Online == nil {
		missing = append(missing, "online")
	}
	if len(missing) > 0 {
		return NewEvent{}, &ValidationError{Fields: missing}
	}

	return NewEvent{
		EventType:   *p.EventType,
		Latitude:    *p.Latitude,
		Longitude:   *p.Longitude,
		Description: *p.Description,
		Severity:    *p.Severity,
		Online:      *p.Online,
	}, nil
}

// EventListing is the side-by-side result of reading both stores. The two
// sequences are not correlated or deduplicated.
type EventListing struct {
	Primary []Event
	Mirror  []MirrorRecord
}

// EventLookup is the result of reading one event by ID. At least one side is set.
type EventLookup struct {
	Primary *Event
	Mirror  MirrorRecord
}
