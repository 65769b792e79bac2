package domain

import (
	"context"
	"time"
)

// DefaultAlertThreshold is the predicted severity above which an alert is raised.
const DefaultAlertThreshold = 4.0

// Alert notifies responders of an event whose predicted severity crossed the threshold.
type Alert struct {
	EventID           int64     `json:"event_id"`
	EventType         string    `json:"event_type"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Description       string    `json:"description"`
	Severity          int       `json:"severity"`
	PredictedSeverity float64   `json:"predicted_severity"`
	Threshold         float64   `json:"threshold"`
	RaisedAt          time.Time `json:"raised_at"`
}

// AlertPublisher delivers alerts to downstream responders.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert Alert) error
}

// NewAlert returns an alert for e when its predicted severity is strictly
// greater than threshold. Events without a prediction never alert.
func NewAlert(e Event, threshold float64) (Alert, bool) {
	if e.PredictedSeverity == nil || *e.PredictedSeverity <= threshold {
		return Alert{}, false
	}
	return Alert{
		EventID:           e.ID,
		EventType:         e.EventType,
		Latitude:          e.Latitude,
		Longitude:         e.Longitude,
		Description:       e.Description,
		Severity:          e.Severity,
		PredictedSeverity: *e.PredictedSeverity,
		Threshold:         threshold,
		RaisedAt:          nowUTC(),
	}, true
}
