// Package service orchestrates event creation and reads across the primary
// store, the mirror, the severity predictor and the alert feed.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/disaster-events-service/internal/domain"
	"github.com/couchcryptid/disaster-events-service/internal/observability"
)

// Options carries the optional collaborators. A nil field means the component
// failed to initialize or is not configured.
type Options struct {
	Predictor      domain.Predictor
	Mirror         domain.Mirror
	Alerts         domain.AlertPublisher
	AlertThreshold float64
}

// Service is the event use-case layer. The primary store is the only
// collaborator whose failure surfaces to callers.
type Service struct {
	store     domain.EventStore
	predictor domain.Predictor
	mirror    domain.Mirror
	alerts    domain.AlertPublisher
	threshold float64
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service. A zero AlertThreshold uses domain.DefaultAlertThreshold.
func New(store domain.EventStore, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	threshold := opts.AlertThreshold
	if threshold == 0 {
		threshold = domain.DefaultAlertThreshold
	}
	s := &Service{
		store:     store,
		predictor: opts.Predictor,
		mirror:    opts.Mirror,
		alerts:    opts.Alerts,
		threshold: threshold,
		logger:    logger.With("component", "service"),
		metrics:   metrics,
	}
	metrics.PredictorAvailable.Set(boolGauge(s.predictor != nil))
	metrics.MirrorEnabled.Set(boolGauge(s.mirror != nil))
	return s
}

// Create scores, stores and mirrors a new event. Only the primary insert can
// fail the call; prediction, mirroring and alerting degrade silently.
func (s *Service) Create(ctx context.Context, in domain.NewEvent) (domain.Event, error) {
	var predicted *float64
	if r := s.predict(ctx, in); r.OK() {
		predicted = &r.Value
	}

	stored, err := s.store.Insert(ctx, in.Event(predicted))
	if err != nil {
		s.metrics.CreateFailures.Inc()
		s.logger.Error("insert event failed", "error", err, "event_type", in.EventType)
		return domain.Event{}, fmt.Errorf("create event: %w", err)
	}
	s.metrics.EventsCreated.Inc()

	if r := s.appendMirror(ctx, stored); r.OK() {
		s.logger.Debug("event mirrored", "id", stored.ID, "key", r.Value)
	}
	s.raiseAlert(ctx, stored)

	return stored, nil
}

// List reads both stores independently. A failing side is reported as empty.
func (s *Service) List(ctx context.Context) domain.EventListing {
	primary := s.listPrimary(ctx).Or([]domain.Event{})
	records := s.listMirror(ctx).Or(nil)

	mirror := make([]domain.MirrorRecord, 0, len(records))
	for _, key := range domain.MirrorKeys(records) {
		mirror = append(mirror, records[key])
	}
	return domain.EventListing{Primary: primary, Mirror: mirror}
}

// Get looks an event up by primary-store ID in both stores. It returns
// domain.ErrNotFound when neither store has it.
func (s *Service) Get(ctx context.Context, id int64) (domain.EventLookup, error) {
	primary := s.getPrimary(ctx, id).Or(nil)
	mirror := domain.FindMirrorRecord(s.listMirror(ctx).Or(nil), id)

	if primary == nil && mirror == nil {
		return domain.EventLookup{}, domain.ErrNotFound
	}
	return domain.EventLookup{Primary: primary, Mirror: mirror}, nil
}

// CheckReadiness reports whether the primary store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("primary store: %w", err)
	}
	return nil
}

func (s *Service) predict(ctx context.Context, in domain.NewEvent) domain.Result[float64] {
	if s.predictor == nil {
		s.metrics.Predictions.WithLabelValues("unavailable").Inc()
		return domain.Fail[float64](domain.ErrPredictorUnavailable)
	}
	v, err := s.predictor.Predict(ctx, in.Latitude, in.Longitude, in.Severity)
	if err != nil {
		s.metrics.Predictions.WithLabelValues("error").Inc()
		s.logger.Warn("severity prediction failed, storing without prediction", "error", err)
		return domain.Fail[float64](err)
	}
	s.metrics.Predictions.WithLabelValues("success").Inc()
	return domain.Ok(v)
}

func (s *Service) appendMirror(ctx context.Context, e domain.Event) domain.Result[string] {
	if s.mirror == nil {
		s.metrics.MirrorOperations.WithLabelValues("append", "skipped").Inc()
		return domain.Fail[string](domain.ErrMirrorUnavailable)
	}
	key, err := s.mirror.Append(ctx, domain.NewMirrorRecord(e))
	if err != nil {
		s.metrics.MirrorOperations.WithLabelValues("append", "error").Inc()
		s.logger.Warn("mirror append failed", "error", err, "id", e.ID)
		return domain.Fail[string](err)
	}
	s.metrics.MirrorOperations.WithLabelValues("append", "success").Inc()
	return domain.Ok(key)
}

func (s *Service) listMirror(ctx context.Context) domain.Result[map[string]domain.MirrorRecord] {
	if s.mirror == nil {
		s.metrics.MirrorOperations.WithLabelValues("list", "skipped").Inc()
		return domain.Fail[map[string]domain.MirrorRecord](domain.ErrMirrorUnavailable)
	}
	records, err := s.mirror.List(ctx)
	if err != nil {
		s.metrics.MirrorOperations.WithLabelValues("list", "error").Inc()
		s.logger.Warn("mirror read failed", "error", err)
		return domain.Fail[map[string]domain.MirrorRecord](err)
	}
	s.metrics.MirrorOperations.WithLabelValues("list", "success").Inc()
	return domain.Ok(records)
}

func (s *Service) listPrimary(ctx context.Context) domain.Result[[]domain.Event] {
	events, err := s.store.List(ctx)
	if err != nil {
		s.metrics.PrimaryReads.WithLabelValues("list", "error").Inc()
		s.logger.Warn("primary list failed", "error", err)
		return domain.Fail[[]domain.Event](err)
	}
	s.metrics.PrimaryReads.WithLabelValues("list", "success").Inc()
	return domain.Ok(events)
}

func (s *Service) getPrimary(ctx context.Context, id int64) domain.Result[*domain.Event] {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		s.metrics.PrimaryReads.WithLabelValues("get", "error").Inc()
		s.logger.Warn("primary get failed", "error", err, "id", id)
		return domain.Fail[*domain.Event](err)
	}
	s.metrics.PrimaryReads.WithLabelValues("get", "success").Inc()
	return domain.Ok(e)
}

func (s *Service) raiseAlert(ctx context.Context, e domain.Event) {
	if s.alerts == nil {
		return
	}
	alert, ok := domain.NewAlert(e, s.threshold)
	if !ok {
		return
	}
	if err := s.alerts.PublishAlert(ctx, alert); err != nil {
		s.metrics.AlertsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("alert publish failed", "error", err, "id", e.ID)
		return
	}
	s.metrics.AlertsPublished.WithLabelValues("success").Inc()
	s.logger.Info("high severity alert raised", "id", e.ID, "predicted_severity", alert.PredictedSeverity)
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
