// Package domain models disaster events reported to the service and the ports
// through which they are stored, mirrored and scored.
//
// # Event lifecycle
//
// An Event is created exactly once through the create endpoint. The primary
// store (PostgreSQL) assigns its integer ID and server-side UTC timestamp. The
// event is never updated or deleted by the service afterwards.
//
// # Stores
//
// The primary store is the system of record. The mirror (Firebase Realtime
// Database or a Redis stream) receives a best-effort copy as a loosely-structured
// [MirrorRecord] keyed by a server-generated push key. The two stores are written
// sequentially without any cross-store transaction, so either may miss a record
// the other holds.
//
// Mirror records carry the primary-store ID in their "id" field so read-by-id can
// locate a record in the mirror when the primary store does not return it.
// Records written by other producers may lack that field; they are only reachable
// through read-all.
//
// # Predicted severity
//
// The optional [Predictor] turns the feature row
//
//	[latitude, longitude, severity]
//
// into a single scalar which is stored verbatim as PredictedSeverity. No
// normalization or range clamping is applied. A nil PredictedSeverity means the
// model was not loaded or failed for that event.
//
// # Alerts
//
// When the predicted severity is strictly greater than the configured threshold
// (4 by default, on the 1-5 reporting scale) an [Alert] is raised for downstream
// responders. Alerts are best-effort like mirror writes.
package domain
