package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/couchcryptid/disaster-events-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxBodyBytes = 1 << 20

// createResponse echoes the stored event without its timestamp.
type createResponse struct {
	ID                int64    `json:"id"`
	EventType         string   `json:"event_type"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Description       string   `json:"description"`
	Severity          int      `json:"severity"`
	Online            bool     `json:"online"`
	PredictedSeverity *float64 `json:"predicted_severity"`
}

type listResponse struct {
	Postgres []domain.Event        `json:"postgres_events"`
	Firebase []domain.MirrorRecord `json:"firebase_events"`
}

type getResponse struct {
	Postgres *domain.Event       `json:"postgres"`
	Firebase domain.MirrorRecord `json:"firebase"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload domain.EventPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, decodeDetail(err))
		return
	}

	in, err := payload.Validate()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	e, err := s.events.Create(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store event")
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, createResponse{
		ID:                e.ID,
		EventType:         e.EventType,
		Latitude:          e.Latitude,
		Longitude:         e.Longitude,
		Description:       e.Description,
		Severity:          e.Severity,
		Online:            e.Online,
		PredictedSeverity: e.PredictedSeverity,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	listing := s.events.List(r.Context())

	resp := listResponse{Postgres: listing.Primary, Firebase: listing.Mirror}
	if resp.Postgres == nil {
		resp.Postgres = []domain.Event{}
	}
	if resp.Firebase == nil {
		resp.Firebase = []domain.MirrorRecord{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("event_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "event_id must be an integer")
		return
	}

	lookup, err := s.events.Get(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read event")
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, getResponse{Postgres: lookup.Primary, Firebase: lookup.Mirror})
}

// decodeDetail turns a JSON decoding failure into a client-facing message.
func decodeDetail(err error) string {
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return fmt.Sprintf("field %s must be of type %s", typeErr.Field, typeErr.Type)
	case errors.As(err, &maxErr):
		return fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)
	default:
		return "request body must be a JSON object"
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	sharedobs.WriteJSON(w, status, errorResponse{Detail: detail})
}
