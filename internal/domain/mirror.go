package domain

import (
	"cmp"
	"context"
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Mirror is the secondary real-time store receiving a best-effort copy of each event.
type Mirror interface {
	// Append pushes a record and returns the server-generated push key.
	Append(ctx context.Context, record MirrorRecord) (string, error)

	// List returns every record keyed by push key. A missing feed is an empty map.
	List(ctx context.Context) (map[string]MirrorRecord, error)
}

// MirrorRecord is a loosely-structured event as held by the mirror. Keys written
// by other producers are preserved.
type MirrorRecord map[string]any

// NewMirrorRecord copies a stored event into the mirror shape, stamping a
// client-side UTC timestamp distinct from the primary store's.
func NewMirrorRecord(e Event) MirrorRecord {
	rec := MirrorRecord{
		"id":          e.ID,
		"event_type":  e.EventType,
		"latitude":    e.Latitude,
		"longitude":   e.Longitude,
		"description": e.Description,
		"severity":    e.Severity,
		"online":      e.Online,
		"timestamp":   nowUTC().Format(time.RFC3339Nano),
	}
	if e.PredictedSeverity != nil {
		rec["predicted_severity"] = *e.PredictedSeverity
	} else {
		rec["predicted_severity"] = nil
	}
	return rec
}

// ID returns the record's "id" field when it holds an integral number.
func (r MirrorRecord) ID() (int64, bool) {
	switch v := r["id"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

// MirrorKeys returns the keys of records in append order. Redis stream IDs
// ("<ms>-<seq>") compare numerically; other keys, such as Firebase push keys,
// compare as strings, which is chronological for push keys.
func MirrorKeys(records map[string]MirrorRecord) []string {
	return slices.SortedFunc(maps.Keys(records), compareMirrorKeys)
}

func compareMirrorKeys(a, b string) int {
	am, as, aok := parseStreamID(a)
	bm, bs, bok := parseStreamID(b)
	if aok && bok {
		return cmp.Or(cmp.Compare(am, bm), cmp.Compare(as, bs))
	}
	return strings.Compare(a, b)
}

func parseStreamID(key string) (ms, seq uint64, ok bool) {
	msPart, seqPart, found := strings.Cut(key, "-")
	if !found || msPart == "" {
		return 0, 0, false
	}
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return ms, seq, true
}

// FindMirrorRecord returns the earliest record, in MirrorKeys order, whose id
// equals id.
func FindMirrorRecord(records map[string]MirrorRecord, id int64) MirrorRecord {
	for _, key := range MirrorKeys(records) {
		if got, ok := records[key].ID(); ok && got == id {
			return records[key]
		}
	}
	return nil
}
