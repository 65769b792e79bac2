// Package redis implements the mirror store on a Redis stream.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/disaster-events-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const payloadField = "payload"

// Open parses a redis:// URL and verifies the server answers.
func Open(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Mirror implements domain.Mirror. Stream entry IDs serve as push keys.
type Mirror struct {
	client goredis.Cmdable
	stream string
	logger *slog.Logger
}

// NewMirror appends to and reads from the given stream.
func NewMirror(client goredis.Cmdable, stream string, logger *slog.Logger) *Mirror {
	return &Mirror{
		client: client,
		stream: stream,
		logger: logger.With("component", "redis_mirror"),
	}
}

// Append adds record to the stream and returns its entry ID.
func (m *Mirror) Append(ctx context.Context, record domain.MirrorRecord) (string, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal mirror record: %w", err)
	}

	id, err := m.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: m.stream,
		Values: map[string]any{payloadField: payload},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", m.stream, err)
	}
	return id, nil
}

// List reads the whole stream. A stream that does not exist yet is empty.
func (m *Mirror) List(ctx context.Context) (map[string]domain.MirrorRecord, error) {
	msgs, err := m.client.XRange(ctx, m.stream, "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("xrange %s: %w", m.stream, err)
	}
	return m.decode(msgs), nil
}

func (m *Mirror) decode(msgs []goredis.XMessage) map[string]domain.MirrorRecord {
	records := make(map[string]domain.MirrorRecord, len(msgs))
	for _, msg := range msgs {
		payload, ok := msg.Values[payloadField].(string)
		if !ok {
			m.logger.Warn("invalid message format in stream, skipping", "message_id", msg.ID)
			continue
		}
		var rec domain.MirrorRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil || rec == nil {
			m.logger.Warn("failed to unmarshal mirror record, skipping", "message_id", msg.ID, "error", err)
			continue
		}
		records[msg.ID] = rec
	}
	return records
}
