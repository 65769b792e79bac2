package redis

import (
	"io"
	"log/slog"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMirror() *Mirror {
	return NewMirror(nil, "events", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMirror_Decode(t *testing.T) {
	msgs := []goredis.XMessage{
		{ID: "1714144200000-0", Values: map[string]any{"payload": `{"id":1,"event_type":"flood","predicted_severity":null}`}},
		{ID: "1714144200001-0", Values: map[string]any{"other": "field"}},
		{ID: "1714144200002-0", Values: map[string]any{"payload": `not json`}},
		{ID: "1714144200003-0", Values: map[string]any{"payload": `{"event_type":"fire"}`}},
	}

	records := testMirror().decode(msgs)

	require.Len(t, records, 2)
	flood := records["1714144200000-0"]
	assert.Equal(t, "flood", flood["event_type"])
	id, ok := flood.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Nil(t, flood["predicted_severity"])
	assert.Equal(t, "fire", records["1714144200003-0"]["event_type"])
}

func TestMirror_DecodeEmpty(t *testing.T) {
	records := testMirror().decode(nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
