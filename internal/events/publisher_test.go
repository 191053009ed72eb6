package events

import (
	"context"
	"testing"
	"time"

	"fantasy_nhl/ingestion/internal/models"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncCompleted_WireFormat(t *testing.T) {
	event := SyncCompleted{
		RunID:       "run-1",
		Day:         models.MustParseDay("2025-01-02"),
		Teams:       12,
		Players:     300,
		Degraded:    []string{"injuries"},
		DurationMS:  1500,
		CompletedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Equal(t, "2025-01-02", decoded["day"])
	assert.Equal(t, float64(300), decoded["players"])
	assert.Equal(t, []any{"injuries"}, decoded["degraded"])
}

func TestNewNATSPublisher_ConnectFailure(t *testing.T) {
	_, err := NewNATSPublisher(Config{URL: "nats://127.0.0.1:1", Subject: "x"})
	assert.Error(t, err)
}

func TestFlushContext_AddsDeadline(t *testing.T) {
	ctx, cancel := flushContext(context.Background(), time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok, "Flush needs a deadline even when the caller has none")
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
}

func TestFlushContext_KeepsEarlierDeadline(t *testing.T) {
	parent, cancelParent := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelParent()
	want, _ := parent.Deadline()

	ctx, cancel := flushContext(parent, time.Minute)
	defer cancel()

	got, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFlushContext_DefaultsTimeout(t *testing.T) {
	ctx, cancel := flushContext(context.Background(), 0)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(defaultFlushTimeout), deadline, 100*time.Millisecond)
}
