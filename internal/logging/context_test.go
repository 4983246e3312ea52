package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", SessionID(ctx))
	assert.Equal(t, "", GraphID(ctx))
	assert.Equal(t, "", StepID(ctx))

	ctx = WithIDs(ctx, "sess-123", "proc-1", "step-x")

	assert.Equal(t, "sess-123", SessionID(ctx))
	assert.Equal(t, "proc-1", GraphID(ctx))
	assert.Equal(t, "step-x", StepID(ctx))
}

func TestLogWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := context.Background()
	ctx = WithSessionID(ctx, "sess-abc")
	ctx = WithGraphID(ctx, "proc-7")

	LogWith(ctx, logger).Info("test message")

	out := buf.String()
	assert.Contains(t, out, "session_id=sess-abc")
	assert.Contains(t, out, "graph_id=proc-7")
	assert.NotContains(t, out, "step_id", "absent IDs are not logged")
}

func TestCorrelationHandler(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewCorrelationHandler(inner))

	ctx := WithIDs(context.Background(), "sess-1", "proc-2", "step-3")
	logger.InfoContext(ctx, "pointer down")

	out := buf.String()
	assert.Contains(t, out, "session_id=sess-1")
	assert.Contains(t, out, "graph_id=proc-2")
	assert.Contains(t, out, "step_id=step-3")
}

func TestCorrelationHandler_NoIDs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewCorrelationHandler(inner))

	logger.InfoContext(context.Background(), "plain")

	out := buf.String()
	assert.Contains(t, out, "plain")
	assert.NotContains(t, out, "session_id")
}
