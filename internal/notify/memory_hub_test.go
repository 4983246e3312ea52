package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return ChangeEvent{}
	}
}

func TestMemoryHub_PublishSubscribe(t *testing.T) {
	h := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := h.Subscribe(ctx, Filter{})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, h.Publish(ctx, ChangeEvent{
		GraphID: "proc-1", StepID: "step-a", EventType: EventStepAdded,
	}))

	e := recvEvent(t, ch)
	assert.Equal(t, EventStepAdded, e.EventType)
	assert.Equal(t, "step-a", e.StepID)
}

func TestMemoryHub_FilterByGraph(t *testing.T) {
	h := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := h.Subscribe(ctx, Filter{GraphID: "proc-1"})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, h.Publish(ctx, ChangeEvent{GraphID: "proc-2", EventType: EventStepAdded}))
	require.NoError(t, h.Publish(ctx, ChangeEvent{GraphID: "proc-1", EventType: EventGraphSaved}))

	e := recvEvent(t, ch)
	assert.Equal(t, EventGraphSaved, e.EventType, "events for other graphs are filtered out")
}

func TestMemoryHub_FilterByEventType(t *testing.T) {
	h := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := h.Subscribe(ctx, Filter{EventTypes: []string{EventGraphSaved}})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, h.Publish(ctx, ChangeEvent{GraphID: "proc-1", EventType: EventStepAdded}))
	require.NoError(t, h.Publish(ctx, ChangeEvent{GraphID: "proc-1", EventType: EventGraphSaved}))

	e := recvEvent(t, ch)
	assert.Equal(t, EventGraphSaved, e.EventType)
	assert.Empty(t, ch)
}

func TestMemoryHub_CancelStopsDelivery(t *testing.T) {
	h := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := h.Subscribe(ctx, Filter{})
	require.NoError(t, err)
	cancel()

	require.NoError(t, h.Publish(ctx, ChangeEvent{GraphID: "proc-1", EventType: EventStepAdded}))
	assert.Empty(t, ch)
}

func TestMemoryHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := h.Subscribe(ctx, Filter{})
	require.NoError(t, err)
	defer cancel()

	for i := 0; i < defaultChannelBuffer+10; i++ {
		require.NoError(t, h.Publish(ctx, ChangeEvent{GraphID: "proc-1", EventType: EventStepUpdated}))
	}
	assert.Len(t, ch, defaultChannelBuffer)
}

func TestMemoryHub_CancelledContext(t *testing.T) {
	h := NewMemoryHub()
	ctx, cancelCtx := context.WithCancel(context.Background())
	cancelCtx()

	require.Error(t, h.Publish(ctx, ChangeEvent{}))
	_, _, err := h.Subscribe(ctx, Filter{})
	require.Error(t, err)
}
