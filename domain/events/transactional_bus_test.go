package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	published []Event
	err       error
}

func (p *recordingPublisher) Publish(event Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

func TestTransactionalBusFlushDeliversInOrder(t *testing.T) {
	downstream := &recordingPublisher{}
	bus := NewTransactionalBus(downstream)

	require.NoError(t, bus.Publish(WagerPlacedEvent{WagerID: 1}))
	require.NoError(t, bus.Publish(BalanceChangeEvent{UserID: 42}))

	// Nothing reaches the downstream publisher until flush
	assert.Empty(t, downstream.published)

	require.NoError(t, bus.Flush(context.Background()))
	require.Len(t, downstream.published, 2)
	assert.Equal(t, EventTypeWagerPlaced, downstream.published[0].Type())
	assert.Equal(t, EventTypeBalanceChange, downstream.published[1].Type())

	// Flush drains the buffer
	require.NoError(t, bus.Flush(context.Background()))
	assert.Len(t, downstream.published, 2)
}

func TestTransactionalBusDiscard(t *testing.T) {
	downstream := &recordingPublisher{}
	bus := NewTransactionalBus(downstream)

	require.NoError(t, bus.Publish(WagerPlacedEvent{WagerID: 1}))
	bus.Discard()

	require.NoError(t, bus.Flush(context.Background()))
	assert.Empty(t, downstream.published)
}

func TestTransactionalBusFlushReportsDownstreamError(t *testing.T) {
	downstream := &recordingPublisher{err: errors.New("nats down")}
	bus := NewTransactionalBus(downstream)

	require.NoError(t, bus.Publish(WagerPlacedEvent{WagerID: 1}))
	assert.Error(t, bus.Flush(context.Background()))
}
