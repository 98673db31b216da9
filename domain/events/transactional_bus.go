package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Publisher is the downstream sink a TransactionalBus flushes into
type Publisher interface {
	Publish(event Event) error
}

// TransactionalBus buffers domain events during a database transaction and
// only hands them to the downstream publisher after the transaction commits.
// Events published to a rolled-back transaction are discarded.
type TransactionalBus struct {
	mu         sync.Mutex
	downstream Publisher
	pending    []Event
}

// NewTransactionalBus creates a transactional buffer over the given publisher
func NewTransactionalBus(downstream Publisher) *TransactionalBus {
	return &TransactionalBus{downstream: downstream}
}

// Publish buffers the event until Flush or Discard is called
func (b *TransactionalBus) Publish(event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, event)
	return nil
}

// Flush publishes all buffered events; called after a successful commit.
// A downstream publish failure is logged and does not stop the remaining
// events from being delivered.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	var firstErr error
	for _, event := range pending {
		if err := b.downstream.Publish(event); err != nil {
			log.WithError(err).WithField("eventType", event.Type()).
				Error("Failed to publish buffered domain event")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Discard drops all buffered events; called on rollback
func (b *TransactionalBus) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = nil
}
