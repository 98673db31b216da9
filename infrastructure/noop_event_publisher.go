package infrastructure

import (
	"paripool/domain/events"

	log "github.com/sirupsen/logrus"
)

// NoopEventPublisher drops all events. Used when no message bus is configured.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a publisher that discards events
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish logs and discards the event
func (p *NoopEventPublisher) Publish(event events.Event) error {
	log.WithField("eventType", event.Type()).Debug("Discarding domain event (no publisher configured)")
	return nil
}
