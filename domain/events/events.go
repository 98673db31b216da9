package events

import "paripool/domain/entities"

// EventType represents different types of domain events in the system
type EventType string

const (
	EventTypeUserCreated       EventType = "user_created"
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeWagerPlaced       EventType = "wager_placed"
	EventTypeEventStateChange  EventType = "event_state_change"
	EventTypeEventSettled      EventType = "event_settled"
	EventTypeEvidenceSubmitted EventType = "evidence_submitted"
)

// Event is the base interface for all domain events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a new user and wallet creation
type UserCreatedEvent struct {
	UserID         int64
	Username       string
	InitialBalance int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BalanceChangeEvent represents a wallet mutation that occurred
type BalanceChangeEvent struct {
	UserID          int64
	AvailableDelta  int64
	CommittedDelta  int64
	AvailableAfter  int64
	CommittedAfter  int64
	TransactionType entities.TransactionType
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// WagerPlacedEvent represents a stake accepted into an event's pool
type WagerPlacedEvent struct {
	WagerID int64
	EventID int64
	UserID  int64
	Option  string
	Amount  int64
	Odds    float64
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// EventStateChangeEvent represents an event lifecycle transition
type EventStateChangeEvent struct {
	EventID   int64
	OldStatus string
	NewStatus string
}

func (e EventStateChangeEvent) Type() EventType {
	return EventTypeEventStateChange
}

// EventSettledEvent represents a completed settlement
type EventSettledEvent struct {
	EventID       int64
	WinningOption string
	TotalPool     int64
	Commission    int64
	WinnersCount  int
	TotalPayout   int64
}

func (e EventSettledEvent) Type() EventType {
	return EventTypeEventSettled
}

// EvidenceSubmittedEvent represents a proof-of-outcome record being accepted
type EvidenceSubmittedEvent struct {
	EvidenceID      int64
	EventID         int64
	SubmitterID     int64
	SubmitterRole   string
	SupportedOption string
}

func (e EvidenceSubmittedEvent) Type() EventType {
	return EventTypeEvidenceSubmitted
}
