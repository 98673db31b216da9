package entities

import (
	"strings"
	"time"
)

// EventStatus represents the lifecycle state of a market event
type EventStatus string

const (
	EventStatusOpen      EventStatus = "open"
	EventStatusClosed    EventStatus = "closed"
	EventStatusResolved  EventStatus = "resolved"
	EventStatusCancelled EventStatus = "cancelled"
)

// EvidencePhase represents who may currently submit proof of outcome
type EvidencePhase string

const (
	EvidencePhaseNone    EvidencePhase = "none"
	EvidencePhaseCreator EvidencePhase = "creator"
	EvidencePhasePublic  EvidencePhase = "public"
)

const (
	// MinOutcomeOptions and MaxOutcomeOptions bound the option set of an event.
	MinOutcomeOptions = 2
	MaxOutcomeOptions = 10
)

// Event represents a single prediction market: a pool of stakes on a set of
// outcome options, resolved by a curator.
type Event struct {
	ID                  int64         `db:"id"`
	CreatorID           int64         `db:"creator_id"`
	Title               string        `db:"title"`
	Description         string        `db:"description"`
	Category            string        `db:"category"`
	OutcomeOptions      []string      `db:"outcome_options"`
	Status              EventStatus   `db:"status"`
	StakeDeadline       time.Time     `db:"stake_deadline"`
	ProofDeadline       time.Time     `db:"proof_deadline"`
	ResolutionDueBy     time.Time     `db:"resolution_due_by"`
	EvidencePhase       EvidencePhase `db:"evidence_phase"` // cache, refreshed on access
	WinningOption       *string       `db:"winning_option"`
	ResolvedBy          *int64        `db:"resolved_by"`
	ResolvedAt          *time.Time    `db:"resolved_at"`
	ResolutionRationale *string       `db:"resolution_rationale"`
	EvidenceID          *int64        `db:"evidence_id"` // evidence the resolution was based on
	CuratorCommission   int64         `db:"curator_commission"`
	CreatedAt           time.Time     `db:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at"`
}

// IsOpen checks if the event is in the open state
func (e *Event) IsOpen() bool {
	return e.Status == EventStatusOpen
}

// IsResolved checks if the event has been resolved
func (e *Event) IsResolved() bool {
	return e.Status == EventStatusResolved
}

// IsTerminal checks if the event is resolved or cancelled
func (e *Event) IsTerminal() bool {
	return e.Status == EventStatusResolved || e.Status == EventStatusCancelled
}

// EffectiveStatusAt derives the status as of now. An open event whose stake
// deadline has passed is closed; the stored status is corrected lazily by
// read paths, never by a background scheduler.
func (e *Event) EffectiveStatusAt(now time.Time) EventStatus {
	if e.Status == EventStatusOpen && !now.Before(e.StakeDeadline) {
		return EventStatusClosed
	}
	return e.Status
}

// CanAcceptWagersAt checks if the event can accept new stakes as of now
func (e *Event) CanAcceptWagersAt(now time.Time) bool {
	return e.Status == EventStatusOpen && now.Before(e.StakeDeadline)
}

// HasOption checks if the given option is one of the event's outcome options
func (e *Event) HasOption(option string) bool {
	for _, o := range e.OutcomeOptions {
		if o == option {
			return true
		}
	}
	return false
}

// EvidencePhaseAt derives the evidence submission phase from the current time.
// The stored EvidencePhase field is only a cache of this derivation.
func (e *Event) EvidencePhaseAt(now time.Time) EvidencePhase {
	if now.Before(e.StakeDeadline) {
		return EvidencePhaseNone
	}
	if now.Before(e.ProofDeadline) {
		return EvidencePhaseCreator
	}
	return EvidencePhasePublic
}

// Close transitions an open event to closed
func (e *Event) Close() {
	if e.Status == EventStatusOpen {
		e.Status = EventStatusClosed
	}
}

// Resolve marks the event resolved with the winning option and the evidence
// the decision was based on, if any
func (e *Event) Resolve(resolverID int64, winningOption string, rationale *string, evidenceID *int64, now time.Time) {
	if e.IsTerminal() {
		return
	}
	e.Status = EventStatusResolved
	e.WinningOption = &winningOption
	e.ResolvedBy = &resolverID
	e.ResolvedAt = &now
	e.ResolutionRationale = rationale
	e.EvidenceID = evidenceID
}

// Cancel marks the event cancelled
func (e *Event) Cancel() {
	if !e.IsTerminal() {
		e.Status = EventStatusCancelled
	}
}

// ValidateOutcomeOptions checks the option set for size and duplicates
// (case-insensitive, whitespace-trimmed).
func ValidateOutcomeOptions(options []string) error {
	if len(options) < MinOutcomeOptions || len(options) > MaxOutcomeOptions {
		return ErrInvalidOptionCount
	}
	seen := make(map[string]bool, len(options))
	for _, option := range options {
		normalized := strings.ToLower(strings.TrimSpace(option))
		if normalized == "" {
			return ErrEmptyOption
		}
		if seen[normalized] {
			return ErrDuplicateOption
		}
		seen[normalized] = true
	}
	return nil
}
