package entities

import (
	"errors"
	"time"
)

// RelatedType represents what type of entity a ledger entry refers to
type RelatedType string

const (
	RelatedTypeEvent    RelatedType = "event"
	RelatedTypeWager    RelatedType = "wager"
	RelatedTypeEvidence RelatedType = "evidence"
)

// LedgerEntry is an append-only record of a single wallet mutation. Every
// balance change in the system produces exactly one entry.
type LedgerEntry struct {
	ID                  int64           `db:"id"`
	UserID              int64           `db:"user_id"`
	AvailableDelta      int64           `db:"available_delta"`
	CommittedDelta      int64           `db:"committed_delta"`
	AvailableAfter      int64           `db:"available_after"`
	CommittedAfter      int64           `db:"committed_after"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}

// NetChange returns the entry's effect on the wallet's combined balance.
// Balance-preserving operations (commit, release) net to zero; only externally
// funded or settlement operations move the total.
func (le *LedgerEntry) NetChange() int64 {
	return le.AvailableDelta + le.CommittedDelta
}

// Validate performs basic consistency checks on the entry
func (le *LedgerEntry) Validate() error {
	if le.AvailableDelta == 0 && le.CommittedDelta == 0 {
		return errors.New("ledger entry must change at least one balance")
	}
	if le.AvailableAfter < 0 || le.CommittedAfter < 0 {
		return errors.New("ledger entry records a negative balance")
	}
	return nil
}
