package entities

import (
	"time"
)

// SettlementSummary describes the outcome of settling one event: how the pool
// was split between the curator commission and the winner distribution.
type SettlementSummary struct {
	ID               string    `json:"id"` // settlement run identifier
	EventID          int64     `json:"event_id"`
	WinningOption    string    `json:"winning_option"`
	TotalWagers      int       `json:"total_wagers"`
	TotalPool        int64     `json:"total_pool"`
	Commission       int64     `json:"commission"`
	DistributionPool int64     `json:"distribution_pool"`
	WinnersCount     int       `json:"winners_count"`
	WinnersPool      int64     `json:"winners_pool"`
	TotalPayout      int64     `json:"total_payout"`
	EvidenceID       *int64    `json:"evidence_id,omitempty"`
	ResolvedAt       time.Time `json:"resolved_at"`
}

// IsZero reports whether the settlement touched no wagers
func (s *SettlementSummary) IsZero() bool {
	return s.TotalWagers == 0
}
