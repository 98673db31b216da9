package entities

import (
	"time"
)

// Wager represents one stake on one outcome option of one event. The odds are
// locked at placement time and never reprice; settlement mutates a wager
// exactly once.
type Wager struct {
	ID              int64      `db:"id"`
	EventID         int64      `db:"event_id"`
	UserID          int64      `db:"user_id"`
	Option          string     `db:"option"`
	Amount          int64      `db:"amount"`
	Odds            float64    `db:"odds"`
	PotentialPayout int64      `db:"potential_payout"` // informational only
	Settled         bool       `db:"settled"`
	Won             *bool      `db:"won"`
	ActualPayout    int64      `db:"actual_payout"`
	CreatedAt       time.Time  `db:"created_at"`
	SettledAt       *time.Time `db:"settled_at"`
}

// IsSettled checks if the wager has been settled
func (w *Wager) IsSettled() bool {
	return w.Settled
}

// MarkSettled records the settlement outcome on the wager
func (w *Wager) MarkSettled(won bool, actualPayout int64, now time.Time) {
	w.Settled = true
	w.Won = &won
	w.ActualPayout = actualPayout
	w.SettledAt = &now
}

// OptionPool aggregates the stakes placed on a single outcome option
type OptionPool struct {
	Wagers int
	Amount int64
}

// PoolTotals aggregates all stakes on an event, partitioned by option
type PoolTotals struct {
	TotalWagers int
	TotalAmount int64
	ByOption    map[string]OptionPool
}

// OptionAmount returns the pool total for one option
func (p *PoolTotals) OptionAmount(option string) int64 {
	return p.ByOption[option].Amount
}

// OptionStats describes one option's share of the pool with its current odds
type OptionStats struct {
	Wagers int     `json:"wagers"`
	Amount int64   `json:"amount"`
	Odds   float64 `json:"odds"`
}

// EventWagerStats is the read model returned to callers of the stats operation
type EventWagerStats struct {
	EventID     int64                  `json:"event_id"`
	TotalWagers int                    `json:"total_wagers"`
	TotalAmount int64                  `json:"total_amount"`
	ByOption    map[string]OptionStats `json:"by_option"`
}
