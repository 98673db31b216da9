package entities

import (
	"time"
)

// Wallet holds a user's two-state balance. Available funds are spendable;
// committed funds are earmarked against open wagers and cannot be spent until
// they are released or paid out. All amounts are integer minor units.
type Wallet struct {
	UserID    int64     `db:"user_id"`
	Available int64     `db:"available"`
	Committed int64     `db:"committed"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Total returns the combined available and committed balance.
func (w *Wallet) Total() int64 {
	return w.Available + w.Committed
}

// CanAfford checks whether the available balance covers an amount.
func (w *Wallet) CanAfford(amount int64) bool {
	return w.Available >= amount
}

// HasCommitted checks whether at least the given amount is committed.
func (w *Wallet) HasCommitted(amount int64) bool {
	return w.Committed >= amount
}
