package interfaces

import (
	"context"

	"paripool/domain/entities"
	"paripool/domain/events"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, userID int64) (*entities.User, error)

	// Create creates a new user record
	Create(ctx context.Context, username string) (*entities.User, error)
}

// WalletRepository defines the interface for wallet data access. Balance
// fields are only ever written through the wallet ledger service.
type WalletRepository interface {
	// GetByUserID retrieves a user's wallet
	GetByUserID(ctx context.Context, userID int64) (*entities.Wallet, error)

	// GetByUserIDForUpdate retrieves a user's wallet with a row lock held for
	// the remainder of the transaction
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*entities.Wallet, error)

	// Create creates a wallet for a user
	Create(ctx context.Context, userID int64, available int64) (*entities.Wallet, error)

	// UpdateBalances writes both balance fields atomically
	UpdateBalances(ctx context.Context, userID int64, available, committed int64) error
}

// LedgerEntryRepository defines the interface for the append-only ledger
type LedgerEntryRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByUser returns the most recent ledger entries for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error)
}

// EventRepository defines the interface for market event data access
type EventRepository interface {
	// Create creates a new event
	Create(ctx context.Context, event *entities.Event) error

	// GetByID retrieves an event by its ID
	GetByID(ctx context.Context, id int64) (*entities.Event, error)

	// Update updates an event's mutable fields; rows already in a terminal
	// state are never matched
	Update(ctx context.Context, event *entities.Event) error

	// CloseExpired conditionally flips an open event to closed, refreshing the
	// cached evidence phase. Returns false when the stored row is not open.
	CloseExpired(ctx context.Context, eventID int64, phase entities.EvidencePhase) (bool, error)

	// UpdateEvidencePhase refreshes the cached evidence phase of a
	// non-terminal event
	UpdateEvidencePhase(ctx context.Context, eventID int64, phase entities.EvidencePhase) error

	// GetExpiredOpen returns open events whose stake deadline has passed
	GetExpiredOpen(ctx context.Context) ([]*entities.Event, error)

	// GetAwaitingResolution returns closed events that have not reached a
	// terminal state, ordered by resolution due date
	GetAwaitingResolution(ctx context.Context) ([]*entities.Event, error)
}

// WagerRepository defines the interface for wager data access
type WagerRepository interface {
	// Create creates a new wager
	Create(ctx context.Context, wager *entities.Wager) error

	// GetByID retrieves a wager by its ID
	GetByID(ctx context.Context, id int64) (*entities.Wager, error)

	// GetByEvent returns all wagers placed on an event
	GetByEvent(ctx context.Context, eventID int64) ([]*entities.Wager, error)

	// GetUnsettledByEvent returns the event's wagers that have not settled
	GetUnsettledByEvent(ctx context.Context, eventID int64) ([]*entities.Wager, error)

	// GetPoolTotals aggregates the event's pool, partitioned by option
	GetPoolTotals(ctx context.Context, eventID int64) (*entities.PoolTotals, error)

	// UpdateSettlement persists settlement results for a batch of wagers
	UpdateSettlement(ctx context.Context, wagers []*entities.Wager) error
}

// EvidenceRepository defines the interface for proof-of-outcome data access
type EvidenceRepository interface {
	// Create creates a new evidence record
	Create(ctx context.Context, evidence *entities.Evidence) error

	// GetByID retrieves an evidence record by its ID
	GetByID(ctx context.Context, id int64) (*entities.Evidence, error)

	// GetByEvent returns all evidence submitted for an event
	GetByEvent(ctx context.Context, eventID int64) ([]*entities.Evidence, error)

	// IncrementEndorsements bumps the endorsement count and returns the new value
	IncrementEndorsements(ctx context.Context, id int64) (int, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding database
// transaction concludes
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all buffered events; called after a successful commit
	Flush(ctx context.Context) error

	// Discard drops all buffered events; called on rollback
	Discard()
}
