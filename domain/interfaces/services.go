package interfaces

import (
	"context"
	"time"

	"paripool/domain/entities"
)

// WalletLedger is the sole mutator of wallet balances. All operations apply
// within the caller's transaction; the ledger holds no retry logic.
type WalletLedger interface {
	// Commit moves amount from available to committed, earmarking it against
	// an open wager
	Commit(ctx context.Context, userID, amount int64, relatedID *int64, relatedType *entities.RelatedType, metadata map[string]any) error

	// Release moves amount from committed back out of the wallet without
	// crediting it; used for losing stakes that fund the distribution pool
	Release(ctx context.Context, userID, amount int64, relatedID *int64, relatedType *entities.RelatedType, metadata map[string]any) error

	// ReleaseAndCredit releases a committed stake and credits winnings or a
	// refund to available in one step
	ReleaseAndCredit(ctx context.Context, userID, committedAmount, creditAmount int64, txType entities.TransactionType, relatedID *int64, relatedType *entities.RelatedType, metadata map[string]any) error

	// CreditAvailable adds newly created value (commission, deposits) to the
	// available balance
	CreditAvailable(ctx context.Context, userID, amount int64, txType entities.TransactionType, relatedID *int64, relatedType *entities.RelatedType, metadata map[string]any) error

	// Deposit credits available funds across the external funding boundary
	Deposit(ctx context.Context, userID, amount int64) (*entities.Wallet, error)

	// Withdraw debits available funds across the external funding boundary
	Withdraw(ctx context.Context, userID, amount int64) (*entities.Wallet, error)
}

// UserService provisions users together with their wallets
type UserService interface {
	// CreateUser creates a user and their wallet in one unit of work
	CreateUser(ctx context.Context, username string) (*entities.User, error)
}

// MarketService owns event creation and the lifecycle state machine
type MarketService interface {
	// CreateEvent creates a new open event after validating its option set
	// and schedule
	CreateEvent(ctx context.Context, creatorID int64, title, description, category string, options []string, stakeDeadline, resolutionDueBy time.Time) (*entities.Event, error)

	// GetEvent loads an event, lazily applying the open to closed transition
	// and refreshing the cached evidence phase
	GetEvent(ctx context.Context, eventID int64) (*entities.Event, error)

	// UpdateSchedule changes the stake deadline and resolution due date of an
	// open event, re-validating the creation invariants
	UpdateSchedule(ctx context.Context, eventID, actorID int64, stakeDeadline, resolutionDueBy time.Time) (*entities.Event, error)

	// TransitionExpiredEvents closes open events whose stake deadline passed
	TransitionExpiredEvents(ctx context.Context) ([]*entities.Event, error)

	// ListAwaitingResolution returns closed events pending a curator decision
	ListAwaitingResolution(ctx context.Context) ([]*entities.Event, error)
}

// WageringService accepts stakes priced against the live pool
type WageringService interface {
	// PlaceWager stakes amount on an option of an open event at the odds
	// implied by the pool including this stake
	PlaceWager(ctx context.Context, userID, eventID int64, option string, amount int64) (*entities.Wager, error)

	// GetEventWagerStats returns the pool composition with current odds
	GetEventWagerStats(ctx context.Context, eventID int64) (*entities.EventWagerStats, error)
}

// SettlementService performs the atomic redistribution of an event's pool
type SettlementService interface {
	// Settle resolves the event and pays out winners and the curator
	Settle(ctx context.Context, eventID int64, winningOption string, curatorID int64, evidenceID *int64, rationale string) (*entities.SettlementSummary, error)

	// Cancel voids the event and refunds every unsettled wager in full
	Cancel(ctx context.Context, eventID int64, actorID *int64) (*entities.Event, error)

	// IsCurator checks if a user may resolve events
	IsCurator(userID int64) bool
}

// EvidenceService guards proof-of-outcome submission behind the time gate
type EvidenceService interface {
	// SubmitEvidence records a proof submission if the submitter is allowed
	// in the current evidence phase
	SubmitEvidence(ctx context.Context, eventID, submitterID int64, evidenceType, content, description, supportedOption string) (*entities.Evidence, error)

	// EndorseEvidence increments an evidence record's endorsement count
	EndorseEvidence(ctx context.Context, evidenceID int64) (*entities.Evidence, error)

	// ListEvidence returns all evidence submitted for an event
	ListEvidence(ctx context.Context, eventID int64) ([]*entities.Evidence, error)
}
