package application

import (
	"context"
	"fmt"
	"time"

	"paripool/domain/entities"
	"paripool/domain/interfaces"
	"paripool/domain/services"

	log "github.com/sirupsen/logrus"
)

// Engine is the application-level facade over the wagering and settlement
// domain. Every operation runs inside its own unit of work; operations that
// mutate an event's pool additionally serialize on a per-event lock so that
// concurrent placements and settlement of the same event execute one at a
// time.
type Engine struct {
	uowFactory UnitOfWorkFactory
	locks      *eventLocks
}

// NewEngine creates a new engine
func NewEngine(uowFactory UnitOfWorkFactory) *Engine {
	return &Engine{
		uowFactory: uowFactory,
		locks:      newEventLocks(),
	}
}

// withTx runs fn inside a fresh unit of work, committing on success and
// rolling back on error.
func (e *Engine) withTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	return uow.Commit()
}

// CreateUser provisions a user with a starting wallet
func (e *Engine) CreateUser(ctx context.Context, username string) (*entities.User, error) {
	var user *entities.User
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := services.NewUserService(
			uow.UserRepository(),
			uow.WalletRepository(),
			uow.LedgerEntryRepository(),
			uow.EventPublisher(),
		)

		var err error
		user, err = svc.CreateUser(ctx, username)
		return err
	})
	return user, err
}

// GetWallet returns a user's wallet
func (e *Engine) GetWallet(ctx context.Context, userID int64) (*entities.Wallet, error) {
	var wallet *entities.Wallet
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		wallet, err = uow.WalletRepository().GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return fmt.Errorf("user %d: %w", userID, entities.ErrWalletNotFound)
		}
		return nil
	})
	return wallet, err
}

// GetLedgerHistory returns a user's most recent ledger entries
func (e *Engine) GetLedgerHistory(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	var entries []*entities.LedgerEntry
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		entries, err = uow.LedgerEntryRepository().GetByUser(ctx, userID, limit)
		return err
	})
	return entries, err
}

// Deposit credits external funds to a user's available balance
func (e *Engine) Deposit(ctx context.Context, userID, amount int64) (*entities.Wallet, error) {
	var wallet *entities.Wallet
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		ledger := services.NewWalletLedger(
			uow.WalletRepository(),
			uow.LedgerEntryRepository(),
			uow.EventPublisher(),
		)

		var err error
		wallet, err = ledger.Deposit(ctx, userID, amount)
		return err
	})
	return wallet, err
}

// Withdraw debits external funds from a user's available balance
func (e *Engine) Withdraw(ctx context.Context, userID, amount int64) (*entities.Wallet, error) {
	var wallet *entities.Wallet
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		ledger := services.NewWalletLedger(
			uow.WalletRepository(),
			uow.LedgerEntryRepository(),
			uow.EventPublisher(),
		)

		var err error
		wallet, err = ledger.Withdraw(ctx, userID, amount)
		return err
	})
	return wallet, err
}

// CreateEvent creates a new open prediction event
func (e *Engine) CreateEvent(ctx context.Context, creatorID int64, title, description, category string, options []string, stakeDeadline, resolutionDueBy time.Time) (*entities.Event, error) {
	var event *entities.Event
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := services.NewMarketService(
			uow.EventRepository(),
			uow.UserRepository(),
			uow.EventPublisher(),
		)

		var err error
		event, err = svc.CreateEvent(ctx, creatorID, title, description, category, options, stakeDeadline, resolutionDueBy)
		return err
	})
	return event, err
}

// GetEvent loads an event, lazily applying any due lifecycle transition
func (e *Engine) GetEvent(ctx context.Context, eventID int64) (*entities.Event, error) {
	var event *entities.Event
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := services.NewMarketService(
			uow.EventRepository(),
			uow.UserRepository(),
			uow.EventPublisher(),
		)

		var err error
		event, err = svc.GetEvent(ctx, eventID)
		return err
	})
	return event, err
}

// UpdateEventSchedule changes the deadlines of an open event
func (e *Engine) UpdateEventSchedule(ctx context.Context, eventID, actorID int64, stakeDeadline, resolutionDueBy time.Time) (*entities.Event, error) {
	e.locks.Lock(eventID)
	defer e.locks.Unlock(eventID)

	var event *entities.Event
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := services.NewMarketService(
			uow.EventRepository(),
			uow.UserRepository(),
			uow.EventPublisher(),
		)

		var err error
		event, err = svc.UpdateSchedule(ctx, eventID, actorID, stakeDeadline, resolutionDueBy)
		return err
	})
	return event, err
}

// TransitionExpiredEvents closes all open events whose stake deadline passed.
// Intended to be called periodically; every read path applies the same
// transition lazily, so the sweep only keeps stored statuses fresh.
func (e *Engine) TransitionExpiredEvents(ctx context.Context) ([]*entities.Event, error) {
	var transitioned []*entities.Event
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := services.NewMarketService(
			uow.EventRepository(),
			uow.UserRepository(),
			uow.EventPublisher(),
		)

		var err error
		transitioned, err = svc.TransitionExpiredEvents(ctx)
		return err
	})

	if err == nil && len(transitioned) > 0 {
		log.WithField("count", len(transitioned)).Info("Closed expired events")
	}
	return transitioned, err
}

// ListEventsAwaitingResolution returns closed events pending a curator decision
func (e *Engine) ListEventsAwaitingResolution(ctx context.Context) ([]*entities.Event, error) {
	var events []*entities.Event
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := services.NewMarketService(
			uow.EventRepository(),
			uow.UserRepository(),
			uow.EventPublisher(),
		)

		var err error
		events, err = svc.ListAwaitingResolution(ctx)
		return err
	})
	return events, err
}

// PlaceWager stakes amount on an option of an open event
func (e *Engine) PlaceWager(ctx context.Context, userID, eventID int64, option string, amount int64) (*entities.Wager, error) {
	e.locks.Lock(eventID)
	defer e.locks.Unlock(eventID)

	var wager *entities.Wager
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		ledger := services.NewWalletLedger(
			uow.WalletRepository(),
			uow.LedgerEntryRepository(),
			uow.EventPublisher(),
		)
		svc := services.NewWageringService(
			uow.EventRepository(),
			uow.WagerRepository(),
			ledger,
			uow.EventPublisher(),
		)

		var err error
		wager, err = svc.PlaceWager(ctx, userID, eventID, option, amount)
		return err
	})
	return wager, err
}

// GetEventWagerStats returns the pool composition with current odds
func (e *Engine) GetEventWagerStats(ctx context.Context, eventID int64) (*entities.EventWagerStats, error) {
	var stats *entities.EventWagerStats
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		ledger := services.NewWalletLedger(
			uow.WalletRepository(),
			uow.LedgerEntryRepository(),
			uow.EventPublisher(),
		)
		svc := services.NewWageringService(
			uow.EventRepository(),
			uow.WagerRepository(),
			ledger,
			uow.EventPublisher(),
		)

		var err error
		stats, err = svc.GetEventWagerStats(ctx, eventID)
		return err
	})
	return stats, err
}

// SettleEvent resolves an event and redistributes its pool
func (e *Engine) SettleEvent(ctx context.Context, eventID int64, winningOption string, curatorID int64, evidenceID *int64, rationale string) (*entities.SettlementSummary, error) {
	e.locks.Lock(eventID)
	defer e.locks.Unlock(eventID)

	var summary *entities.SettlementSummary
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := e.settlementService(uow)

		var err error
		summary, err = svc.Settle(ctx, eventID, winningOption, curatorID, evidenceID, rationale)
		return err
	})
	return summary, err
}

// CancelEvent voids an event and refunds all unsettled wagers. A nil actor
// cancels on behalf of the system (resolution timeout sweep).
func (e *Engine) CancelEvent(ctx context.Context, eventID int64, actorID *int64) (*entities.Event, error) {
	e.locks.Lock(eventID)
	defer e.locks.Unlock(eventID)

	var event *entities.Event
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := e.settlementService(uow)

		var err error
		event, err = svc.Cancel(ctx, eventID, actorID)
		return err
	})
	return event, err
}

// SubmitEvidence records a proof-of-outcome submission
func (e *Engine) SubmitEvidence(ctx context.Context, eventID, submitterID int64, evidenceType, content, description, supportedOption string) (*entities.Evidence, error) {
	var evidence *entities.Evidence
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := services.NewEvidenceService(
			uow.EventRepository(),
			uow.EvidenceRepository(),
			uow.EventPublisher(),
		)

		var err error
		evidence, err = svc.SubmitEvidence(ctx, eventID, submitterID, evidenceType, content, description, supportedOption)
		return err
	})
	return evidence, err
}

// EndorseEvidence increments an evidence record's endorsement count
func (e *Engine) EndorseEvidence(ctx context.Context, evidenceID int64) (*entities.Evidence, error) {
	var evidence *entities.Evidence
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := services.NewEvidenceService(
			uow.EventRepository(),
			uow.EvidenceRepository(),
			uow.EventPublisher(),
		)

		var err error
		evidence, err = svc.EndorseEvidence(ctx, evidenceID)
		return err
	})
	return evidence, err
}

// ListEvidence returns all evidence submitted for an event
func (e *Engine) ListEvidence(ctx context.Context, eventID int64) ([]*entities.Evidence, error) {
	var records []*entities.Evidence
	err := e.withTx(ctx, func(uow UnitOfWork) error {
		svc := services.NewEvidenceService(
			uow.EventRepository(),
			uow.EvidenceRepository(),
			uow.EventPublisher(),
		)

		var err error
		records, err = svc.ListEvidence(ctx, eventID)
		return err
	})
	return records, err
}

func (e *Engine) settlementService(uow UnitOfWork) interfaces.SettlementService {
	ledger := services.NewWalletLedger(
		uow.WalletRepository(),
		uow.LedgerEntryRepository(),
		uow.EventPublisher(),
	)
	return services.NewSettlementService(
		uow.EventRepository(),
		uow.WagerRepository(),
		uow.EvidenceRepository(),
		ledger,
		uow.EventPublisher(),
	)
}
