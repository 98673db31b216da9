package repository

import (
	"context"
	"fmt"

	"paripool/application"
	"paripool/database"
	"paripool/domain/events"
	"paripool/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	userRepo         interfaces.UserRepository
	walletRepo       interfaces.WalletRepository
	ledgerRepo       interfaces.LedgerEntryRepository
	eventRepo        interfaces.EventRepository
	wagerRepo        interfaces.WagerRepository
	evidenceRepo     interfaces.EvidenceRepository
}

type unitOfWorkFactory struct {
	db        *database.DB
	publisher events.Publisher
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. Events published
// inside a unit of work are delivered to the given publisher on commit.
func NewUnitOfWorkFactory(db *database.DB, publisher events.Publisher) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:        db,
		publisher: publisher,
	}
}

func (f *unitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.publisher),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.userRepo = newUserRepository(tx)
	u.walletRepo = newWalletRepository(tx)
	u.ledgerRepo = newLedgerEntryRepository(tx)
	u.eventRepo = newEventRepository(tx)
	u.wagerRepo = newWagerRepository(tx)
	u.evidenceRepo = newEvidenceRepository(tx)

	return nil
}

// Commit commits the transaction and flushes buffered events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events only after a successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards buffered events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// WalletRepository returns the wallet repository for this unit of work
func (u *unitOfWork) WalletRepository() interfaces.WalletRepository {
	if u.walletRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.walletRepo
}

// LedgerEntryRepository returns the ledger entry repository for this unit of work
func (u *unitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// EventRepository returns the event repository for this unit of work
func (u *unitOfWork) EventRepository() interfaces.EventRepository {
	if u.eventRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.eventRepo
}

// WagerRepository returns the wager repository for this unit of work
func (u *unitOfWork) WagerRepository() interfaces.WagerRepository {
	if u.wagerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.wagerRepo
}

// EvidenceRepository returns the evidence repository for this unit of work
func (u *unitOfWork) EvidenceRepository() interfaces.EvidenceRepository {
	if u.evidenceRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.evidenceRepo
}

// EventPublisher returns the transaction-scoped event publisher
func (u *unitOfWork) EventPublisher() interfaces.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
