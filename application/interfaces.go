package application

import (
	"context"

	"paripool/domain/interfaces"
)

// UnitOfWork provides transactional boundaries around a set of repository
// operations. All repositories returned by a unit of work share one database
// transaction; domain events published through its publisher are buffered
// until the transaction commits.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events.
	// Safe to call after Commit.
	Rollback() error

	UserRepository() interfaces.UserRepository
	WalletRepository() interfaces.WalletRepository
	LedgerEntryRepository() interfaces.LedgerEntryRepository
	EventRepository() interfaces.EventRepository
	WagerRepository() interfaces.WagerRepository
	EvidenceRepository() interfaces.EvidenceRepository

	// EventPublisher returns the transaction-scoped event publisher
	EventPublisher() interfaces.EventPublisher
}

// UnitOfWorkFactory creates fresh units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
