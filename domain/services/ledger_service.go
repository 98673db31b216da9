package services

import (
	"context"
	"fmt"

	"paripool/domain/entities"
	"paripool/domain/events"
	"paripool/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type walletLedger struct {
	walletRepo     interfaces.WalletRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	eventPublisher interfaces.EventPublisher
}

// NewWalletLedger creates the wallet ledger bound to the caller's transaction
func NewWalletLedger(
	walletRepo interfaces.WalletRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.WalletLedger {
	return &walletLedger{
		walletRepo:     walletRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// apply performs a single read-modify-write of a wallet under a row lock and
// records the matching ledger entry.
func (l *walletLedger) apply(
	ctx context.Context,
	userID int64,
	availableDelta, committedDelta int64,
	txType entities.TransactionType,
	relatedID *int64,
	relatedType *entities.RelatedType,
	metadata map[string]any,
) error {
	wallet, err := l.walletRepo.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load wallet for user %d: %w", userID, err)
	}
	if wallet == nil {
		return fmt.Errorf("user %d: %w", userID, entities.ErrWalletNotFound)
	}

	newAvailable := wallet.Available + availableDelta
	newCommitted := wallet.Committed + committedDelta

	if newAvailable < 0 {
		return fmt.Errorf("user %d has %d available, needs %d: %w",
			userID, wallet.Available, -availableDelta, entities.ErrInsufficientFunds)
	}
	if newCommitted < 0 {
		// Committed balance can only go negative through a caller bug; this
		// must abort the surrounding transaction.
		return fmt.Errorf("user %d committed balance %d cannot cover release of %d: %w",
			userID, wallet.Committed, -committedDelta, entities.ErrInvariantViolation)
	}

	if err := l.walletRepo.UpdateBalances(ctx, userID, newAvailable, newCommitted); err != nil {
		return fmt.Errorf("failed to update wallet for user %d: %w", userID, err)
	}

	entry := &entities.LedgerEntry{
		UserID:              userID,
		AvailableDelta:      availableDelta,
		CommittedDelta:      committedDelta,
		AvailableAfter:      newAvailable,
		CommittedAfter:      newCommitted,
		TransactionType:     txType,
		TransactionMetadata: metadata,
		RelatedID:           relatedID,
		RelatedType:         relatedType,
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrInvariantViolation, err)
	}
	if err := l.ledgerRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	event := events.BalanceChangeEvent{
		UserID:          userID,
		AvailableDelta:  availableDelta,
		CommittedDelta:  committedDelta,
		AvailableAfter:  newAvailable,
		CommittedAfter:  newCommitted,
		TransactionType: txType,
	}
	if err := l.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}

// Commit moves amount from available to committed
func (l *walletLedger) Commit(ctx context.Context, userID, amount int64, relatedID *int64, relatedType *entities.RelatedType, metadata map[string]any) error {
	if amount <= 0 {
		return entities.ErrInvalidAmount
	}
	return l.apply(ctx, userID, -amount, amount, entities.TransactionTypeStakeCommit, relatedID, relatedType, metadata)
}

// Release removes amount from committed without crediting it back
func (l *walletLedger) Release(ctx context.Context, userID, amount int64, relatedID *int64, relatedType *entities.RelatedType, metadata map[string]any) error {
	if amount <= 0 {
		return entities.ErrInvalidAmount
	}
	return l.apply(ctx, userID, 0, -amount, entities.TransactionTypeStakeRelease, relatedID, relatedType, metadata)
}

// ReleaseAndCredit releases a committed stake and credits winnings or a refund
// in one ledger entry
func (l *walletLedger) ReleaseAndCredit(ctx context.Context, userID, committedAmount, creditAmount int64, txType entities.TransactionType, relatedID *int64, relatedType *entities.RelatedType, metadata map[string]any) error {
	if committedAmount <= 0 || creditAmount < 0 {
		return entities.ErrInvalidAmount
	}
	return l.apply(ctx, userID, creditAmount, -committedAmount, txType, relatedID, relatedType, metadata)
}

// CreditAvailable adds newly created value to the available balance
func (l *walletLedger) CreditAvailable(ctx context.Context, userID, amount int64, txType entities.TransactionType, relatedID *int64, relatedType *entities.RelatedType, metadata map[string]any) error {
	if amount <= 0 {
		return entities.ErrInvalidAmount
	}
	return l.apply(ctx, userID, amount, 0, txType, relatedID, relatedType, metadata)
}

// Deposit credits available funds across the external funding boundary
func (l *walletLedger) Deposit(ctx context.Context, userID, amount int64) (*entities.Wallet, error) {
	if amount <= 0 {
		return nil, entities.ErrInvalidAmount
	}
	if err := l.apply(ctx, userID, amount, 0, entities.TransactionTypeDeposit, nil, nil, nil); err != nil {
		return nil, err
	}
	return l.walletRepo.GetByUserID(ctx, userID)
}

// Withdraw debits available funds across the external funding boundary
func (l *walletLedger) Withdraw(ctx context.Context, userID, amount int64) (*entities.Wallet, error) {
	if amount <= 0 {
		return nil, entities.ErrInvalidAmount
	}
	if err := l.apply(ctx, userID, -amount, 0, entities.TransactionTypeWithdraw, nil, nil, nil); err != nil {
		return nil, err
	}
	return l.walletRepo.GetByUserID(ctx, userID)
}
