package repository

import (
	"context"
	"fmt"

	"paripool/database"
	"paripool/domain/entities"
	"paripool/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q Queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

func newWalletRepository(tx Queryable) interfaces.WalletRepository {
	return &WalletRepository{q: tx}
}

// GetByUserID retrieves a user's wallet
func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*entities.Wallet, error) {
	return r.getByUserID(ctx, userID, false)
}

// GetByUserIDForUpdate retrieves a user's wallet with a row lock held for the
// remainder of the transaction. Concurrent balance changes for the same user
// serialize on this lock.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*entities.Wallet, error) {
	return r.getByUserID(ctx, userID, true)
}

func (r *WalletRepository) getByUserID(ctx context.Context, userID int64, forUpdate bool) (*entities.Wallet, error) {
	query := `
		SELECT user_id, available, committed, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var wallet entities.Wallet
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&wallet.UserID,
		&wallet.Available,
		&wallet.Committed,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %d: %w", userID, err)
	}

	return &wallet, nil
}

// Create creates a wallet for a user
func (r *WalletRepository) Create(ctx context.Context, userID int64, available int64) (*entities.Wallet, error) {
	query := `
		INSERT INTO wallets (user_id, available, committed)
		VALUES ($1, $2, 0)
		RETURNING created_at, updated_at
	`

	wallet := &entities.Wallet{
		UserID:    userID,
		Available: available,
		Committed: 0,
	}
	err := r.q.QueryRow(ctx, query, userID, available).Scan(
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet for user %d: %w", userID, err)
	}

	return wallet, nil
}

// UpdateBalances writes both balance fields atomically
func (r *WalletRepository) UpdateBalances(ctx context.Context, userID int64, available, committed int64) error {
	query := `
		UPDATE wallets
		SET available = $2, committed = $3, updated_at = NOW()
		WHERE user_id = $1
	`

	tag, err := r.q.Exec(ctx, query, userID, available, committed)
	if err != nil {
		return fmt.Errorf("failed to update balances for user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no wallet found for user %d", userID)
	}

	return nil
}
