package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"paripool/database"
	"paripool/domain/entities"
	"paripool/domain/interfaces"
)

// LedgerEntryRepository implements the LedgerEntryRepository interface
type LedgerEntryRepository struct {
	q Queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

func newLedgerEntryRepository(tx Queryable) interfaces.LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Record creates a new ledger entry
func (r *LedgerEntryRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (
			user_id, available_delta, committed_delta,
			available_after, committed_after,
			transaction_type, transaction_metadata,
			related_id, related_type
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	var metadataJSON []byte
	if entry.TransactionMetadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.TransactionMetadata)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction metadata: %w", err)
		}
	}

	err := r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.AvailableDelta,
		entry.CommittedDelta,
		entry.AvailableAfter,
		entry.CommittedAfter,
		entry.TransactionType,
		metadataJSON,
		entry.RelatedID,
		entry.RelatedType,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry for user %d: %w", entry.UserID, err)
	}

	return nil
}

// GetByUser returns the most recent ledger entries for a user
func (r *LedgerEntryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, user_id, available_delta, committed_delta,
		       available_after, committed_after,
		       transaction_type, transaction_metadata,
		       related_id, related_type, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		var entry entities.LedgerEntry
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.AvailableDelta,
			&entry.CommittedDelta,
			&entry.AvailableAfter,
			&entry.CommittedAfter,
			&entry.TransactionType,
			&metadataJSON,
			&entry.RelatedID,
			&entry.RelatedType,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.TransactionMetadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
