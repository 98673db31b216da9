package repository

import (
	"context"
	"fmt"

	"paripool/database"
	"paripool/domain/entities"
	"paripool/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// WagerRepository implements the WagerRepository interface
type WagerRepository struct {
	q Queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

func newWagerRepository(tx Queryable) interfaces.WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `
	id, event_id, user_id, option, amount, odds, potential_payout,
	settled, won, actual_payout, created_at, settled_at
`

// Create creates a new wager
func (r *WagerRepository) Create(ctx context.Context, wager *entities.Wager) error {
	query := `
		INSERT INTO wagers (
			event_id, user_id, option, amount, odds, potential_payout
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		wager.EventID,
		wager.UserID,
		wager.Option,
		wager.Amount,
		wager.Odds,
		wager.PotentialPayout,
	).Scan(&wager.ID, &wager.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wager: %w", err)
	}

	return nil
}

// GetByID retrieves a wager by its ID
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	query := `SELECT` + wagerColumns + `FROM wagers WHERE id = $1`

	wager, err := r.scanWager(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}

	return wager, nil
}

// GetByEvent returns all wagers placed on an event
func (r *WagerRepository) GetByEvent(ctx context.Context, eventID int64) ([]*entities.Wager, error) {
	query := `
		SELECT` + wagerColumns + `
		FROM wagers
		WHERE event_id = $1
		ORDER BY created_at, id
	`

	return r.queryWagers(ctx, query, eventID)
}

// GetUnsettledByEvent returns the event's wagers that have not settled
func (r *WagerRepository) GetUnsettledByEvent(ctx context.Context, eventID int64) ([]*entities.Wager, error) {
	query := `
		SELECT` + wagerColumns + `
		FROM wagers
		WHERE event_id = $1 AND settled = FALSE
		ORDER BY created_at, id
	`

	return r.queryWagers(ctx, query, eventID)
}

// GetPoolTotals aggregates the event's pool, partitioned by option
func (r *WagerRepository) GetPoolTotals(ctx context.Context, eventID int64) (*entities.PoolTotals, error) {
	query := `
		SELECT option, COUNT(*), COALESCE(SUM(amount), 0)
		FROM wagers
		WHERE event_id = $1
		GROUP BY option
	`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool totals for event %d: %w", eventID, err)
	}
	defer rows.Close()

	totals := &entities.PoolTotals{
		ByOption: make(map[string]entities.OptionPool),
	}
	for rows.Next() {
		var option string
		var count int
		var amount int64
		if err := rows.Scan(&option, &count, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan pool totals: %w", err)
		}

		totals.ByOption[option] = entities.OptionPool{Wagers: count, Amount: amount}
		totals.TotalWagers += count
		totals.TotalAmount += amount
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pool totals: %w", err)
	}

	return totals, nil
}

// UpdateSettlement persists settlement results for a batch of wagers
func (r *WagerRepository) UpdateSettlement(ctx context.Context, wagers []*entities.Wager) error {
	query := `
		UPDATE wagers
		SET settled = TRUE, won = $2, actual_payout = $3, settled_at = $4
		WHERE id = $1 AND settled = FALSE
	`

	for _, wager := range wagers {
		tag, err := r.q.Exec(ctx, query, wager.ID, wager.Won, wager.ActualPayout, wager.SettledAt)
		if err != nil {
			return fmt.Errorf("failed to settle wager %d: %w", wager.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("wager %d already settled", wager.ID)
		}
	}

	return nil
}

func (r *WagerRepository) queryWagers(ctx context.Context, query string, args ...any) ([]*entities.Wager, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*entities.Wager
	for rows.Next() {
		wager, err := r.scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}

	return wagers, nil
}

func (r *WagerRepository) scanWager(row pgx.Row) (*entities.Wager, error) {
	var wager entities.Wager
	err := row.Scan(
		&wager.ID,
		&wager.EventID,
		&wager.UserID,
		&wager.Option,
		&wager.Amount,
		&wager.Odds,
		&wager.PotentialPayout,
		&wager.Settled,
		&wager.Won,
		&wager.ActualPayout,
		&wager.CreatedAt,
		&wager.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &wager, nil
}
