package repository

import (
	"context"
	"fmt"

	"paripool/database"
	"paripool/domain/entities"
	"paripool/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// EventRepository implements the EventRepository interface
type EventRepository struct {
	q Queryable
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{q: db.Pool}
}

func newEventRepository(tx Queryable) interfaces.EventRepository {
	return &EventRepository{q: tx}
}

const eventColumns = `
	id, creator_id, title, description, category, outcome_options,
	status, stake_deadline, proof_deadline, resolution_due_by,
	evidence_phase, winning_option, resolved_by, resolved_at,
	resolution_rationale, evidence_id, curator_commission, created_at, updated_at
`

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	query := `
		INSERT INTO events (
			creator_id, title, description, category, outcome_options,
			status, stake_deadline, proof_deadline, resolution_due_by,
			evidence_phase
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		event.CreatorID,
		event.Title,
		event.Description,
		event.Category,
		event.OutcomeOptions,
		event.Status,
		event.StakeDeadline,
		event.ProofDeadline,
		event.ResolutionDueBy,
		event.EvidencePhase,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by its ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*entities.Event, error) {
	query := `SELECT` + eventColumns + `FROM events WHERE id = $1`

	event, err := r.scanEvent(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}

	return event, nil
}

// Update updates an event's mutable fields. Rows already in a terminal state
// never match; a stale in-memory snapshot cannot overwrite a resolution that
// committed after it was read.
func (r *EventRepository) Update(ctx context.Context, event *entities.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, category = $4,
		    status = $5, stake_deadline = $6, proof_deadline = $7,
		    resolution_due_by = $8, evidence_phase = $9,
		    winning_option = $10, resolved_by = $11, resolved_at = $12,
		    resolution_rationale = $13, evidence_id = $14,
		    curator_commission = $15, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('resolved', 'cancelled')
	`

	tag, err := r.q.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Category,
		event.Status,
		event.StakeDeadline,
		event.ProofDeadline,
		event.ResolutionDueBy,
		event.EvidencePhase,
		event.WinningOption,
		event.ResolvedBy,
		event.ResolvedAt,
		event.ResolutionRationale,
		event.EvidenceID,
		event.CuratorCommission,
	)
	if err != nil {
		return fmt.Errorf("failed to update event %d: %w", event.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %d not found or already terminal", event.ID)
	}

	return nil
}

// CloseExpired flips an open event to closed and refreshes the cached evidence
// phase, touching nothing else. Returns false when the stored row is no longer
// open, so callers racing a settlement do not revert it.
func (r *EventRepository) CloseExpired(ctx context.Context, eventID int64, phase entities.EvidencePhase) (bool, error) {
	query := `
		UPDATE events
		SET status = 'closed', evidence_phase = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'open'
	`

	tag, err := r.q.Exec(ctx, query, eventID, phase)
	if err != nil {
		return false, fmt.Errorf("failed to close expired event %d: %w", eventID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateEvidencePhase refreshes the cached evidence phase of a non-terminal
// event. A terminal row is left untouched; the cache is meaningless there.
func (r *EventRepository) UpdateEvidencePhase(ctx context.Context, eventID int64, phase entities.EvidencePhase) error {
	query := `
		UPDATE events
		SET evidence_phase = $2, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('resolved', 'cancelled')
	`

	if _, err := r.q.Exec(ctx, query, eventID, phase); err != nil {
		return fmt.Errorf("failed to update evidence phase for event %d: %w", eventID, err)
	}
	return nil
}

// GetExpiredOpen returns open events whose stake deadline has passed
func (r *EventRepository) GetExpiredOpen(ctx context.Context) ([]*entities.Event, error) {
	query := `
		SELECT` + eventColumns + `
		FROM events
		WHERE status = 'open' AND stake_deadline <= NOW()
		ORDER BY stake_deadline
	`

	return r.queryEvents(ctx, query)
}

// GetAwaitingResolution returns closed events that have not reached a terminal
// state, ordered by resolution due date
func (r *EventRepository) GetAwaitingResolution(ctx context.Context) ([]*entities.Event, error) {
	query := `
		SELECT` + eventColumns + `
		FROM events
		WHERE status = 'closed'
		   OR (status = 'open' AND stake_deadline <= NOW())
		ORDER BY resolution_due_by
	`

	return r.queryEvents(ctx, query)
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*entities.Event, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*entities.Event
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

func (r *EventRepository) scanEvent(row pgx.Row) (*entities.Event, error) {
	var event entities.Event
	err := row.Scan(
		&event.ID,
		&event.CreatorID,
		&event.Title,
		&event.Description,
		&event.Category,
		&event.OutcomeOptions,
		&event.Status,
		&event.StakeDeadline,
		&event.ProofDeadline,
		&event.ResolutionDueBy,
		&event.EvidencePhase,
		&event.WinningOption,
		&event.ResolvedBy,
		&event.ResolvedAt,
		&event.ResolutionRationale,
		&event.EvidenceID,
		&event.CuratorCommission,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
