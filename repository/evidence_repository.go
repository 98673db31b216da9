package repository

import (
	"context"
	"fmt"

	"paripool/database"
	"paripool/domain/entities"
	"paripool/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// EvidenceRepository implements the EvidenceRepository interface
type EvidenceRepository struct {
	q Queryable
}

// NewEvidenceRepository creates a new evidence repository
func NewEvidenceRepository(db *database.DB) *EvidenceRepository {
	return &EvidenceRepository{q: db.Pool}
}

func newEvidenceRepository(tx Queryable) interfaces.EvidenceRepository {
	return &EvidenceRepository{q: tx}
}

const evidenceColumns = `
	id, event_id, submitter_id, submitter_role, evidence_type,
	content, description, supported_option, endorsements, created_at
`

// Create creates a new evidence record
func (r *EvidenceRepository) Create(ctx context.Context, evidence *entities.Evidence) error {
	query := `
		INSERT INTO evidence (
			event_id, submitter_id, submitter_role, evidence_type,
			content, description, supported_option
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		evidence.EventID,
		evidence.SubmitterID,
		evidence.SubmitterRole,
		evidence.Type,
		evidence.Content,
		evidence.Description,
		evidence.SupportedOption,
	).Scan(&evidence.ID, &evidence.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create evidence: %w", err)
	}

	return nil
}

// GetByID retrieves an evidence record by its ID
func (r *EvidenceRepository) GetByID(ctx context.Context, id int64) (*entities.Evidence, error) {
	query := `SELECT` + evidenceColumns + `FROM evidence WHERE id = $1`

	var evidence entities.Evidence
	err := r.q.QueryRow(ctx, query, id).Scan(
		&evidence.ID,
		&evidence.EventID,
		&evidence.SubmitterID,
		&evidence.SubmitterRole,
		&evidence.Type,
		&evidence.Content,
		&evidence.Description,
		&evidence.SupportedOption,
		&evidence.Endorsements,
		&evidence.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence %d: %w", id, err)
	}

	return &evidence, nil
}

// GetByEvent returns all evidence submitted for an event
func (r *EvidenceRepository) GetByEvent(ctx context.Context, eventID int64) ([]*entities.Evidence, error) {
	query := `
		SELECT` + evidenceColumns + `
		FROM evidence
		WHERE event_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var records []*entities.Evidence
	for rows.Next() {
		var evidence entities.Evidence
		err := rows.Scan(
			&evidence.ID,
			&evidence.EventID,
			&evidence.SubmitterID,
			&evidence.SubmitterRole,
			&evidence.Type,
			&evidence.Content,
			&evidence.Description,
			&evidence.SupportedOption,
			&evidence.Endorsements,
			&evidence.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		records = append(records, &evidence)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evidence: %w", err)
	}

	return records, nil
}

// IncrementEndorsements bumps the endorsement count and returns the new value
func (r *EvidenceRepository) IncrementEndorsements(ctx context.Context, id int64) (int, error) {
	query := `
		UPDATE evidence
		SET endorsements = endorsements + 1
		WHERE id = $1
		RETURNING endorsements
	`

	var endorsements int
	err := r.q.QueryRow(ctx, query, id).Scan(&endorsements)
	if err == pgx.ErrNoRows {
		return 0, entities.ErrEvidenceNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to endorse evidence %d: %w", id, err)
	}

	return endorsements, nil
}
