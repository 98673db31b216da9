package entities

import (
	"time"
)

// EvidenceRole captures the submitter's relationship to the event at
// submission time
type EvidenceRole string

const (
	EvidenceRoleCreator EvidenceRole = "creator"
	EvidenceRolePublic  EvidenceRole = "public"
	EvidenceRoleCurator EvidenceRole = "curator"
)

// Evidence is a proof-of-outcome record attached to an event. Immutable after
// creation except for the endorsement count.
type Evidence struct {
	ID              int64        `db:"id"`
	EventID         int64        `db:"event_id"`
	SubmitterID     int64        `db:"submitter_id"`
	SubmitterRole   EvidenceRole `db:"submitter_role"`
	Type            string       `db:"evidence_type"`
	Content         string       `db:"content"`
	Description     string       `db:"description"`
	SupportedOption string       `db:"supported_option"`
	Endorsements    int          `db:"endorsements"`
	CreatedAt       time.Time    `db:"created_at"`
}
