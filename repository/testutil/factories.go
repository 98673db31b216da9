package testutil

import (
	"time"

	"paripool/domain/entities"
)

// CreateTestEvent creates an open event with sensible defaults
func CreateTestEvent(creatorID int64, title string) *entities.Event {
	stakeDeadline := time.Now().Add(24 * time.Hour)
	return &entities.Event{
		CreatorID:       creatorID,
		Title:           title,
		OutcomeOptions:  []string{"yes", "no"},
		Status:          entities.EventStatusOpen,
		StakeDeadline:   stakeDeadline,
		ProofDeadline:   stakeDeadline.Add(24 * time.Hour),
		ResolutionDueBy: stakeDeadline.Add(48 * time.Hour),
		EvidencePhase:   entities.EvidencePhaseNone,
	}
}

// CreateTestWager creates an unsettled wager on the given event
func CreateTestWager(eventID, userID int64, option string, amount int64) *entities.Wager {
	return &entities.Wager{
		EventID:         eventID,
		UserID:          userID,
		Option:          option,
		Amount:          amount,
		Odds:            2.0,
		PotentialPayout: amount * 2,
	}
}

// CreateTestLedgerEntry creates a stake commit entry for the given user
func CreateTestLedgerEntry(userID int64, amount int64) *entities.LedgerEntry {
	return &entities.LedgerEntry{
		UserID:          userID,
		AvailableDelta:  -amount,
		CommittedDelta:  amount,
		AvailableAfter:  1000 - amount,
		CommittedAfter:  amount,
		TransactionType: entities.TransactionTypeStakeCommit,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestEvidence creates a creator-phase evidence record
func CreateTestEvidence(eventID, submitterID int64, option string) *entities.Evidence {
	return &entities.Evidence{
		EventID:         eventID,
		SubmitterID:     submitterID,
		SubmitterRole:   entities.EvidenceRoleCreator,
		Type:            "url",
		Content:         "https://example.com/proof",
		SupportedOption: option,
	}
}
