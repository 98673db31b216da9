package services

import (
	"context"
	"fmt"
	"time"

	"paripool/config"
	"paripool/domain/entities"
	"paripool/domain/events"
	"paripool/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type evidenceService struct {
	config         *config.Config
	eventRepo      interfaces.EventRepository
	evidenceRepo   interfaces.EvidenceRepository
	eventPublisher interfaces.EventPublisher
	now            func() time.Time
}

// NewEvidenceService creates a new evidence service
func NewEvidenceService(
	eventRepo interfaces.EventRepository,
	evidenceRepo interfaces.EvidenceRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.EvidenceService {
	return &evidenceService{
		config:         config.Get(),
		eventRepo:      eventRepo,
		evidenceRepo:   evidenceRepo,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// authorize applies the evidence gate: the phase is derived from the current
// time on every call, never from the cached column. During the creator window
// only the creator may submit; once the window lapses the creator is barred
// from the public phase, forcing independent verification.
func (s *evidenceService) authorize(event *entities.Event, submitterID int64, now time.Time) (entities.EvidenceRole, error) {
	if event.IsTerminal() {
		return "", fmt.Errorf("event %d is %s: %w", event.ID, event.Status, entities.ErrEventClosed)
	}

	isCreator := submitterID == event.CreatorID

	switch event.EvidencePhaseAt(now) {
	case entities.EvidencePhaseNone:
		return "", fmt.Errorf("evidence opens at %s: %w", event.StakeDeadline.Format(time.RFC3339), entities.ErrEvidenceTooEarly)
	case entities.EvidencePhaseCreator:
		if !isCreator {
			return "", entities.ErrNotCreatorWindow
		}
		return entities.EvidenceRoleCreator, nil
	default: // public phase
		if isCreator {
			return "", fmt.Errorf("creator window closed at %s: %w", event.ProofDeadline.Format(time.RFC3339), entities.ErrCreatorWindowExpired)
		}
		return entities.EvidenceRolePublic, nil
	}
}

// SubmitEvidence records a proof-of-outcome submission
func (s *evidenceService) SubmitEvidence(ctx context.Context, eventID, submitterID int64, evidenceType, content, description, supportedOption string) (*entities.Evidence, error) {
	if content == "" {
		return nil, fmt.Errorf("evidence content cannot be empty")
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, entities.ErrEventNotFound
	}
	if !event.HasOption(supportedOption) {
		return nil, fmt.Errorf("option %q: %w", supportedOption, entities.ErrInvalidOption)
	}

	role, err := s.authorize(event, submitterID, s.now())
	if err != nil {
		return nil, err
	}

	evidence := &entities.Evidence{
		EventID:         eventID,
		SubmitterID:     submitterID,
		SubmitterRole:   role,
		Type:            evidenceType,
		Content:         content,
		Description:     description,
		SupportedOption: supportedOption,
	}
	if err := s.evidenceRepo.Create(ctx, evidence); err != nil {
		return nil, fmt.Errorf("failed to create evidence: %w", err)
	}

	if err := s.eventPublisher.Publish(events.EvidenceSubmittedEvent{
		EvidenceID:      evidence.ID,
		EventID:         eventID,
		SubmitterID:     submitterID,
		SubmitterRole:   string(role),
		SupportedOption: supportedOption,
	}); err != nil {
		log.WithError(err).Error("Failed to publish evidence submitted event")
	}

	return evidence, nil
}

// EndorseEvidence increments an evidence record's endorsement count
func (s *evidenceService) EndorseEvidence(ctx context.Context, evidenceID int64) (*entities.Evidence, error) {
	evidence, err := s.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence: %w", err)
	}
	if evidence == nil {
		return nil, entities.ErrEvidenceNotFound
	}

	count, err := s.evidenceRepo.IncrementEndorsements(ctx, evidenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to endorse evidence: %w", err)
	}
	evidence.Endorsements = count

	return evidence, nil
}

// ListEvidence returns all evidence submitted for an event
func (s *evidenceService) ListEvidence(ctx context.Context, eventID int64) ([]*entities.Evidence, error) {
	evidence, err := s.evidenceRepo.GetByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	return evidence, nil
}
