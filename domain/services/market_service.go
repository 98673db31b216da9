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

type marketService struct {
	config         *config.Config
	eventRepo      interfaces.EventRepository
	userRepo       interfaces.UserRepository
	eventPublisher interfaces.EventPublisher
	now            func() time.Time
}

// NewMarketService creates a new market lifecycle service
func NewMarketService(
	eventRepo interfaces.EventRepository,
	userRepo interfaces.UserRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.MarketService {
	return &marketService{
		config:         config.Get(),
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// validateSchedule enforces the creation invariants shared by CreateEvent and
// UpdateSchedule: a minimum lead time before the stake deadline and a
// resolution due date strictly after it.
func (s *marketService) validateSchedule(stakeDeadline, resolutionDueBy time.Time, now time.Time) error {
	if stakeDeadline.Before(now.Add(s.config.ScheduleLeadTime)) {
		return fmt.Errorf("stake deadline must be at least %s away: %w", s.config.ScheduleLeadTime, entities.ErrInvalidSchedule)
	}
	if !resolutionDueBy.After(stakeDeadline) {
		return fmt.Errorf("resolution due date must be after the stake deadline: %w", entities.ErrInvalidSchedule)
	}
	return nil
}

// CreateEvent creates a new open event
func (s *marketService) CreateEvent(ctx context.Context, creatorID int64, title, description, category string, options []string, stakeDeadline, resolutionDueBy time.Time) (*entities.Event, error) {
	if title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	if err := entities.ValidateOutcomeOptions(options); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.validateSchedule(stakeDeadline, resolutionDueBy, now); err != nil {
		return nil, err
	}

	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("creator %d: %w", creatorID, entities.ErrUserNotFound)
	}

	event := &entities.Event{
		CreatorID:       creatorID,
		Title:           title,
		Description:     description,
		Category:        category,
		OutcomeOptions:  options,
		Status:          entities.EventStatusOpen,
		StakeDeadline:   stakeDeadline,
		ProofDeadline:   stakeDeadline.Add(s.config.ProofGraceWindow),
		ResolutionDueBy: resolutionDueBy,
		EvidencePhase:   entities.EvidencePhaseNone,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

// refresh applies the lazy open to closed transition and updates the cached
// evidence phase if either drifted. Both writes are conditional on the stored
// status: refresh runs outside the per-event lock, so a settlement may land
// between the read and the write, and the stale snapshot must lose that race.
func (s *marketService) refresh(ctx context.Context, event *entities.Event) error {
	now := s.now()

	if event.Status == entities.EventStatusOpen && event.EffectiveStatusAt(now) == entities.EventStatusClosed {
		phase := event.EvidencePhaseAt(now)
		closed, err := s.eventRepo.CloseExpired(ctx, event.ID, phase)
		if err != nil {
			return fmt.Errorf("failed to close expired event %d: %w", event.ID, err)
		}
		if !closed {
			// The stored row is no longer open; reload instead of guessing.
			fresh, err := s.eventRepo.GetByID(ctx, event.ID)
			if err != nil {
				return fmt.Errorf("failed to reload event %d: %w", event.ID, err)
			}
			if fresh != nil {
				*event = *fresh
			}
			return nil
		}

		oldStatus := event.Status
		event.Close()
		event.EvidencePhase = phase

		if err := s.eventPublisher.Publish(events.EventStateChangeEvent{
			EventID:   event.ID,
			OldStatus: string(oldStatus),
			NewStatus: string(event.Status),
		}); err != nil {
			log.WithError(err).Error("Failed to publish event state change event")
		}
		return nil
	}

	if !event.IsTerminal() {
		if phase := event.EvidencePhaseAt(now); phase != event.EvidencePhase {
			if err := s.eventRepo.UpdateEvidencePhase(ctx, event.ID, phase); err != nil {
				return fmt.Errorf("failed to refresh evidence phase for event %d: %w", event.ID, err)
			}
			event.EvidencePhase = phase
		}
	}
	return nil
}

// GetEvent loads an event, self-correcting stale status on the read path
func (s *marketService) GetEvent(ctx context.Context, eventID int64) (*entities.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, entities.ErrEventNotFound
	}
	if err := s.refresh(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateSchedule changes the dates of an open event
func (s *marketService) UpdateSchedule(ctx context.Context, eventID, actorID int64, stakeDeadline, resolutionDueBy time.Time) (*entities.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.CreatorID != actorID {
		return nil, fmt.Errorf("only the creator may reschedule an event: %w", entities.ErrNotAuthorized)
	}
	// Date mutation is permitted only while the event is open; the lazy
	// transition in GetEvent already closed it if the deadline passed.
	if !event.IsOpen() {
		return nil, fmt.Errorf("event %d is %s: %w", eventID, event.Status, entities.ErrEventNotOpen)
	}

	now := s.now()
	if err := s.validateSchedule(stakeDeadline, resolutionDueBy, now); err != nil {
		return nil, err
	}

	event.StakeDeadline = stakeDeadline
	event.ProofDeadline = stakeDeadline.Add(s.config.ProofGraceWindow)
	event.ResolutionDueBy = resolutionDueBy
	event.EvidencePhase = event.EvidencePhaseAt(now)

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event schedule: %w", err)
	}

	return event, nil
}

// TransitionExpiredEvents finds open events past their stake deadline and
// closes them
func (s *marketService) TransitionExpiredEvents(ctx context.Context) ([]*entities.Event, error) {
	expired, err := s.eventRepo.GetExpiredOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired open events: %w", err)
	}

	for _, event := range expired {
		if err := s.refresh(ctx, event); err != nil {
			return nil, err
		}
	}

	return expired, nil
}

// ListAwaitingResolution returns closed events pending a curator decision
func (s *marketService) ListAwaitingResolution(ctx context.Context) ([]*entities.Event, error) {
	// Close anything stale first so the listing is accurate without a
	// background scheduler.
	if _, err := s.TransitionExpiredEvents(ctx); err != nil {
		return nil, err
	}

	pending, err := s.eventRepo.GetAwaitingResolution(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events awaiting resolution: %w", err)
	}
	return pending, nil
}
