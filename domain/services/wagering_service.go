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

type wageringService struct {
	config         *config.Config
	eventRepo      interfaces.EventRepository
	wagerRepo      interfaces.WagerRepository
	ledger         interfaces.WalletLedger
	eventPublisher interfaces.EventPublisher
	now            func() time.Time
}

// NewWageringService creates a new wagering service. All of its mutations must
// run inside one transaction held by the caller, together with the per-event
// lock, so that pool totals cannot go stale between pricing and commit.
func NewWageringService(
	eventRepo interfaces.EventRepository,
	wagerRepo interfaces.WagerRepository,
	ledger interfaces.WalletLedger,
	eventPublisher interfaces.EventPublisher,
) interfaces.WageringService {
	return &wageringService{
		config:         config.Get(),
		eventRepo:      eventRepo,
		wagerRepo:      wagerRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// PlaceWager stakes amount on an option of an open event
func (s *wageringService) PlaceWager(ctx context.Context, userID, eventID int64, option string, amount int64) (*entities.Wager, error) {
	if amount < s.config.MinimumStake {
		return nil, fmt.Errorf("minimum stake is %d: %w", s.config.MinimumStake, entities.ErrBelowMinimum)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, entities.ErrEventNotFound
	}

	now := s.now()
	if event.Status != entities.EventStatusOpen {
		return nil, fmt.Errorf("event %d is %s: %w", eventID, event.Status, entities.ErrEventNotOpen)
	}
	if !now.Before(event.StakeDeadline) {
		return nil, fmt.Errorf("stake deadline was %s: %w", event.StakeDeadline.Format(time.RFC3339), entities.ErrStakeWindowClosed)
	}
	if !event.HasOption(option) {
		return nil, fmt.Errorf("option %q: %w", option, entities.ErrInvalidOption)
	}

	// Price against the pool as it will stand once this stake is included.
	// Settlement never removes wagers, so the aggregate covers the full set.
	totals, err := s.wagerRepo.GetPoolTotals(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool totals: %w", err)
	}
	newTotal := totals.TotalAmount + amount
	newOptionPool := totals.OptionAmount(option) + amount
	odds := Odds(newTotal, newOptionPool)

	relatedID := eventID
	relatedType := entities.RelatedTypeEvent
	if err := s.ledger.Commit(ctx, userID, amount, &relatedID, &relatedType, map[string]any{
		"event_id": eventID,
		"option":   option,
	}); err != nil {
		return nil, err
	}

	wager := &entities.Wager{
		EventID:         eventID,
		UserID:          userID,
		Option:          option,
		Amount:          amount,
		Odds:            odds,
		PotentialPayout: int64(float64(amount) * odds),
		Settled:         false,
	}
	if err := s.wagerRepo.Create(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	if err := s.eventPublisher.Publish(events.WagerPlacedEvent{
		WagerID: wager.ID,
		EventID: eventID,
		UserID:  userID,
		Option:  option,
		Amount:  amount,
		Odds:    odds,
	}); err != nil {
		log.WithError(err).Error("Failed to publish wager placed event")
	}

	return wager, nil
}

// GetEventWagerStats returns the pool composition with current odds per option
func (s *wageringService) GetEventWagerStats(ctx context.Context, eventID int64) (*entities.EventWagerStats, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, entities.ErrEventNotFound
	}

	totals, err := s.wagerRepo.GetPoolTotals(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool totals: %w", err)
	}

	stats := &entities.EventWagerStats{
		EventID:     eventID,
		TotalWagers: totals.TotalWagers,
		TotalAmount: totals.TotalAmount,
		ByOption:    make(map[string]entities.OptionStats, len(event.OutcomeOptions)),
	}
	for _, option := range event.OutcomeOptions {
		pool := totals.ByOption[option]
		stats.ByOption[option] = entities.OptionStats{
			Wagers: pool.Wagers,
			Amount: pool.Amount,
			Odds:   Odds(totals.TotalAmount, pool.Amount),
		}
	}

	return stats, nil
}
