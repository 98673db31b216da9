package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"paripool/config"
	"paripool/domain/entities"
	"paripool/domain/events"
	"paripool/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	config         *config.Config
	eventRepo      interfaces.EventRepository
	wagerRepo      interfaces.WagerRepository
	evidenceRepo   interfaces.EvidenceRepository
	ledger         interfaces.WalletLedger
	eventPublisher interfaces.EventPublisher
	now            func() time.Time
}

// NewSettlementService creates a new settlement service. Settle and Cancel
// must run inside one transaction held by the caller, under the same per-event
// lock as wager placement; on any error the whole settlement rolls back.
func NewSettlementService(
	eventRepo interfaces.EventRepository,
	wagerRepo interfaces.WagerRepository,
	evidenceRepo interfaces.EvidenceRepository,
	ledger interfaces.WalletLedger,
	eventPublisher interfaces.EventPublisher,
) interfaces.SettlementService {
	return &settlementService{
		config:         config.Get(),
		eventRepo:      eventRepo,
		wagerRepo:      wagerRepo,
		evidenceRepo:   evidenceRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// IsCurator checks if a user may resolve events
func (s *settlementService) IsCurator(userID int64) bool {
	for _, curatorID := range s.config.CuratorIDs {
		if userID == curatorID {
			return true
		}
	}
	return false
}

// Settle resolves the event and redistributes its pool: a commission to the
// curator and proportional payouts to the winners, all in one atomic unit.
func (s *settlementService) Settle(ctx context.Context, eventID int64, winningOption string, curatorID int64, evidenceID *int64, rationale string) (*entities.SettlementSummary, error) {
	if !s.IsCurator(curatorID) {
		return nil, fmt.Errorf("user %d may not resolve events: %w", curatorID, entities.ErrNotAuthorized)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, entities.ErrEventNotFound
	}
	if event.IsTerminal() {
		return nil, fmt.Errorf("event %d is %s: %w", eventID, event.Status, entities.ErrAlreadyTerminal)
	}
	if !event.HasOption(winningOption) {
		return nil, fmt.Errorf("option %q: %w", winningOption, entities.ErrInvalidWinningOption)
	}

	if evidenceID != nil {
		evidence, err := s.evidenceRepo.GetByID(ctx, *evidenceID)
		if err != nil {
			return nil, fmt.Errorf("failed to get evidence: %w", err)
		}
		if evidence == nil || evidence.EventID != eventID {
			return nil, fmt.Errorf("evidence %d does not belong to event %d: %w", *evidenceID, eventID, entities.ErrEvidenceNotFound)
		}
	}

	wagers, err := s.wagerRepo.GetByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers: %w", err)
	}

	now := s.now()
	oldStatus := event.Status
	summary := &entities.SettlementSummary{
		ID:            uuid.New().String(),
		EventID:       eventID,
		WinningOption: winningOption,
		TotalWagers:   len(wagers),
		EvidenceID:    evidenceID,
		ResolvedAt:    now,
	}

	var rationalePtr *string
	if rationale != "" {
		rationalePtr = &rationale
	}

	// No stakes: resolve the event and return a zero-valued summary.
	if len(wagers) == 0 {
		event.Resolve(curatorID, winningOption, rationalePtr, evidenceID, now)
		if err := s.eventRepo.Update(ctx, event); err != nil {
			return nil, fmt.Errorf("failed to update resolved event: %w", err)
		}
		s.publishResolved(event, summary, oldStatus)
		return summary, nil
	}

	var winners, losers []*entities.Wager
	var totalPool, winnersPool int64
	for _, wager := range wagers {
		totalPool += wager.Amount
		if wager.Option == winningOption {
			winners = append(winners, wager)
			winnersPool += wager.Amount
		} else {
			losers = append(losers, wager)
		}
	}

	if s.config.CommissionBps > 0 && totalPool > math.MaxInt64/s.config.CommissionBps {
		return nil, fmt.Errorf("pool of %d on event %d: %w", totalPool, eventID, entities.ErrPoolTooLarge)
	}

	commission := totalPool * s.config.CommissionBps / 10000
	distributionPool := totalPool - commission

	relatedID := eventID
	relatedType := entities.RelatedTypeEvent

	var totalPayout int64
	if len(winners) == 0 {
		// Nobody picked the winning option: the pool is logically voided and
		// every stake is refunded in full. The curator is still paid.
		for _, wager := range losers {
			if err := s.ledger.ReleaseAndCredit(ctx, wager.UserID, wager.Amount, wager.Amount,
				entities.TransactionTypeWagerRefund, &relatedID, &relatedType, map[string]any{
					"event_id": eventID,
					"wager_id": wager.ID,
					"reason":   "no_winners",
				}); err != nil {
				return nil, fmt.Errorf("failed to refund wager %d: %w", wager.ID, err)
			}
			wager.MarkSettled(false, wager.Amount, now)
		}
	} else {
		for _, wager := range winners {
			if wager.Amount > 0 && distributionPool > math.MaxInt64/wager.Amount {
				return nil, fmt.Errorf("payout for wager %d: %w", wager.ID, entities.ErrPoolTooLarge)
			}
			payout := wager.Amount * distributionPool / winnersPool
			if err := s.ledger.ReleaseAndCredit(ctx, wager.UserID, wager.Amount, payout,
				entities.TransactionTypeWagerPayout, &relatedID, &relatedType, map[string]any{
					"event_id":   eventID,
					"wager_id":   wager.ID,
					"bet_amount": wager.Amount,
					"odds":       wager.Odds,
				}); err != nil {
				return nil, fmt.Errorf("failed to pay out wager %d: %w", wager.ID, err)
			}
			wager.MarkSettled(true, payout, now)
			totalPayout += payout
		}
		// Flooring the pool-share payouts leaves a few minor units on the
		// table; they go to the commission so the pool is conserved exactly.
		commission += distributionPool - totalPayout

		for _, wager := range losers {
			// Losing stakes leave committed without returning to available;
			// they funded the distribution pool and the commission.
			if err := s.ledger.Release(ctx, wager.UserID, wager.Amount, &relatedID, &relatedType, map[string]any{
				"event_id": eventID,
				"wager_id": wager.ID,
			}); err != nil {
				return nil, fmt.Errorf("failed to release losing wager %d: %w", wager.ID, err)
			}
			wager.MarkSettled(false, 0, now)
		}
	}

	if commission > 0 {
		if err := s.ledger.CreditAvailable(ctx, curatorID, commission,
			entities.TransactionTypeCuratorCommission, &relatedID, &relatedType, map[string]any{
				"event_id":       eventID,
				"settlement_id":  summary.ID,
				"total_pool":     totalPool,
				"commission_bps": s.config.CommissionBps,
			}); err != nil {
			return nil, fmt.Errorf("failed to credit curator commission: %w", err)
		}
	}

	if err := s.wagerRepo.UpdateSettlement(ctx, wagers); err != nil {
		return nil, fmt.Errorf("failed to update settled wagers: %w", err)
	}

	event.Resolve(curatorID, winningOption, rationalePtr, evidenceID, now)
	event.CuratorCommission = commission
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update resolved event: %w", err)
	}

	summary.TotalPool = totalPool
	summary.Commission = commission
	summary.DistributionPool = distributionPool
	summary.WinnersCount = len(winners)
	summary.WinnersPool = winnersPool
	summary.TotalPayout = totalPayout

	s.publishResolved(event, summary, oldStatus)
	return summary, nil
}

func (s *settlementService) publishResolved(event *entities.Event, summary *entities.SettlementSummary, oldStatus entities.EventStatus) {
	if err := s.eventPublisher.Publish(events.EventStateChangeEvent{
		EventID:   event.ID,
		OldStatus: string(oldStatus),
		NewStatus: string(event.Status),
	}); err != nil {
		log.WithError(err).Error("Failed to publish event state change event")
	}
	if err := s.eventPublisher.Publish(events.EventSettledEvent{
		EventID:       event.ID,
		WinningOption: summary.WinningOption,
		TotalPool:     summary.TotalPool,
		Commission:    summary.Commission,
		WinnersCount:  summary.WinnersCount,
		TotalPayout:   summary.TotalPayout,
	}); err != nil {
		log.WithError(err).Error("Failed to publish event settled event")
	}
}

// Cancel voids the event: every unsettled wager is refunded in full, no
// commission is charged, and the event reaches its cancelled terminal state.
func (s *settlementService) Cancel(ctx context.Context, eventID int64, actorID *int64) (*entities.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, entities.ErrEventNotFound
	}
	if event.IsTerminal() {
		return nil, fmt.Errorf("event %d is %s: %w", eventID, event.Status, entities.ErrAlreadyTerminal)
	}

	// Allow system cancellation when actorID is nil
	if actorID != nil {
		isCreator := *actorID == event.CreatorID
		if !isCreator && !s.IsCurator(*actorID) {
			return nil, fmt.Errorf("only the creator or a curator can cancel an event: %w", entities.ErrNotAuthorized)
		}
	}

	wagers, err := s.wagerRepo.GetUnsettledByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers: %w", err)
	}

	now := s.now()
	relatedID := eventID
	relatedType := entities.RelatedTypeEvent
	for _, wager := range wagers {
		if err := s.ledger.ReleaseAndCredit(ctx, wager.UserID, wager.Amount, wager.Amount,
			entities.TransactionTypeWagerRefund, &relatedID, &relatedType, map[string]any{
				"event_id": eventID,
				"wager_id": wager.ID,
				"reason":   "cancelled",
			}); err != nil {
			return nil, fmt.Errorf("failed to refund wager %d: %w", wager.ID, err)
		}
		wager.MarkSettled(false, wager.Amount, now)
	}

	if len(wagers) > 0 {
		if err := s.wagerRepo.UpdateSettlement(ctx, wagers); err != nil {
			return nil, fmt.Errorf("failed to update refunded wagers: %w", err)
		}
	}

	oldStatus := event.Status
	event.Cancel()
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update cancelled event: %w", err)
	}

	if err := s.eventPublisher.Publish(events.EventStateChangeEvent{
		EventID:   event.ID,
		OldStatus: string(oldStatus),
		NewStatus: string(event.Status),
	}); err != nil {
		log.WithError(err).Error("Failed to publish event state change event")
	}

	return event, nil
}
