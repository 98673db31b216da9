package services

import (
	"context"
	"fmt"

	"paripool/config"
	"paripool/domain/entities"
	"paripool/domain/events"
	"paripool/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type userService struct {
	config         *config.Config
	userRepo       interfaces.UserRepository
	walletRepo     interfaces.WalletRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	eventPublisher interfaces.EventPublisher
}

// NewUserService creates a new user service
func NewUserService(
	userRepo interfaces.UserRepository,
	walletRepo interfaces.WalletRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.UserService {
	return &userService{
		config:         config.Get(),
		userRepo:       userRepo,
		walletRepo:     walletRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// CreateUser creates the user and their wallet as a two-step saga inside the
// caller's transaction, so a user can never exist without a wallet.
func (s *userService) CreateUser(ctx context.Context, username string) (*entities.User, error) {
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}

	user, err := s.userRepo.Create(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	wallet, err := s.walletRepo.Create(ctx, user.ID, s.config.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet for user %d: %w", user.ID, err)
	}

	if s.config.StartingBalance > 0 {
		entry := &entities.LedgerEntry{
			UserID:          user.ID,
			AvailableDelta:  s.config.StartingBalance,
			AvailableAfter:  wallet.Available,
			CommittedAfter:  wallet.Committed,
			TransactionType: entities.TransactionTypeInitial,
			TransactionMetadata: map[string]any{
				"username": username,
			},
		}
		if err := s.ledgerRepo.Record(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record initial balance: %w", err)
		}
	}

	if err := s.eventPublisher.Publish(events.UserCreatedEvent{
		UserID:         user.ID,
		Username:       username,
		InitialBalance: s.config.StartingBalance,
	}); err != nil {
		log.WithError(err).Error("Failed to publish user created event")
	}

	return user, nil
}
