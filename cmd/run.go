package cmd

import (
	"context"
	"fmt"
	"time"

	"paripool/application"
	"paripool/config"
	"paripool/database"
	"paripool/domain/events"
	"paripool/infrastructure"
	"paripool/repository"

	log "github.com/sirupsen/logrus"
)

// sweepInterval controls how often expired open events are closed in the
// background. Read paths apply the same transition lazily, so the sweep only
// keeps stored statuses and downstream consumers current.
const sweepInterval = time.Minute

// Run initializes and starts the engine
func Run(ctx context.Context) error {
	log.Info("Starting paripool engine...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	publisher, natsClient, err := initPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer natsClient.Close()
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, publisher)
	engine := application.NewEngine(uowFactory)

	log.WithField("environment", cfg.Environment).Info("Engine is running")

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down engine...")
			return nil
		case <-ticker.C:
			if _, err := engine.TransitionExpiredEvents(ctx); err != nil {
				log.WithError(err).Error("Failed to close expired events")
			}
		}
	}
}

// initPublisher connects to NATS when servers are configured, otherwise falls
// back to a publisher that discards events.
func initPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, *infrastructure.NATSClient, error) {
	if cfg.NATSServers == "" {
		log.Warn("NATS_SERVERS not set, domain events will not be published")
		return infrastructure.NewNoopEventPublisher(), nil, nil
	}

	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if err := natsClient.EnsureDomainEventStream(); err != nil {
		natsClient.Close()
		return nil, nil, fmt.Errorf("failed to ensure domain event stream: %w", err)
	}

	return infrastructure.NewNATSEventPublisher(natsClient), natsClient, nil
}
