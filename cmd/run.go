package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"betfin/chain"
	"betfin/cli"
	"betfin/config"
	"betfin/database"
	"betfin/events"
	"betfin/notifier"
	"betfin/repository"
	"betfin/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting betfin...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	statsService := service.NewStatsService(uowFactory)

	log.WithField("gateway", cfg.LedgerURL).Info("Connecting to game ledger...")
	client := chain.NewClient(cfg.LedgerURL, cfg.Account)
	stream := chain.NewEventStream(cfg.EventStreamURL)
	ledger := chain.NewLedger(client, stream)

	reconciler := service.NewSessionReconciler(ledger, statsService, eventBus, cfg.PollInterval)
	defer reconciler.Close()

	submitter := service.NewTransactionSubmitter(client, reconciler, eventBus, cfg.ConfirmTimeout)

	// The Discord notifier is optional; the casino runs fine without it
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		discordNotifier, err := notifier.New(notifier.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordChannelID,
		}, eventBus)
		if err != nil {
			log.WithError(err).Warn("Discord notifier unavailable")
		} else {
			defer discordNotifier.Close()
		}
	}

	app := cli.New(cfg.Account, submitter, reconciler, statsService)

	runErr := make(chan error, 1)
	go func() {
		runErr <- app.Run(ctx)
	}()

	select {
	case err := <-runErr:
		if err != nil && ctx.Err() == nil {
			return err
		}
	case <-ctx.Done():
		log.Info("Shutting down...")
		select {
		case <-runErr:
		case <-time.After(5 * time.Second):
			log.Warn("Shutdown timeout exceeded")
		}
	}

	return nil
}
