package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/rcoelho-dev/olx-radar/internal/clients/olx"
	"github.com/rcoelho-dev/olx-radar/internal/config"
	"github.com/rcoelho-dev/olx-radar/internal/events"
	"github.com/rcoelho-dev/olx-radar/internal/logger"
	"github.com/rcoelho-dev/olx-radar/internal/metrics"
	"github.com/rcoelho-dev/olx-radar/internal/repositories"
	"github.com/rcoelho-dev/olx-radar/internal/services"
	log "github.com/sirupsen/logrus"
)

func runScanner(cfg *config.Config, searches *repositories.Searches, seenIDs *repositories.SeenIDs,
	alerts *repositories.Alerts, runs *repositories.ScanRuns, bus EventBus.Bus) (*services.Scanner, error) {

	client := olx.NewClient()
	client.SetRateLimit(cfg.Scanner.MaxRequestsPerSecond)
	resolver := olx.NewBuildResolver(client)

	scanner, err := services.NewScanner(bus, resolver, client, searches, seenIDs, alerts, runs,
		cfg.Scanner.SweepInterval)
	if err != nil {
		return nil, err
	}

	go scanner.Run()
	return scanner, nil
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer()

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	searches := repositories.NewSearchRepository(dbContext.DB)
	seenIDs := repositories.NewSeenIDsRepository(dbContext.DB, cfg.Scanner.SeenIDsCap)
	alerts := repositories.NewAlertsRepository(dbContext.DB)
	runs := repositories.NewScanRunsRepository(dbContext.DB)

	scorer := services.NewOpportunityScorer(alerts, cfg.Scanner.MinGroupSize)

	bus := EventBus.New()
	err = bus.Subscribe(events.AlertsCreatedTopic, func(event events.AlertsCreated) {
		log.Infof("%d new alerts for search %q", len(event.Alerts), event.Search.Name)

		opportunities, err := scorer.TopOpportunities(ctx, &event.Search, 5)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("can't score opportunities for search %q: %v", event.Search.Name, err)
			return
		}
		for _, opp := range opportunities {
			log.Infof("opportunity for search %q: %s at %.0f, %.0f%% of median (score %.1f)",
				event.Search.Name, opp.Alert.Subject, opp.Price, opp.PriceRatio*100, opp.Score)
		}
	})
	if err != nil {
		log.Fatalf("can't subscribe to alert events: %v", err)
	}

	cleaner, err := services.NewAlertsCleaner(alerts, cfg.Scanner.AlertRetentionInDays)
	if err != nil {
		log.Fatalf("can't create alerts cleaner: %v", err)
	}
	defer cleaner.Stop()

	if _, err = runScanner(cfg, searches, seenIDs, alerts, runs, bus); err != nil {
		log.Fatalf("can't create scanner: %v", err)
	}

	<-ctx.Done()

	log.Info("Shutting down services...")
	log.Info("Services stopped.")
}
