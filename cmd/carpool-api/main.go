// README: Entry point; loads config, wires providers and services, starts
// the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"carpool/internal/ai"
	"carpool/internal/config"
	httptransport "carpool/internal/http"
	"carpool/internal/infra"
	"carpool/internal/logging"
	mapsadapter "carpool/internal/maps"
	"carpool/internal/modules/assign"
	"carpool/internal/modules/compat"
	"carpool/internal/modules/geo"
	"carpool/internal/modules/pickup"
	"carpool/internal/modules/rides"
	"carpool/internal/modules/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mapsClient, err := mapsadapter.NewClient(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}
	embedder, err := ai.NewGeminiEmbedder(ctx, cfg.AI.GeminiKey)
	if err != nil {
		log.Fatalf("gemini init: %v", err)
	}
	defer embedder.Close()

	var pairCache geo.PairCache = geo.NewMemoryPairCache()
	if cfg.Redis.Addr != "" {
		pairCache = infra.NewRedisPairCache(infra.NewRedis(cfg.Redis.Addr))
	}

	provider := geo.NewProvider(
		mapsadapter.NewRouteService(mapsClient),
		pairCache,
		logger,
		cfg.Engine.Workers,
		cfg.Engine.ProviderTimeout,
	)
	scorer := compat.NewScorer(embedder, logger)
	engine := assign.NewEngine(provider, scorer, logger, cfg.Engine)
	resolver := pickup.NewResolver(provider, mapsadapter.NewRoadsService(mapsClient), logger, cfg.Engine)
	scheduler := schedule.NewScheduler(mapsadapter.NewTravelService(mapsClient), logger,
		cfg.Engine.StopDuration, cfg.Engine.ProviderTimeout)

	svc := rides.NewService(engine, resolver, scheduler, logger, cfg.Engine)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(svc, logger),
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("carpool api listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
