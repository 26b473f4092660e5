package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "vehicle-auction/internal/biddingService"
	"vehicle-auction/internal/broadcast"
	"vehicle-auction/internal/config"
	"vehicle-auction/internal/events"
	model "vehicle-auction/internal/models"
	"vehicle-auction/internal/repository"
	"vehicle-auction/internal/seed"
	"vehicle-auction/internal/server"
	"vehicle-auction/utils"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		utils.Fatal("invalid configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Warn("unknown log level, keeping default", map[string]any{"log_level": cfg.LogLevel})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.NewMemoryRepo()
	hub := broadcast.NewHub[model.AuctionSnapshot](16)

	dispatcher := events.NewDispatcher(cfg.Bidding.PublishTimeout, buildPublishers(cfg)...)
	dispatcher.Start()

	biddingSvc := bidding.NewBiddingService(repo,
		bidding.WithMinIncrement(cfg.Bidding.MinIncrement),
		bidding.WithIdempotencyWindow(cfg.Bidding.IdempotencyWindow),
		bidding.WithBroadcaster(hub),
		bidding.WithEventSink(dispatcher),
	)

	if cfg.SeedDemoData {
		if err := seed.Load(ctx, biddingSvc, time.Now().UTC()); err != nil {
			utils.Fatal("failed to seed demo auctions", map[string]any{"error": err.Error()})
		}
		utils.Info("demo auctions seeded", nil)
	}

	countdown := bidding.NewCountdownPublisher(repo, biddingSvc.Broadcaster(), cfg.Bidding.CountdownInterval)
	countdownDone := make(chan struct{})
	go func() {
		defer close(countdownDone)
		countdown.Run(ctx)
	}()

	router := server.SetupRouter(biddingSvc)
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"addr": cfg.ServerAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down", nil)

	// close watch streams first so Shutdown does not wait on them
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server shutdown failed", map[string]any{"error": err.Error()})
	}

	<-countdownDone
	dispatcher.Close()
	utils.Info("auction server stopped", nil)
}

// buildPublishers connects the configured event brokers. A broker that cannot be reached is
// logged and skipped so that bidding stays available.
func buildPublishers(cfg config.Config) []events.Publisher {
	var publishers []events.Publisher

	client, err := config.NewRedisClient(cfg.Redis)
	switch {
	case err != nil:
		utils.Error("redis unavailable, bid events will not be streamed", map[string]any{"error": err.Error()})
	case client != nil:
		publishers = append(publishers, events.NewRedisStreamPublisher(client, cfg.Redis.StreamKey, cfg.Redis.MaxLen))
		utils.Info("publishing bid events to redis stream", map[string]any{"stream": cfg.Redis.StreamKey})
	}

	if cfg.AMQP.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			utils.Error("rabbitmq unavailable, bid events will not be queued", map[string]any{"error": err.Error()})
		} else {
			publishers = append(publishers, p)
			utils.Info("publishing bid events to rabbitmq", map[string]any{"queue": cfg.AMQP.Queue})
		}
	}

	return publishers
}
