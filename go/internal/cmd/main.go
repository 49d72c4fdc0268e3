package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rinkops/rinkd/go/internal/api"
	"github.com/rinkops/rinkd/go/internal/events"
	"github.com/rinkops/rinkd/go/internal/game"
	"github.com/rinkops/rinkd/go/internal/gateway"
	"github.com/rinkops/rinkd/go/internal/notify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadConfig(getEnv("RINKD_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.OperatorToken == "" {
		log.Warn().Msg("no operator token configured, mutating endpoints are disabled")
	}

	clock := clockwork.NewRealClock()
	hub := gateway.NewHub()
	engine := game.NewEngine(&gateway.GameSink{Hub: hub}, clock)
	hub.SetSnapshotProvider(func() any { return engine.Snapshot() })

	// Pre-seed match durations from config so the first operator session
	// starts from sensible clocks even before a setup command.
	if cfg.Game.PeriodDuration != "" || cfg.Game.IntervalDuration != "" {
		patch := game.ConfigPatch{}
		if cfg.Game.PeriodDuration != "" {
			patch.PeriodDuration = &cfg.Game.PeriodDuration
		}
		if cfg.Game.IntervalDuration != "" {
			patch.IntervalDuration = &cfg.Game.IntervalDuration
		}
		if _, err := engine.ApplyConfig(patch); err != nil {
			log.Fatal().Err(err).Msg("invalid game durations in configuration")
		}
	}

	if cfg.NATS.Enabled {
		mirror, err := events.NewPublisher(cfg.NATS.Config)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event mirror")
		}
		defer mirror.Close()
		hub.SetMirror(mirror)
		log.Info().Str("nats_url", cfg.NATS.URL).Msg("event mirror enabled")
	}

	ticker := game.NewTicker(engine, clock)
	notifier := notify.New(hub, clock)
	wsHandler := gateway.NewWSHandler(hub, gateway.DefaultConfig())
	a := api.New(engine, hub, wsHandler, notifier, cfg.OperatorToken)

	server := setupServer(cfg.Addr, a.Router())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	go ticker.Run(ctx)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("rinkd shutdown complete")
}
