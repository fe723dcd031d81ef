package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordquest/internal/config"
	"github.com/mcdev12/wordquest/internal/game"
	"github.com/mcdev12/wordquest/internal/gateway"
	"github.com/mcdev12/wordquest/internal/questions"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Getenv("WORDQUEST_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Question bank: embedded set unless a file is configured
	bank := questions.Default()
	if cfg.Game.QuestionsFile != "" {
		bank, err = questions.LoadFile(cfg.Game.QuestionsFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Game.QuestionsFile).Msg("failed to load question file")
		}
	}

	settings := game.Settings{
		TotalRounds:      cfg.Game.TotalRounds,
		GameTimerSec:     cfg.Game.GameTimerSec,
		PersonalTimerSec: cfg.Game.PersonalTimerSec,
		ResultsDelaySec:  cfg.Game.ResultsDelaySec,
	}

	log.Info().
		Int("port", cfg.Server.Port).
		Int("total_rounds", settings.TotalRounds).
		Int("game_timer_sec", settings.GameTimerSec).
		Msg("starting word quest server")

	// Wire the gateway to the room registry: the connection manager is the
	// registry's outbound channel, the intent router its inbound one.
	connectionManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	registry := game.NewRegistry(settings, bank, clockwork.NewRealClock(), connectionManager)
	connectionManager.SetHandler(gateway.NewIntentRouter(registry))

	mux := http.NewServeMux()

	wsHandler := gateway.NewWebSocketHandler(connectionManager, registry, cfg.Server.PublicURL)
	wsHandler.RegisterRoutes(mux)

	// Add health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      c.Handler(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go connectionManager.Start(ctx)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
	registry.Shutdown()

	log.Info().Msg("word quest server shutdown complete")
}
