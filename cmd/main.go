package main

import (
	"chat-relay/auth"
	"chat-relay/infrastructure/api"
	"chat-relay/infrastructure/ws"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB, account storage only)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Authentication & accounts
	authority := auth.NewTokenAuthority(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(repositories.NewUserRepository(db), authority)

	// 4. Broadcast core
	registry := runtime.NewRegistry()
	limiter := runtime.NewRateLimiter(config.RateInterval)
	history := runtime.NewHistory(config.HistoryLimit)

	var moderator *moderation.Moderator
	if config.CensoredWords != "" {
		replacement, err := CharacterRune(config.CensorReplacement)
		if err != nil {
			return err
		}
		m, err := moderation.NewModerator(strings.Split(config.CensoredWords, ","), replacement)
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
		moderator = &m
	}

	coordinator := runtime.NewCoordinator(log, registry, limiter, history,
		moderator, config.DedupMessages)

	// 5. Transport & front door
	wsHandler := ws.NewHandler(log, registry, coordinator, authority, ws.Config{
		SendBufferSize: config.ConnectionBufferSize,
		ProbeInterval:  config.ProbeInterval,
		WriteTimeout:   config.WriteTimeout,
		MaxFrameBytes:  config.MaxFrameBytes,
	})
	frontDoor := api.NewServer(log, authService, wsHandler,
		rate.Limit(config.LoginRatePerSecond), config.LoginBurst)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Background workers under supervision
	sup := workers.NewSupervisor(log)
	stats := func() map[string]any {
		return map[string]any{
			"sessions":      registry.Len(),
			"authenticated": registry.AuthenticatedLen(),
			"history":       history.Len(),
		}
	}
	supDone := make(chan struct{})
	go func() {
		sup.Add(workers.NewTelemetryWorker(log, config.MetricInterval, stats)).Run(ctx)
		close(supDone)
	}()

	// 8. HTTP Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: frontDoor.Routes()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	for _, session := range registry.Snapshot() {
		session.Teardown()
	}
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}
