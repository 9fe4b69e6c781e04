package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"counsel-chat/auth"
	"counsel-chat/infrastructure/rest"
	"counsel-chat/infrastructure/ws"
	"counsel-chat/internal"
	"counsel-chat/observability"
	"counsel-chat/repositories"
	"counsel-chat/runtime"
	"counsel-chat/runtime/workers"
	"counsel-chat/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
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
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Setup Supervision & Broker
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	identityRepository := repositories.NewIdentityRepository(db)

	broker := runtime.NewBroker(log, sup, registry, messageRepository,
		config.BufferSize, config.SinkTimeout)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start the Engine
	if err = broker.Start(ctx); err != nil {
		return fmt.Errorf("broker failed to start: %w", err)
	}

	// 6. HTTP & Websocket Surface
	chatService := services.NewChatService(broker, messageRepository, identityRepository)
	verifier := auth.NewTokenVerifier(config.JWTSecret)
	statsCollector, err := observability.NewCollector()
	if err != nil {
		return fmt.Errorf("stats collector failed: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	rest.NewHTTPHandler(log, chatService, verifier, statsCollector).RegisterRoutes(router)

	wsHandler := ws.NewHandler(log, chatService, verifier, config.ConnectionBufferSize)
	router.GET("/ws", gin.WrapF(wsHandler.HandleWS))

	// Read-only store inspector on the debug port.
	internal.StartDebugServer(db, config.DebugPort, "/inspect", nil, func() map[string]any {
		snapshot, statErr := statsCollector.Snapshot()
		if statErr != nil {
			return map[string]any{"Status": "stats unavailable"}
		}
		return map[string]any{
			"Status":     "Serving",
			"RSS (MB)":   snapshot.RSSMb,
			"Goroutines": snapshot.Goroutines,
		}
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{Addr: address, Handler: router}

	// Use an error channel to capture ListenAndServe issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting chat server", "address", address, "at", time.Now().UTC())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	broker.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
