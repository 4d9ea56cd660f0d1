package main

import (
	"chat-relay/broker"
	"chat-relay/contract"
	"chat-relay/gateway"
	"chat-relay/internal"
	"chat-relay/repositories"
	"chat-relay/repositories/storage"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Keeping the logic out of main ensures deferred cleanups execute before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Document store (the registry exists first so the debug inspector
	// can report live connection counts)
	registry := runtime.NewRegistry()
	store, cleanup, err := openStore(ctx, config, logger, registry)
	if err != nil {
		return exitRuntime, err
	}
	defer cleanup()

	// 3. Broker
	var bus contract.Broker
	if config.RedisAddr != "" {
		redisBroker := broker.NewRedis(logger, config.RedisAddr, config.RedisPassword, config.BufferSize)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisBroker.Ping(pingCtx)
		cancel()
		if err != nil {
			return exitRuntime, fmt.Errorf("redis unreachable: %w", err)
		}
		defer redisBroker.Close()
		bus = redisBroker
	} else {
		logger.Warn("REDIS_ADDR not set, running the in-process broker (single node only)")
		bus = broker.NewMemory(config.BufferSize)
	}

	// 4. Repositories & services
	conversations := repositories.NewConversationRepository(logger, repositories.NewConversationCollection(store))
	messages := repositories.NewMessageRepository(logger, repositories.NewMessageCollection(store))
	subscriptions := repositories.NewSubscriptionRepository(logger, repositories.NewSubscriptionCollection(store))
	users := repositories.NewUserRepository(logger, repositories.NewUserCollection(store))
	tokens := repositories.NewAccessTokenRepository(logger, repositories.NewAccessTokenCollection(store))

	propagator := workers.NewPropagator(logger, bus, registry)
	chatService := services.NewChatService(logger, conversations, messages, subscriptions, propagator, config.MessageLimit())
	tokenService := services.NewTokenService(logger, tokens, config.TokenValidationTimeout)
	authService := services.NewAuthService(logger, users, tokens, config.AuthTokenDuration)

	hub := gateway.NewHub()
	propagator.InjectTransport(hub)
	gate := gateway.NewGate(logger, tokenService)
	server := gateway.NewServer(logger, gate, registry, hub, chatService, authService, users)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	// 6. Fanout workers
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	go func() {
		logger.Info("Starting fanout workers...")
		supervisor.Add(propagator.Workers()...).Run(ctx)
	}()

	// 7. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: server.Handler()}
	go func() {
		logger.Info("Starting websocket gateway", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	supervisor.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func openStore(ctx context.Context, config internal.Config, logger *slog.Logger, registry contract.IRegistry) (storage.Store, func(), error) {
	switch config.StoreBackend {
	case internal.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := storage.ConnectMongo(connectCtx, config.MongoURI)
		if err != nil {
			return storage.Store{}, nil, fmt.Errorf("mongo connection failed: %w", err)
		}
		db := client.Database(config.MongoDatabase)
		if err := storage.MigrateMongo(connectCtx, db); err != nil {
			return storage.Store{}, nil, fmt.Errorf("mongo migration failed: %w", err)
		}
		cleanup := func() {
			logger.Info("Disconnecting MongoDB...")
			_ = client.Disconnect(context.Background())
		}
		return storage.NewMongoStore(db), cleanup, nil

	case internal.BackendBadger:
		db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
		if err != nil {
			return storage.Store{}, nil, fmt.Errorf("database opening failed: %w", err)
		}
		if config.DebugPort != nil && logger.Enabled(ctx, slog.LevelDebug) {
			url := fmt.Sprintf("http://localhost:%d/inspect", *config.DebugPort)
			logger.Info("Debug store inspector available", "url", url)
			internal.StartDebugServer(db, registry, *config.DebugPort)
		}
		cleanup := func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}
		return storage.NewBadgerStore(db), cleanup, nil

	default:
		return storage.Store{}, nil, fmt.Errorf("unknown STORE_BACKEND %q", config.StoreBackend)
	}
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
