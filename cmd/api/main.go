package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/vaultguard/backend/internal/config"
	"github.com/vaultguard/backend/internal/db"
	"github.com/vaultguard/backend/internal/events"
	apphttp "github.com/vaultguard/backend/internal/http"
	"github.com/vaultguard/backend/internal/http/handlers"
	"github.com/vaultguard/backend/internal/repositories"
	"github.com/vaultguard/backend/internal/services"
	"github.com/vaultguard/backend/internal/wallet"
	"github.com/vaultguard/backend/internal/willapi"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	friendRepo := repositories.NewFriendRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Directory
	friendService := services.NewFriendService(userRepo, friendRepo, log)

	// Wallet. A missing RPC URL or key leaves the provider nil; session
	// endpoints then answer with provider-unavailable instead of crashing.
	var provider wallet.Provider
	var signer *wallet.LocalSigner
	if cfg.ChainRPCURL != "" && cfg.ChainPrivateKey != "" {
		signer, err = wallet.NewLocalSigner(ctx, cfg.ChainRPCURL, cfg.ChainPrivateKey, cfg.ChainID, log)
		if err != nil {
			log.Error("failed to initialize chain signer, wallet disabled", zap.Error(err))
		} else {
			provider = signer
		}
	}

	store := wallet.NewRedisStateStore(rdb, "wallet:session:")
	session := wallet.NewSession(provider, store, func(ctx context.Context, address string) error {
		_, _, err := friendService.RegisterUser(ctx, address)
		return err
	}, log)

	if err := session.Restore(ctx); err != nil {
		log.Warn("session restore failed", zap.Error(err))
	}
	session.Watch(ctx, func() {
		// A chain change invalidates every cached assumption about nonces,
		// balances and pending transactions. Exit and let the supervisor
		// restart us clean.
		log.Fatal("chain changed, restarting for a clean state")
	})

	// Services
	willClient := willapi.NewClient(cfg.WillAPIBaseURL, cfg.WillAPITimeout, log)
	willService := services.NewWillService(willClient, session, log)
	pingService := services.NewPingService(willClient, session, publisher, log)

	// Handlers
	sessionHandler := handlers.NewSessionHandler(session, signer, friendService, cfg, log)
	userHandler := handlers.NewUserHandler(friendService, log)
	friendHandler := handlers.NewFriendHandler(friendService, log)
	willHandler := handlers.NewWillHandler(willService, pingService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, sessionHandler, userHandler, friendHandler, willHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
