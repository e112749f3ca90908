package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/vaultguard/backend/internal/config"
	"github.com/vaultguard/backend/internal/http/handlers"
	"github.com/vaultguard/backend/internal/middleware"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	sessionHandler *handlers.SessionHandler,
	userHandler *handlers.UserHandler,
	friendHandler *handlers.FriendHandler,
	willHandler *handlers.WillHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Rate-limited public endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Session (public: connect is how a token is obtained)
	api.Post("/session/connect", sessionHandler.Connect)
	api.Get("/session", sessionHandler.Status)

	// Directory (public, matches the original service contract)
	api.Post("/users", userHandler.CreateUser)
	api.Post("/friends", friendHandler.AddFriend)
	api.Get("/friends/:publicAddress", friendHandler.ListFriends)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	protected.Delete("/session", sessionHandler.Disconnect)
	protected.Get("/session/balance", sessionHandler.Balance)

	// Wills
	protected.Get("/wills", willHandler.ListWills)
	protected.Post("/wills", willHandler.CreateWill)
	protected.Post("/wills/:tokenId/ping", willHandler.Ping)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
