package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaultguard/backend/internal/config"
	"github.com/vaultguard/backend/internal/db"
	"github.com/vaultguard/backend/internal/deadline"
	"github.com/vaultguard/backend/internal/events"
	"github.com/vaultguard/backend/internal/repositories"
	"github.com/vaultguard/backend/internal/willapi"
	"go.uber.org/zap"
)

// Deadline states tracked per will between sweeps, so each transition is
// announced once rather than on every tick.
const (
	stateOK       = "ok"
	stateExpiring = "expiring"
	stateExpired  = "expired"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	userRepo := repositories.NewUserRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)
	willClient := willapi.NewClient(cfg.WillAPIBaseURL, cfg.WillAPITimeout, log)

	log.Info("deadline watcher started",
		zap.Duration("poll_interval", cfg.DeadlinePollInterval),
		zap.Duration("warning_window", cfg.ExpiryWarningWindow),
	)

	ticker := time.NewTicker(cfg.DeadlinePollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	lastState := make(map[string]string)

	for {
		select {
		case <-ticker.C:
			runDeadlineSweep(ctx, userRepo, willClient, publisher, cfg, lastState, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runDeadlineSweep re-derives every will's countdown from the external API
// and publishes a notification when a will crosses into the warning window
// or past its deadline. A ping resets the deadline upstream, which simply
// moves the will back to ok on the next sweep.
func runDeadlineSweep(
	ctx context.Context,
	userRepo *repositories.UserRepo,
	willClient *willapi.Client,
	publisher events.Publisher,
	cfg *config.Config,
	lastState map[string]string,
	log *zap.Logger,
) {
	addrs, err := userRepo.ListAddresses(ctx)
	if err != nil {
		log.Error("failed to list addresses for sweep", zap.Error(err))
		return
	}

	now := time.Now()
	for _, owner := range addrs {
		wills, err := willClient.ListWills(ctx, owner)
		if err != nil {
			log.Warn("failed to fetch wills", zap.String("owner", owner), zap.Error(err))
			continue
		}

		for _, w := range wills {
			if w.Deadline == nil {
				continue
			}

			cd := deadline.At(w.Deadline, now)
			state := stateOK
			switch {
			case cd.IsExpired:
				state = stateExpired
			case deadline.Instant(*w.Deadline).Sub(now) <= cfg.ExpiryWarningWindow:
				state = stateExpiring
			}

			key := owner + ":" + w.TokenID
			if lastState[key] == state {
				continue
			}
			lastState[key] = state
			if state == stateOK {
				continue
			}

			eventType := events.EventWillExpiring
			if state == stateExpired {
				eventType = events.EventWillExpired
			}

			log.Info("will deadline transition",
				zap.String("owner", owner),
				zap.String("token_id", w.TokenID),
				zap.String("state", state),
				zap.String("countdown", cd.Text),
			)

			if err := publisher.Publish(ctx, "events:will", events.Event{
				Type: eventType,
				Payload: map[string]any{
					"owner":     owner,
					"token_id":  w.TokenID,
					"countdown": cd.Text,
					"expired":   cd.IsExpired,
				},
			}); err != nil {
				log.Error("failed to publish deadline event", zap.Error(err))
			}
		}
	}
}
