package main

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/config"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/database"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/dialogue"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/session"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/logger"
)

// Runs one session retention sweep and exits. Meant to be scheduled (cron /
// Kubernetes CronJob); the same sweep is reachable at POST /admin/sessions/expire.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	var repo session.Repository
	switch {
	case cfg.Redis.Host != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatalf("cannot connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		}
		defer client.Close()
		repo = session.NewRedisRepository(client, "", cfg.Sessions.Retention)
	case cfg.MongoDB.URI != "":
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Fatalf("cannot connect to MongoDB: %v", err)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		repo = session.NewMongoRepository(client.Database(cfg.MongoDB.Database).Collection("bot_sessions"))
	default:
		logger.Fatalf("no session store configured (set REDIS_HOST or MONGODB_URI)")
	}

	svc := session.NewService(repo, dialogue.StepIdle.String())
	removed, err := svc.ExpireOlderThan(ctx, cfg.Sessions.Retention)
	if err != nil {
		logger.Fatalf("retention sweep failed: %v", err)
	}
	logger.Infof("retention sweep removed %d sessions older than %s", removed, cfg.Sessions.Retention)
}
