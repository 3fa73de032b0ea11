package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobbridge/jobbridge/backend/bot-services/handlers"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/config"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/database"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/dialogue"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/email"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/messaging"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/registration"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/session"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/staging"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/storage"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/verify"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/logger"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/metrics"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v whatsapp=%v registry=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "",
		cfg.WhatsApp.AccessToken != "", cfg.Verify.URL != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Connect to Redis early: it carries sessions, the opt-out register and
	// optionally the distributed rate limiter.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-admin-subject when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Session store: Redis preferred, Mongo fallback when Redis is absent.
	var sessionsSvc *session.Service
	if redisClient != nil {
		sessionsSvc = session.NewService(session.NewRedisRepository(redisClient, "", cfg.Sessions.Retention), dialogue.StepIdle.String())
		logger.Infof("using Redis for session storage")
	}

	// MongoDB-backed registration repositories. Retry/backoff tolerates
	// startup races against the database container.
	var identityRepo registration.IdentityRepository
	var profileRepo registration.ProfileRepository
	var workerRepo registration.WorkerProfileRepository
	var documentRepo registration.DocumentRepository
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			identityRepo = registration.NewMongoIdentityRepository(db.Collection("identities"))
			profileRepo = registration.NewMongoProfileRepository(db.Collection("profiles"))
			workerRepo = registration.NewMongoWorkerProfileRepository(db.Collection("worker_profiles"))
			documentRepo = registration.NewMongoDocumentRepository(db.Collection("documents"))
			if sessionsSvc == nil {
				sessionsSvc = session.NewService(session.NewMongoRepository(db.Collection("bot_sessions")), dialogue.StepIdle.String())
				logger.Infof("using MongoDB for session storage")
			}
		}
	}

	// Document blob storage
	var blobs registration.BlobStore
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewMinIOStorage(&cfg.MinIO)
		if err != nil {
			logger.Warnf("failed to initialize MinIO storage: %v", err)
		} else {
			blobs = store
		}
	}

	// Outbound collaborators
	wa := messaging.NewWhatsAppClient(cfg.WhatsApp.APIBase, cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID)

	var verifier verify.Verifier = verify.StubVerifier{}
	if cfg.Verify.URL != "" {
		verifier = verify.NewRegistryClient(cfg.Verify.URL, cfg.Verify.APIKey)
	} else {
		logger.Warnf("VERIFY_REGISTRY_URL not set; using stub national-ID verifier")
	}

	var mailer email.Mailer = email.Noop{}
	if cfg.Email.APIBase != "" {
		mailer = email.NewClient(cfg.Email.APIBase, cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["sessions"] = sessionsSvc != nil
		if sessionsSvc == nil {
			ready = false
		}
		deps["registration"] = identityRepo != nil
		if identityRepo == nil {
			ready = false
		}
		deps["storage"] = blobs != nil
		if blobs == nil {
			ready = false
		}
		deps["redis"] = redisClient != nil

		status := gin.H{"deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			status["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		c.JSON(http.StatusOK, status)
	})

	// Wire the dialogue engine and webhook only when its stores exist; the
	// service still comes up (health, metrics, swagger) without them.
	if sessionsSvc != nil && identityRepo != nil && blobs != nil {
		finalizer := registration.NewFinalizer(identityRepo, profileRepo, workerRepo, documentRepo, blobs, sessionsSvc, mailer)
		engine := dialogue.NewEngine(
			sessionsSvc,
			session.NewOptOutRegister(redisClient),
			staging.NewStager(wa, 0, 0),
			verifier,
			finalizer,
			wa,
			identityRepo,
		)
		handlers.NewWebhookHandler(&cfg.WhatsApp, engine).Register(r)
	} else {
		logger.Warnf("webhook not registered: sessions=%v registration=%v storage=%v",
			sessionsSvc != nil, identityRepo != nil, blobs != nil)
	}

	if sessionsSvc != nil && cfg.Admin.JWTSecret != "" {
		handlers.NewAdminHandler(cfg, sessionsSvc).Register(r)
	} else {
		logger.Warnf("admin endpoints not registered (sessions available=%v, secret set=%v)",
			sessionsSvc != nil, cfg.Admin.JWTSecret != "")
	}

	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting bot service on %s", addr)
	// run server in goroutine and keep process alive — prevents the container
	// from exiting silently if r.Run ever returns.
	go func() {
		if err := r.Run(addr); err != nil {
			logger.Fatalf("server failed: %v", err)
		}
	}()
	select {}
}
