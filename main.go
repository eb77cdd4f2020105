package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/notevault/notevault/handlers"
	"github.com/notevault/notevault/internal/config"
	"github.com/notevault/notevault/internal/database"
	"github.com/notevault/notevault/internal/notes"
	"github.com/notevault/notevault/internal/oidc"
	"github.com/notevault/notevault/internal/password"
	"github.com/notevault/notevault/internal/sessions"
	"github.com/notevault/notevault/internal/storage"
	"github.com/notevault/notevault/internal/tokens"
	"github.com/notevault/notevault/internal/users"
	"github.com/notevault/notevault/pkg/logger"
	"github.com/notevault/notevault/pkg/metrics"
	"github.com/notevault/notevault/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level is controlled with LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v oidc=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Storage.Endpoint != "", cfg.OIDC.Issuer != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS for dev/test. Production deployments should front
	// this with a stricter policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, "+middleware.NewTokenHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis is optional; it only serves the distributed rate limiter.
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
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimit(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Persistence: MongoDB when configured, in-memory stores otherwise so
	// the service stays usable for local development.
	var mongoClient *mongo.Client
	var sessionStore sessions.Store = sessions.NewMemoryStore()
	var userRepo users.Repository = users.NewMemoryRepository()
	var noteRepo notes.Repository = notes.NewMemoryRepository()
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
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
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		}
		defer func() { _ = mongoClient.Disconnect(ctx) }()

		db := mongoClient.Database(cfg.MongoDB.Database)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			logger.Warnf("failed to ensure indexes: %v", err)
		}
		sessionStore = sessions.NewMongoStore(mongoClient, cfg.MongoDB.Database)
		userRepo = users.NewMongoRepository(db)
		noteRepo = notes.NewMongoRepository(db)
		logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
	} else {
		logger.Warn("MONGODB_URI not set, using in-memory stores (data is lost on restart)")
	}

	// service wiring
	userSvc := users.NewService(userRepo, password.NewHasher(cfg.Auth.BcryptCost))
	accessIssuer := tokens.NewIssuer(cfg.Auth.AccessTokenSecret, cfg.Auth.AccessTokenTTL)
	refreshIssuer := tokens.NewIssuer(cfg.Auth.RefreshTokenSecret, cfg.Auth.RefreshTokenTTL)
	sessionMgr := sessions.NewManager(sessionStore, userSvc, accessIssuer, refreshIssuer)
	noteSvc := notes.NewService(noteRepo)

	// attachment storage is optional
	var attachments *storage.AttachmentStore
	if cfg.Storage.Endpoint != "" {
		attachments, err = storage.New(cfg.Storage)
		if err != nil {
			logger.Warnf("attachment storage unavailable: %v", err)
			attachments = nil
		} else {
			logger.Infof("attachment storage ready (bucket %q)", cfg.Storage.Bucket)
		}
	}

	// OIDC login is optional; the insecure verifier is an explicit opt-in
	// for integration environments without a real provider.
	var verifier oidc.TokenVerifier
	if cfg.OIDC.Issuer != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		verifier = oidc.NewInsecureVerifier()
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"mongo":   cfg.MongoDB.URI == "" || mongoClient != nil,
			"redis":   !cfg.RateLimit.UseRedis || redisClient != nil,
			"storage": cfg.Storage.Endpoint == "" || attachments != nil,
		}
		for _, ok := range deps {
			if !ok {
				ready = false
			}
		}
		status := http.StatusOK
		label := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			label = "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	requireAuth := middleware.RequireAuth(sessionMgr)
	api := r.Group("/api/v1")
	handlers.NewAuthHandler(cfg, userSvc, sessionMgr, verifier).Register(api, requireAuth)
	handlers.NewSessionHandler(sessionMgr).Register(api, requireAuth)
	handlers.NewUserHandler(userSvc, noteSvc).Register(api, requireAuth)
	handlers.NewNoteHandler(noteSvc, attachments).Register(api, requireAuth)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting notevault on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
