package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/journal-backend/internal/audit"
	"github.com/AnshRaj112/journal-backend/internal/config"
	"github.com/AnshRaj112/journal-backend/internal/database"
	"github.com/AnshRaj112/journal-backend/internal/handlers"
	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/metrics"
	"github.com/AnshRaj112/journal-backend/internal/middleware"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/repository"
	"github.com/AnshRaj112/journal-backend/internal/routes"
	"github.com/AnshRaj112/journal-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		logger.Default().Info("No .env file found")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Default().WithError(err).Fatal("Invalid configuration")
	}
	logger.Init(cfg.LogLevel)
	log := logger.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Document store
	var (
		users   repository.Repository[*models.User]
		entries repository.Repository[*models.JournalEntry]
		tx      repository.Transactor = repository.NoopTransactor{}
		pinger  handlers.Pinger
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("⚠️  Using in-memory store; data is lost on restart")
		users = repository.NewMemoryRepository(func() *models.User { return &models.User{} })
		entries = repository.NewMemoryRepository(func() *models.JournalEntry { return &models.JournalEntry{} })
	default:
		mongo, err := database.Connect(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTransactions)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to MongoDB")
		}
		defer mongo.Disconnect()

		if err := mongo.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("⚠️  failed to ensure MongoDB indexes")
		}
		users = repository.NewMongoRepository(mongo.DB.Collection(database.UsersCollection), func() *models.User { return &models.User{} })
		entries = repository.NewMongoRepository(mongo.DB.Collection(database.JournalEntriesCollection), func() *models.JournalEntry { return &models.JournalEntry{} })
		tx = mongo
		pinger = mongo
	}

	// Live feed: Redis pub/sub when configured, otherwise this instance only
	hub := services.NewEventHub()
	var (
		publisher   services.EventPublisher = hub
		redisClient *redis.Client
	)
	if cfg.RedisURI != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURI)
		if err != nil {
			log.WithError(err).Warn("⚠️  Redis unavailable; live feed is local and Redis rate limiting is off")
		} else {
			defer redisClient.Close()
			bus := services.NewRedisEventBus(redisClient, hub)
			go bus.Run(ctx)
			publisher = bus
		}
	}

	// Audit trail
	journalOpts := []services.JournalOption{services.WithPublisher(publisher), services.WithMetrics(m)}
	var auditLister handlers.AuditLister
	if cfg.PostgresURI != "" {
		var db *sql.DB
		db, err = database.ConnectPostgres(cfg.PostgresURI)
		if err != nil {
			log.WithError(err).Warn("⚠️  PostgreSQL unavailable; audit trail disabled")
		} else {
			defer db.Close()
			recorder := audit.NewPostgresRecorder(db)
			journalOpts = append(journalOpts, services.WithAuditor(recorder))
			auditLister = recorder
		}
	}

	// Attachments
	var uploader services.AttachmentUploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Cloudinary; attachments disabled")
		} else {
			uploader = cld
			log.Info("✅ Cloudinary service initialized")
		}
	} else {
		log.Info("Cloudinary credentials not found; attachments disabled")
	}

	userService := services.NewUserService(users, m)
	journalService := services.NewJournalEntryService(entries, userService, tx, journalOpts...)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(logger.RequestLogger)
	r.Use(m.Instrument)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders, HostCheck, per-IP limits. Otherwise Redis rate limit when available.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(ctx, cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Info("✅ Production security enabled (security headers, host check, per-IP rate limiting)")
	} else if redisClient != nil {
		r.Use(middleware.NewRedisRateLimiter(redisClient).Middleware)
	}

	routes.SetupRoutes(r, routes.Handlers{
		Users:          handlers.NewUserHandler(userService),
		Journal:        handlers.NewJournalHandler(journalService, uploader, cfg.ScopeEntriesToOwner),
		Health:         handlers.NewHealthHandler(pinger),
		Feed:           handlers.NewJournalFeed(hub, m),
		Audit:          handlers.NewAuditHandler(auditLister),
		Metrics:        m.Handler(),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	log.WithField("store", cfg.StoreDriver).Infof("🚀 Journal backend running on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Failed to start server")
	}
}
