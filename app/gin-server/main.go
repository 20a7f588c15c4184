package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/faqchat/config"
	"github.com/yoockh/faqchat/internal/api/handlers"
	"github.com/yoockh/faqchat/internal/api/middleware"
	"github.com/yoockh/faqchat/internal/api/routes"
	"github.com/yoockh/faqchat/internal/cache"
	"github.com/yoockh/faqchat/internal/events"
	"github.com/yoockh/faqchat/internal/logger"
	"github.com/yoockh/faqchat/internal/providers/faqdir"
	"github.com/yoockh/faqchat/internal/providers/history"
	mongorepo "github.com/yoockh/faqchat/internal/repositories/mongo"
	pgrepo "github.com/yoockh/faqchat/internal/repositories/postgres"
	"github.com/yoockh/faqchat/internal/services"
	"github.com/yoockh/faqchat/internal/storage"
	"github.com/yoockh/faqchat/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.LoadApp()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backing stores are optional; each missing one degrades its component.
	optional := func(name string, err error) bool {
		switch {
		case err == nil:
			log.Infof("%s connected", name)
			return true
		case errors.Is(err, config.ErrNotConfigured):
			log.WithError(err).Warnf("%s disabled", name)
			return false
		default:
			log.WithError(err).Fatalf("%s init error", name)
			return false
		}
	}

	var (
		kv        cache.Cache = cache.NewMemoryCache()
		publisher events.Publisher
		feed      events.Subscriber
	)
	if optional("Redis", config.InitRedis()) {
		kv = cache.NewRedisCache(config.RedisClient).WithPrefix(cfg.RedisKeyPrefix)
		rp := events.NewRedisPublisher(config.RedisClient)
		publisher, feed = rp, rp
	} else {
		hub := events.NewHub(log)
		publisher, feed = hub, hub
	}

	var sessions mongorepo.SessionRepository
	if optional("MongoDB", config.InitMongo()) {
		if err := config.EnsureMongoIndexes(); err != nil {
			log.WithError(err).Warn("mongo index creation failed")
		}
		sessions = mongorepo.NewSessionRepo(config.MongoDatabase())
	}

	var archive services.ArchiveService
	if optional("PostgreSQL", config.InitPostgres()) {
		if err := config.MigratePostgres(); err != nil {
			log.WithError(err).Fatal("postgres migration failed")
		}
		archive = services.NewArchiveService(pgrepo.NewTranscriptRepo(config.PostgresDB))
	}

	var uploader storage.Uploader
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			log.WithError(err).Fatal("gcs init error")
		}
		defer gcs.Close()
		uploader = gcs
	}

	hc := &http.Client{Timeout: cfg.HTTPClientTimeout}
	faqs := faqdir.NewHTTPDirectory(cfg.FAQServiceURL, hc)
	directory := cache.NewDirectorySource(faqs, kv, cfg.QuickReplyCacheTTL, log)
	recorder := history.NewHTTPRecorder(cfg.HistoryServiceURL, hc)

	sessCfg := services.SessionServiceConfig{
		Directory:              directory,
		History:                recorder,
		Publisher:              publisher,
		Catalog:                directory,
		Logger:                 log,
		QuickReplySingleFlight: cfg.QuickReplySingleFlight,
	}
	if sessions != nil {
		sessCfg.Sessions = sessions
	}
	if archive != nil {
		sessCfg.Archive = archive
	}

	pool := &workers.FeedbackWorkerPool{
		NumWorkers: cfg.FeedbackWorkers,
		QueueSize:  cfg.FeedbackQueueSize,
		Timeout:    cfg.HTTPClientTimeout,
		Logger:     log,
	}
	poolCtx, stopPool := context.WithCancel(context.Background())
	if cfg.FeedbackAsync {
		if err := pool.Start(poolCtx); err != nil {
			log.WithError(err).Fatal("feedback pool")
		}
		sessCfg.Feedback = pool
	}

	sessionSvc := services.NewSessionService(sessCfg)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Auth:         middleware.JWTConfigFromEnv(),
		Session:      handlers.NewSessionHandler(sessionSvc, archive, services.NewExportService(uploader)),
		Conversation: handlers.NewConversationHandler(sessionSvc),
		Analytics:    handlers.NewAnalyticsHandler(services.NewAnalyticsService(recorder, kv, cfg.AnalyticsCacheTTL, log)),
		AdminFAQ:     handlers.NewAdminFAQHandler(services.NewFAQAdminService(faqs, directory, log)),
		WS:           handlers.NewWSHandler(sessionSvc, feed, log, cfg.WSAllowedOrigins...),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}

	stopPool()
	if cfg.FeedbackAsync {
		pool.Wait()
	}
	closeStores(log)
}

func closeStores(log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if config.RedisClient != nil {
		_ = config.RedisClient.Close()
	}
	if config.MongoClient != nil {
		if err := config.MongoClient.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("mongo disconnect")
		}
	}
	if config.PostgresDB != nil {
		if sqlDB, err := config.PostgresDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
