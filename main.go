package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"my-campaign/domain/model"
	"my-campaign/domain/repository"
	"my-campaign/infrastructure/assets"
	"my-campaign/infrastructure/cache"
	renderclient "my-campaign/infrastructure/clients/render"
	youtubeclient "my-campaign/infrastructure/clients/youtube"
	"my-campaign/infrastructure/configuration"
	"my-campaign/infrastructure/logger"
	"my-campaign/infrastructure/persistence"
	"my-campaign/infrastructure/pubsub"
	"my-campaign/infrastructure/realtime"
	"my-campaign/infrastructure/servicebus"
	httpHandler "my-campaign/interfaces/http"
	"my-campaign/server"
	"my-campaign/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	db, usingMssql, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	if usingMssql {
		if err := persistence.EnsureCampaignSchemaMSSQL(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring campaign schema (mssql)")
		}
	} else {
		if err := persistence.EnsureCampaignSchema(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring campaign schema")
		}
	}

	// Mongo backs the advisory activity trail; the pipeline runs without it.
	var activityLog repository.IActivityLog
	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without activity trail")
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without activity trail")
	} else {
		activityLog = persistence.NewActivityRepository(mongoDb, configuration.C.Database.Mongo.Name)
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	// Redis memoizes campaign slug lookups; absence only costs a DB round trip.
	var campaignCache repository.ICampaignCache
	redisClient := cache.NewRedisClient(configuration.C.RedisClient)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without campaign cache")
	} else {
		campaignCache = cache.NewCampaignCache(redisClient)
		logger.GetLogger().Info("Redis client initialized successfully.")
	}

	var campaignEvents pubsub.ICampaignEvents
	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - continuing without campaign events")
	} else {
		campaignEvents = pubsub.NewCampaignEvents(pubSubClient)
	}

	var campaignNotifier servicebus.ICampaignNotifier
	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without run notifications")
	} else {
		campaignNotifier = servicebus.NewCampaignNotifier(azServiceBusClient, configuration.C.ServiceBus.Queue)
	}

	// Render is optional capability: without an API key every variant takes the
	// fallback asset path.
	var renderJobs repository.IRenderJobClient
	renderConfig := configuration.GetRenderConfig()
	if renderConfig.Configured() {
		renderJobs, err = renderclient.NewRenderClient(renderConfig)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Render client initialization failed - using fallback assets only")
			renderJobs = nil
		}
	} else {
		logger.GetLogger().Info("Render service not configured - using fallback assets only")
	}
	maxWait := time.Duration(renderConfig.MaxWaitSecs) * time.Second
	assetSource := assets.NewSource(renderJobs, configuration.C.Campaign.FallbackAssetURL, maxWait)

	// Upload credentials are a hard prerequisite for publish runs. The server
	// still starts for read endpoints; publish requests are rejected up front.
	var uploader repository.IPlatformUploader
	uploadConfig, err := configuration.GetUploadConfig()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Upload configuration not loaded - publish runs will be rejected")
	} else if uploadConfig.Configured() {
		uploader, err = youtubeclient.NewUploadClient(ctx, uploadConfig)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Upload client initialization failed - publish runs will be rejected")
			uploader = nil
		}
	} else {
		logger.GetLogger().Warn("Upload credentials not configured - publish runs will be rejected")
	}

	// Repository wiring: use MSSQL in production, otherwise PostgreSQL.
	var ledger repository.ICampaignLedger
	var userRepository repository.IUser
	if usingMssql {
		ledger = persistence.NewCampaignRepositoryMssql(db)
		userRepository = persistence.NewUserRepositoryMSSQL(db)
	} else {
		ledger = persistence.NewCampaignRepository(db, campaignCache)
		userRepository = persistence.NewUserRepository(db)
	}

	enricher := usecase.NewMetadataEnricher(
		configuration.C.Campaign.SiteURL,
		uploadCategoryID(uploadConfig),
		uploadPrivacy(uploadConfig),
		renderConfig.AvatarID,
		renderConfig.VoiceID,
	)

	publishHub := realtime.NewPublishHub()

	opts := []usecase.PublishOption{
		usecase.WithBroadcaster(func(rec *model.PublishRecord, usedFallback bool) {
			publishHub.BroadcastPublishStatus(rec, usedFallback)
		}),
	}
	if activityLog != nil {
		opts = append(opts, usecase.WithActivityLog(activityLog))
	}
	if campaignEvents != nil {
		opts = append(opts, usecase.WithEvents(campaignEvents, configuration.C.Pubsub.Topic))
	}
	if campaignNotifier != nil {
		opts = append(opts, usecase.WithNotifier(campaignNotifier))
	}
	if configuration.C.Campaign.Concurrency > 1 {
		opts = append(opts, usecase.WithConcurrency(configuration.C.Campaign.Concurrency))
	}

	publishUsecase := usecase.NewPublishUsecase(ledger, assetSource, uploader, enricher, opts...)

	campaignHandler := httpHandler.NewCampaignHandler(publishUsecase, []string{"youtube"})
	healthHandler := httpHandler.NewHealthHandler()

	router := server.InitiateRouter(campaignHandler, healthHandler, userRepository, publishHub)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			} else {
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase selects the ledger database: MSSQL in production or when
// forced via DB_VENDOR, PostgreSQL otherwise.
func InitiateDatabase() (*sql.DB, bool, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (DB_VENDOR=mssql)")
			return nil, false, err
		}
		return db, true, nil
	}
	if env == "production" || env == "prod" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (production)")
			return nil, false, err
		}
		return db, true, nil
	}
	db, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to the local database")
		return nil, false, err
	}
	return db, false, nil
}

func uploadCategoryID(cfg *configuration.UploadConfig) string {
	if cfg == nil {
		return ""
	}
	return cfg.CategoryID
}

func uploadPrivacy(cfg *configuration.UploadConfig) string {
	if cfg == nil {
		return ""
	}
	return cfg.Privacy
}
