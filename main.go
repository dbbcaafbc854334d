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

	"crossposter/domain/model"
	"crossposter/domain/repository"
	"crossposter/infrastructure/cache"
	"crossposter/infrastructure/clients/telegram"
	"crossposter/infrastructure/clients/vk"
	"crossposter/infrastructure/configuration"
	"crossposter/infrastructure/filemanager"
	"crossposter/infrastructure/logger"
	"crossposter/infrastructure/persistence"
	"crossposter/infrastructure/pubsub"
	"crossposter/infrastructure/realtime"
	"crossposter/infrastructure/servicebus"
	httpHandler "crossposter/interfaces/http"
	"crossposter/server"
	"crossposter/usecase"
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

	db, vendor, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without audit log")
		mongoDb = nil
	} else {
		if err := mongoDb.Ping(ctx, nil); err != nil {
			logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without audit log")
			mongoDb = nil
		} else {
			logger.GetLogger().Info("MongoDB connected successfully")
		}
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without event publishing")
		pubSubClient = nil
	}
	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus events")
		azServiceBusClient = nil
	}
	redisClient, _ := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)

	// Repository wiring: use MSSQL in production, otherwise PostgreSQL.
	var (
		settingsRepo   repository.ISettings
		credentialRepo repository.ICredential
		mappingRepo    repository.IPostMapping
		mediaRepo      repository.IMediaItem
	)
	switch {
	case db == nil:
		// Degraded mode: single link from env, mappings in a flat file.
		logger.GetLogger().Warn("No database available - running with file-backed storage")
		settingsRepo = persistence.NewStaticSettings()
		credentialRepo = persistence.NewFileCredentialStore("vk_credentials.json")
		mappingRepo = persistence.NewFileMappingRepository(persistence.NewFileMappingStore("post_mappings.txt"))
		mediaRepo = persistence.NoopMediaItems{}
	case vendor == "mssql":
		if err := persistence.EnsureCredentialSchemaMSSQL(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("Failed to ensure credential schema")
		}
		if err := persistence.EnsurePostMappingSchemaMSSQL(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("Failed to ensure mapping schema")
		}
		settingsRepo = persistence.NewChannelRepositoryMSSQL(db)
		credentialRepo = persistence.NewCredentialRepositoryMSSQL(db)
		mappingRepo = persistence.NewPostMappingRepositoryMSSQL(db)
		mediaRepo = persistence.NewMediaItemRepositoryMSSQL(db)
	default:
		if err := persistence.EnsureCrosspostSchema(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("Failed to ensure schema")
		}
		settingsRepo = persistence.NewChannelRepository(db)
		credentialRepo = persistence.NewCredentialRepository(db)
		mappingRepo = persistence.NewPostMappingRepository(db)
		mediaRepo = persistence.NewMediaItemRepository(db)
	}
	settingsRepo = cache.NewChannelLinkCache(settingsRepo, redisClient, 0)
	auditRepo := persistence.NewAuditRepository(mongoDb, configuration.C.Database.Mongo.Name)

	files, err := filemanager.NewFileManager(configuration.C.VK.TempDir, configuration.C.VK.MaxFileSize)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot create scratch directory")
		os.Exit(1)
	}
	files.CleanupOld(24 * time.Hour)

	telegramClient := telegram.NewTelegramClient(
		configuration.C.Telegram.Token,
		configuration.C.Telegram.PollTimeout,
		configuration.C.Telegram.MaxRetries,
		time.Duration(configuration.C.Telegram.RetryDelay)*time.Second,
	)
	vkClient := vk.NewVKClient(
		configuration.C.VK.APIVersion,
		configuration.C.VK.MaxRetries,
		time.Duration(configuration.C.VK.RetryDelay)*time.Second,
	)
	tokenManager := vk.NewTokenManager(credentialRepo, configuration.C.VK.ClientID, configuration.C.VK.ClientSecret)

	crosspostHub := realtime.NewCrosspostHub()
	events := pubsub.NewCrosspostEvents(pubSubClient, configuration.C.Pubsub.Topic)
	busEvents := servicebus.NewCrosspostEvents(azServiceBusClient, configuration.C.ServiceBus.Queue)
	broadcast := func(entry *model.CrosspostAudit) {
		crosspostHub.BroadcastOutcome(entry)
		if _, err := events.PublishOutcome(ctx, entry); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to publish crosspost event")
		}
		if err := busEvents.SendOutcome(ctx, entry); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to send crosspost event")
		}
	}

	crosspostUsecase := usecase.NewCrosspostUsecase(
		settingsRepo, tokenManager, mappingRepo, mediaRepo, auditRepo,
		vkClient, telegramClient, files, broadcast,
	)
	editUsecase := usecase.NewEditUsecase(settingsRepo, tokenManager, mappingRepo, vkClient)

	g.Go(func() error {
		return pollUpdates(ctx, telegramClient, crosspostUsecase, editUsecase)
	})

	healthHandler := httpHandler.NewHealthHandler(db)
	statusHandler := httpHandler.NewStatusHandler(mappingRepo)
	router := server.InitiateRouter(healthHandler, statusHandler, crosspostHub)

	port := app.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
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

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// pollUpdates is the source loop: long-poll Telegram, buffer albums until
// their quiet period, dispatch everything else directly.
func pollUpdates(ctx context.Context, client *telegram.Client, crossposts usecase.ICrosspostUsecase, edits usecase.IEditUsecase) error {
	albums := telegram.NewAlbumBuffer(telegram.DefaultAlbumQuietPeriod)
	flush := time.NewTicker(time.Second)
	defer flush.Stop()

	updates := make(chan []model.Message)
	go func() {
		defer close(updates)
		for {
			messages, err := client.GetUpdates(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.GetLogger().WithField("error", err.Error()).Warn("Polling failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(3 * time.Second):
				}
				continue
			}
			select {
			case <-ctx.Done():
				return
			case updates <- messages:
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-flush.C:
			for _, album := range albums.Flush() {
				if _, err := crossposts.HandleAlbum(ctx, album); err != nil {
					logger.GetLogger().WithField("error", err.Error()).Error("Album crosspost failed")
				}
			}
		case messages, ok := <-updates:
			if !ok {
				return ctx.Err()
			}
			for _, msg := range messages {
				dispatch(ctx, msg, albums, crossposts, edits)
			}
		}
	}
}

func dispatch(ctx context.Context, msg model.Message, albums *telegram.AlbumBuffer, crossposts usecase.ICrosspostUsecase, edits usecase.IEditUsecase) {
	switch {
	case msg.Edited:
		if err := edits.PropagateEdit(ctx, msg); err != nil {
			logger.GetLogger().WithField("message_id", msg.MessageID).WithField("error", err.Error()).
				Error("Edit propagation failed")
		}
	case msg.MediaGroupID != "":
		albums.Add(msg)
	default:
		if _, err := crossposts.HandleMessage(ctx, msg); err != nil {
			logger.GetLogger().WithField("message_id", msg.MessageID).WithField("error", err.Error()).
				Error("Crosspost failed")
		}
	}
}

func InitiateDatabase() (*sql.DB, string, error) {
	// Contract: return (db, vendor). In production, vendor = mssql.
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (DB_VENDOR=mssql)")
			return nil, "", err
		}
		return mssql, "mssql", nil
	}
	if env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (production)")
			return nil, "", err
		}
		return mssql, "mssql", nil
	}

	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, "", err
	}
	return postgres, "postgres", nil
}
