package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/autoorder/internal/api"
	"github.com/andresuchdata/autoorder/internal/cache"
	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/andresuchdata/autoorder/internal/drive"
	"github.com/andresuchdata/autoorder/internal/ledger"
	"github.com/andresuchdata/autoorder/internal/repository"
	"github.com/andresuchdata/autoorder/internal/repository/postgres"
	"github.com/andresuchdata/autoorder/internal/session"
	"github.com/andresuchdata/autoorder/internal/storage"
	"github.com/andresuchdata/autoorder/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Server.Mode, cfg.App.LogJSON)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log := logger.Component("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fileSink := session.NewFileSink(cfg.App.SnapshotPath())
	opts := session.Options{
		ExportDir: cfg.App.DataDir,
		Sinks:     []session.SnapshotSink{fileSink},
	}
	sessionLog := logger.Component("session")
	opts.Logger = &sessionLog

	var restored *ledger.Ledger

	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		repo := repository.NewLedgerRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare ledger schema")
		}
		opts.Sinks = append(opts.Sinks, repo)

		l, err := repo.LoadLatest(ctx)
		switch {
		case err == nil:
			restored = l
		case errors.Is(err, repository.ErrNoSnapshot):
		default:
			log.Warn().Err(err).Msg("could not restore ledger from database")
		}
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		client, err := cache.NewRedisClient(cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without cache and lock")
		} else {
			redisClient = client
			defer redisClient.Close()

			ledgerCache := cache.NewLedgerCache(redisClient, cfg.Cache)
			opts.Sinks = append(opts.Sinks, ledgerCache)
			opts.Locker = cache.NewRedisLocker(redisClient, cfg.Cache)

			if l, ok, err := ledgerCache.LoadLedger(ctx); err != nil {
				log.Warn().Err(err).Msg("could not restore ledger from cache")
			} else if ok && (restored == nil || l.ComputedAt().After(restored.ComputedAt())) {
				restored = l
			}
		}
	}

	if cfg.Storage.Enabled {
		store, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure object storage")
		}
		opts.Publisher = storage.NewExportPublisher(store, cfg.Storage.ExportPrefix)
	}

	if restored == nil {
		l, err := fileSink.LoadLedger(cfg.Plan.DefaultPeriod)
		switch {
		case err == nil:
			restored = l
		case errors.Is(err, fs.ErrNotExist):
		default:
			log.Warn().Err(err).Str("file", fileSink.Path).Msg("could not restore ledger from snapshot file")
		}
	}

	sess := session.New(opts)
	if restored != nil {
		sess.Restore(restored)
		log.Info().Str("ledger_id", restored.ID()).Int("rows", restored.Len()).Msg("ledger restored")
	}

	routerOpts := api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		UploadDir:      cfg.App.UploadDir,
		DefaultPeriod:  cfg.Plan.DefaultPeriod,
		Logger:         logger.Component("http"),
		DriveFolder:    cfg.Drive.FolderID,
	}
	if cfg.Drive.CredentialsJSON != "" {
		driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			log.Warn().Err(err).Msg("google drive unavailable, import routes disabled")
		} else {
			routerOpts.Drive = drive.NewDownloader(driveService)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(sess, routerOpts),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("Server exiting")
}
