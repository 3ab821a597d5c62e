package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"photoshare/internal/app"
	"photoshare/internal/config"
	"photoshare/internal/server"
	"photoshare/internal/token"
	"photoshare/internal/util"
	"photoshare/internal/worker"
	"photoshare/pkg/queue"
	"photoshare/pkg/storage"
	"photoshare/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel, "gallery")

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}

	var blobs storage.BlobStore
	switch cfg.StorageDriver {
	case "minio":
		blobs, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		blobs, err = storage.NewFileStore(cfg.UploadDir)
	}
	if err != nil {
		log.Fatalf("failed to init blob storage: %v", err)
	}

	tokens, err := token.NewManager(cfg.TokenSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		log.Fatalf("failed to init token manager: %v", err)
	}

	maxUploadBytes := int64(cfg.MaxUploadMB) << 20

	var thumbQueue *queue.RedisJobQueue
	if cfg.RedisAddr != "" {
		thumbQueue, err = queue.NewRedisJobQueue(queue.RedisQueueConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.ThumbnailStream,
			Group:    "thumbnailers",
		})
		if err != nil {
			log.Fatalf("failed to init thumbnail queue: %v", err)
		}
	}

	appCfg := app.Config{
		Store:          st,
		Blobs:          blobs,
		AIBaseURL:      cfg.AIBaseURL,
		AIAPIKey:       cfg.AIAPIKey,
		AIModel:        cfg.AIModel,
		AITimeout:      time.Duration(cfg.AITimeoutSeconds) * time.Second,
		MaxUploadBytes: maxUploadBytes,
	}
	if thumbQueue != nil {
		appCfg.Thumbnails = thumbQueue
	}
	appCore, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	thumbnailer := worker.NewThumbnailer(st, blobs, cfg.ThumbnailWidth)
	if thumbQueue != nil {
		thumbQueue.Start(context.Background(), cfg.ThumbnailJobs, thumbnailer.Handle)
	}
	go func() {
		if err := thumbnailer.RebuildMissing(context.Background(), cfg.ThumbnailJobs); err != nil {
			logger.Warn("thumbnail rebuild pass failed", "err", err.Error())
		}
	}()

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Tokens:         tokens,
		MaxUploadBytes: maxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("gallery server listening", "addr", addr, "storage", cfg.StorageDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
