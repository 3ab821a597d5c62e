package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"photoshare/pkg/ai"
	"photoshare/pkg/queue"
	"photoshare/pkg/storage"
	"photoshare/pkg/store"
)

const defaultMaxUploadBytes = 20 << 20

// ThumbnailQueue submits photos for background thumbnail rendering.
type ThumbnailQueue interface {
	Enqueue(ctx context.Context, photoID uint) (queue.Job, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	Store store.Store
	Blobs storage.BlobStore

	// Generator overrides the OpenAI-compatible client; used by tests.
	Generator ai.TextGenerator
	AIBaseURL string
	AIAPIKey  string
	AIModel   string
	AITimeout time.Duration

	// Thumbnails is optional; without it thumbnail jobs are skipped.
	Thumbnails ThumbnailQueue

	MaxUploadBytes int64
}

// App is the core application service wiring storage, the blob store, the
// thumbnail queue, and the external reasoning service.
type App struct {
	store     store.Store
	blobs     storage.BlobStore
	generator ai.TextGenerator
	aiBaseURL string
	aiAPIKey  string
	aiModel   string
	aiTimeout time.Duration
	thumbs    ThumbnailQueue
	maxUpload int64
	logger    *slog.Logger
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	aiTimeout := cfg.AITimeout
	if aiTimeout <= 0 {
		aiTimeout = 30 * time.Second
	}
	return &App{
		store:     cfg.Store,
		blobs:     cfg.Blobs,
		generator: cfg.Generator,
		aiBaseURL: cfg.AIBaseURL,
		aiAPIKey:  cfg.AIAPIKey,
		aiModel:   cfg.AIModel,
		aiTimeout: aiTimeout,
		thumbs:    cfg.Thumbnails,
		maxUpload: maxUpload,
		logger:    slog.Default().With(slog.String("component", "app")),
	}, nil
}

// Store exposes the underlying store to the worker and server wiring.
func (a *App) Store() store.Store {
	return a.store
}

// Blobs exposes the blob store to the worker and server wiring.
func (a *App) Blobs() storage.BlobStore {
	return a.blobs
}

func (a *App) enqueueThumbnail(ctx context.Context, photoID uint) {
	if a.thumbs == nil {
		return
	}
	if _, err := a.thumbs.Enqueue(ctx, photoID); err != nil {
		a.logger.Warn("failed to enqueue thumbnail job", "photoId", photoID, "err", err.Error())
	}
}
