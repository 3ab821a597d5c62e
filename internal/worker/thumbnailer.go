package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"photoshare/pkg/pipeline"
	"photoshare/pkg/queue"
	"photoshare/pkg/storage"
	"photoshare/pkg/store"
)

const defaultThumbWidth = 320

// Thumbnailer renders downscaled copies of stored photos in the background.
type Thumbnailer struct {
	store  store.Store
	blobs  storage.BlobStore
	width  int
	logger *slog.Logger
}

func NewThumbnailer(st store.Store, blobs storage.BlobStore, width int) *Thumbnailer {
	if width <= 0 {
		width = defaultThumbWidth
	}
	return &Thumbnailer{
		store:  st,
		blobs:  blobs,
		width:  width,
		logger: slog.Default().With(slog.String("component", "thumbnailer")),
	}
}

// Handle processes one queued job. A photo deleted between enqueue and
// processing is not an error; the job is simply done.
func (t *Thumbnailer) Handle(ctx context.Context, job queue.Job) error {
	photo, ok, err := t.store.GetPhoto(job.PhotoID)
	if err != nil {
		return fmt.Errorf("load photo %d: %w", job.PhotoID, err)
	}
	if !ok {
		t.logger.Info("skipping thumbnail for deleted photo", "photoId", job.PhotoID)
		return nil
	}
	return t.render(ctx, photo.ID, photo.StorageKey)
}

// RebuildMissing renders thumbnails for every photo that lacks one, a few at
// a time. Used at startup so photos uploaded while redis was down still get
// thumbnails.
func (t *Thumbnailer) RebuildMissing(ctx context.Context, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 2
	}
	photos, err := t.store.ListPhotos(store.PhotoFilter{})
	if err != nil {
		return fmt.Errorf("list photos: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, p := range photos {
		if p.ThumbnailKey != "" {
			continue
		}
		p := p
		g.Go(func() error {
			if err := t.render(ctx, p.ID, p.StorageKey); err != nil {
				t.logger.Warn("thumbnail rebuild failed", "photoId", p.ID, "err", err.Error())
			}
			return nil
		})
	}
	return g.Wait()
}

func (t *Thumbnailer) render(ctx context.Context, photoID uint, storageKey string) error {
	src, err := t.blobs.Read(ctx, storageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			t.logger.Warn("photo blob missing, skipping thumbnail", "photoId", photoID, "key", storageKey)
			return nil
		}
		return fmt.Errorf("read photo blob: %w", err)
	}

	thumb, err := pipeline.Thumbnail(src, t.width)
	if err != nil {
		return fmt.Errorf("render thumbnail: %w", err)
	}

	key := "thumb_" + storageKey
	if err := t.blobs.Write(ctx, key, thumb, "image/jpeg"); err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}
	if err := t.store.SetThumbnail(photoID, key); err != nil {
		return fmt.Errorf("record thumbnail key: %w", err)
	}
	t.logger.Info("thumbnail rendered", "photoId", photoID, "key", key)
	return nil
}
