package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"photoshare/pkg/domain"
	"photoshare/pkg/pipeline"
)

var formatExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"tiff": ".tiff",
	"bmp":  ".bmp",
}

// Ingest validates an uploaded image, extracts capture metadata, stores the
// binary, and persists the photo record with its tag links as one atomic
// unit. EXIF extraction is best effort: missing or unreadable metadata never
// fails the upload. If the record cannot be persisted the stored blob is
// removed again, so no orphan binary survives a rollback.
func (a *App) Ingest(ctx context.Context, ownerID uint, filename string, data []byte, title, description string, tagNames []string) (domain.Photo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Photo{}, ErrTitleRequired
	}
	if int64(len(data)) > a.maxUpload {
		return domain.Photo{}, ErrFileTooLarge
	}
	format, err := pipeline.SniffFormat(data)
	if err != nil {
		return domain.Photo{}, ErrUnsupportedImage
	}

	meta := pipeline.ReadMetadata(data)
	if meta.TakenAt == nil {
		a.logger.Debug("no exif capture time in upload", "filename", filename)
	}

	key := uuid.NewString() + formatExtensions[format]
	if err := a.blobs.Write(ctx, key, data, "image/"+format); err != nil {
		return domain.Photo{}, fmt.Errorf("store upload: %w", err)
	}

	now := time.Now().UTC()
	photo := domain.Photo{
		OwnerID:     ownerID,
		Filename:    filename,
		StorageKey:  key,
		Title:       title,
		Description: strings.TrimSpace(description),
		CapturedAt:  meta.TakenAt,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if meta.Latitude != nil && meta.Longitude != nil {
		photo.CaptureLocation = fmt.Sprintf("%.6f, %.6f", *meta.Latitude, *meta.Longitude)
	}
	if meta.Width > 0 && meta.Height > 0 {
		photo.Resolution = fmt.Sprintf("%dx%d", meta.Width, meta.Height)
	}
	if raw, err := json.Marshal(meta); err == nil {
		photo.ExifRaw = raw
	}

	created, err := a.store.CreatePhoto(photo, NormalizeTagNames(tagNames))
	if err != nil {
		if cleanupErr := a.blobs.Delete(ctx, key); cleanupErr != nil {
			a.logger.Warn("failed to remove blob after rollback", "key", key, "err", cleanupErr.Error())
		}
		return domain.Photo{}, fmt.Errorf("persist photo: %w", err)
	}

	a.enqueueThumbnail(ctx, created.ID)
	return created, nil
}
