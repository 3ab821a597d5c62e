package app

import (
	"context"
	"errors"
	"fmt"

	"photoshare/pkg/domain"
	"photoshare/pkg/pipeline"
	"photoshare/pkg/storage"
)

// ApplyEdits runs the edit pipeline over a stored photo and replaces its
// binary. Stage order is fixed: crop, then the named filter preset, then the
// scalar adjustments. The result is rendered fully in memory before the
// stored blob is replaced, so a mid-pipeline failure never corrupts the
// original. Only the owning user may edit; the operation fails closed when
// the backing blob is missing.
func (a *App) ApplyEdits(ctx context.Context, userID, photoID uint, ops pipeline.EditOps) (domain.Photo, error) {
	photo, ok, err := a.store.GetPhoto(photoID)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("load photo: %w", err)
	}
	if !ok {
		return domain.Photo{}, ErrNotFound
	}
	if photo.OwnerID != userID {
		return domain.Photo{}, ErrForbidden
	}

	src, err := a.blobs.Read(ctx, photo.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return domain.Photo{}, ErrNotFound
		}
		return domain.Photo{}, fmt.Errorf("read photo blob: %w", err)
	}

	out, err := pipeline.Apply(src, ops)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrInvalidCrop):
			return domain.Photo{}, ErrInvalidCrop
		case errors.Is(err, pipeline.ErrUnsupportedFormat):
			return domain.Photo{}, ErrUnsupportedImage
		}
		return domain.Photo{}, fmt.Errorf("apply edits: %w", err)
	}

	format, _ := pipeline.SniffFormat(out)
	if err := a.blobs.Write(ctx, photo.StorageKey, out, "image/"+format); err != nil {
		return domain.Photo{}, fmt.Errorf("replace photo blob: %w", err)
	}
	if err := a.store.TouchPhoto(photoID); err != nil {
		a.logger.Warn("failed to bump photo version after edit", "photoId", photoID, "err", err.Error())
	}

	a.enqueueThumbnail(ctx, photoID)

	updated, ok, err := a.store.GetPhoto(photoID)
	if err != nil || !ok {
		return photo, nil
	}
	return updated, nil
}
