package app

import (
	"context"
	"fmt"
	"strings"

	"photoshare/pkg/domain"
	"photoshare/pkg/store"
)

// GetPhotoDetail returns the full read view of a photo: owner username,
// comments, the viewer's like and favorite state, and the favorite count.
// viewerID zero means an anonymous viewer.
func (a *App) GetPhotoDetail(viewerID, photoID uint) (domain.PhotoDetail, error) {
	photo, ok, err := a.store.GetPhoto(photoID)
	if err != nil {
		return domain.PhotoDetail{}, fmt.Errorf("load photo: %w", err)
	}
	if !ok {
		return domain.PhotoDetail{}, ErrNotFound
	}

	detail := domain.PhotoDetail{Photo: photo, Comments: []domain.Comment{}}

	if owner, ok, err := a.store.GetUserByID(photo.OwnerID); err == nil && ok {
		detail.OwnerUsername = owner.Username
	}

	comments, err := a.store.ListComments(photoID)
	if err != nil {
		return domain.PhotoDetail{}, fmt.Errorf("load comments: %w", err)
	}
	if comments != nil {
		detail.Comments = comments
	}

	if viewerID != 0 {
		liked, favorited, err := a.store.GetSocialState(viewerID, photoID)
		if err != nil {
			return domain.PhotoDetail{}, fmt.Errorf("load social state: %w", err)
		}
		detail.IsLiked = liked
		detail.IsFavorited = favorited
	}

	favCount, err := a.store.CountFavorites(photoID)
	if err != nil {
		return domain.PhotoDetail{}, fmt.Errorf("count favorites: %w", err)
	}
	detail.FavoriteCount = favCount

	return detail, nil
}

// ListPhotos returns photos newest first, optionally narrowed by owner, tag,
// or a keyword over title and description.
func (a *App) ListPhotos(f store.PhotoFilter) ([]domain.Photo, error) {
	photos, err := a.store.ListPhotos(f)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	if photos == nil {
		photos = []domain.Photo{}
	}
	return photos, nil
}

// UpdatePhotoMeta changes a photo's title and description. Allowed for the
// owner and admins; the title may not be blank.
func (a *App) UpdatePhotoMeta(user domain.User, photoID uint, title, description string) (domain.Photo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Photo{}, ErrTitleRequired
	}
	photo, ok, err := a.store.GetPhoto(photoID)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("load photo: %w", err)
	}
	if !ok {
		return domain.Photo{}, ErrNotFound
	}
	if photo.OwnerID != user.ID && user.Role != domain.RoleAdmin {
		return domain.Photo{}, ErrForbidden
	}
	if err := a.store.UpdatePhotoMeta(photoID, title, strings.TrimSpace(description)); err != nil {
		return domain.Photo{}, fmt.Errorf("update photo: %w", err)
	}
	updated, _, err := a.store.GetPhoto(photoID)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("reload photo: %w", err)
	}
	return updated, nil
}

// DeletePhoto removes the photo row, its tag links, social rows, and
// comments, then deletes the stored binaries. Blob deletion is best effort:
// once the row is gone the photo is gone, and an orphaned blob only costs
// space.
func (a *App) DeletePhoto(ctx context.Context, user domain.User, photoID uint) error {
	photo, ok, err := a.store.GetPhoto(photoID)
	if err != nil {
		return fmt.Errorf("load photo: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if photo.OwnerID != user.ID && user.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	if err := a.store.DeletePhoto(photoID); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if err := a.blobs.Delete(ctx, photo.StorageKey); err != nil {
		a.logger.Warn("failed to delete photo blob", "photoId", photoID, "key", photo.StorageKey, "err", err.Error())
	}
	if photo.ThumbnailKey != "" {
		if err := a.blobs.Delete(ctx, photo.ThumbnailKey); err != nil {
			a.logger.Warn("failed to delete thumbnail blob", "photoId", photoID, "key", photo.ThumbnailKey, "err", err.Error())
		}
	}
	return nil
}
