package app

import (
	"errors"
	"fmt"

	"photoshare/pkg/domain"
	"photoshare/pkg/store"
)

// ToggleLike flips the caller's like on a photo and returns the new state
// with the authoritative counter value. The store runs the existence check,
// the flip, and the counter adjustment in one transaction, so two rapid
// toggles from the same user, or toggles from different users, serialize
// instead of losing updates.
func (a *App) ToggleLike(userID, photoID uint) (bool, int, error) {
	liked, count, err := a.store.ToggleLike(userID, photoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, 0, ErrNotFound
		}
		return false, 0, fmt.Errorf("toggle like: %w", err)
	}
	return liked, count, nil
}

// ToggleFavorite flips the caller's favorite on a photo.
func (a *App) ToggleFavorite(userID, photoID uint) (bool, error) {
	favorited, err := a.store.ToggleFavorite(userID, photoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	return favorited, nil
}

// ListFavorites returns the photos the user has favorited, newest first.
func (a *App) ListFavorites(userID uint) ([]domain.Photo, error) {
	photos, err := a.store.ListFavoritePhotos(userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if photos == nil {
		photos = []domain.Photo{}
	}
	return photos, nil
}
