package store

import (
	"errors"

	"photoshare/pkg/domain"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// PhotoFilter narrows photo listings. Zero values mean "no filter".
type PhotoFilter struct {
	OwnerID uint
	Tag     string
	Keyword string
}

// Store defines persistence operations for users, photos, tags, social
// relations, and comments. Multi-step operations (photo creation with tag
// links, like/favorite toggles) are atomic: a reader never observes a
// partial state.
type Store interface {
	// users
	CreateUser(domain.User) (domain.User, error)
	GetUserByID(id uint) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	HasUsername(username string) (bool, error)
	HasEmail(email string) (bool, error)

	// photos
	// CreatePhoto inserts the photo row, resolves tagNames to tag rows
	// (creating missing ones), and links them, all in one atomic unit.
	CreatePhoto(p domain.Photo, tagNames []string) (domain.Photo, error)
	GetPhoto(id uint) (domain.Photo, bool, error)
	ListPhotos(f PhotoFilter) ([]domain.Photo, error)
	ListRecentByOwner(ownerID uint, limit int) ([]domain.Photo, error)
	GetPhotosByIDs(ownerID uint, ids []uint) ([]domain.Photo, error)
	UpdatePhotoMeta(id uint, title, description string) error
	SetThumbnail(id uint, key string) error
	TouchPhoto(id uint) error
	DeletePhoto(id uint) error

	// tags
	// EnsureTags resolves names to tag rows in caller order, creating
	// missing ones. Concurrent creation of the same name must converge on
	// a single row.
	EnsureTags(names []string) ([]domain.Tag, error)
	ListTags() ([]domain.Tag, error)

	// social
	// ToggleLike flips the (user, photo) like row and adjusts the photo's
	// like counter in the same transaction, returning the new state and
	// the authoritative count.
	ToggleLike(userID, photoID uint) (liked bool, count int, err error)
	ToggleFavorite(userID, photoID uint) (favorited bool, err error)
	GetSocialState(userID, photoID uint) (liked, favorited bool, err error)
	CountFavorites(photoID uint) (int, error)
	ListFavoritePhotos(userID uint) ([]domain.Photo, error)

	// comments
	AddComment(c domain.Comment) (domain.Comment, error)
	ListComments(photoID uint) ([]domain.Comment, error)
	GetComment(id uint) (domain.Comment, bool, error)
	DeleteComment(id uint) error
}
