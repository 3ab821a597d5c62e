package store

import (
	"time"

	"gorm.io/datatypes"

	"photoshare/pkg/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type PhotoModel struct {
	ID              uint   `gorm:"primaryKey"`
	OwnerID         uint   `gorm:"not null;index"`
	Filename        string `gorm:"not null"`
	StorageKey      string `gorm:"not null"`
	ThumbnailKey    string
	Title           string `gorm:"not null"`
	Description     string
	CapturedAt      *time.Time
	CaptureLocation string
	Resolution      string
	Exif            datatypes.JSON `gorm:"type:jsonb"`
	LikeCount       int            `gorm:"not null;default:0"`
	UploadedAt      time.Time      `gorm:"not null;index"`
	UpdatedAt       time.Time      `gorm:"not null"`
}

type TagModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

type PhotoTagModel struct {
	PhotoID uint `gorm:"primaryKey"`
	TagID   uint `gorm:"primaryKey"`
}

type LikeModel struct {
	UserID    uint `gorm:"primaryKey"`
	PhotoID   uint `gorm:"primaryKey"`
	CreatedAt time.Time
}

type FavoriteModel struct {
	UserID    uint `gorm:"primaryKey"`
	PhotoID   uint `gorm:"primaryKey"`
	CreatedAt time.Time
}

type CommentModel struct {
	ID        uint      `gorm:"primaryKey"`
	PhotoID   uint      `gorm:"not null;index"`
	UserID    uint      `gorm:"not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func photoToModel(p domain.Photo) PhotoModel {
	return PhotoModel{
		ID:              p.ID,
		OwnerID:         p.OwnerID,
		Filename:        p.Filename,
		StorageKey:      p.StorageKey,
		ThumbnailKey:    p.ThumbnailKey,
		Title:           p.Title,
		Description:     p.Description,
		CapturedAt:      p.CapturedAt,
		CaptureLocation: p.CaptureLocation,
		Resolution:      p.Resolution,
		Exif:            datatypes.JSON(p.ExifRaw),
		LikeCount:       p.LikeCount,
		UploadedAt:      p.UploadedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func photoFromModel(m PhotoModel) domain.Photo {
	return domain.Photo{
		ID:              m.ID,
		OwnerID:         m.OwnerID,
		Filename:        m.Filename,
		StorageKey:      m.StorageKey,
		ThumbnailKey:    m.ThumbnailKey,
		Title:           m.Title,
		Description:     m.Description,
		CapturedAt:      m.CapturedAt,
		CaptureLocation: m.CaptureLocation,
		Resolution:      m.Resolution,
		ExifRaw:         []byte(m.Exif),
		LikeCount:       m.LikeCount,
		UploadedAt:      m.UploadedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func tagFromModel(m TagModel) domain.Tag {
	return domain.Tag{ID: m.ID, Name: m.Name}
}

func commentToModel(c domain.Comment) CommentModel {
	return CommentModel{
		ID:        c.ID,
		PhotoID:   c.PhotoID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func commentFromModel(m CommentModel) domain.Comment {
	return domain.Comment{
		ID:        m.ID,
		PhotoID:   m.PhotoID,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
