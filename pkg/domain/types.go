package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Photo struct {
	ID              uint       `json:"id"`
	OwnerID         uint       `json:"ownerId"`
	Filename        string     `json:"filename"`
	StorageKey      string     `json:"-"`
	ThumbnailKey    string     `json:"-"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CapturedAt      *time.Time `json:"capturedAt,omitempty"`
	CaptureLocation string     `json:"captureLocation,omitempty"`
	Resolution      string     `json:"resolution,omitempty"`
	ExifRaw         []byte     `json:"-"`
	LikeCount       int        `json:"likeCount"`
	Tags            []Tag      `json:"tags"`
	UploadedAt      time.Time  `json:"uploadedAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type Tag struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Comment struct {
	ID        uint      `json:"id"`
	PhotoID   uint      `json:"photoId"`
	UserID    uint      `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// PhotoDetail is the full read view of a photo: tags, comments, the viewer's
// like/favorite state, and the favorite count (computed on read, not stored).
type PhotoDetail struct {
	Photo
	OwnerUsername string    `json:"ownerUsername,omitempty"`
	Comments      []Comment `json:"comments"`
	IsLiked       bool      `json:"isLiked"`
	IsFavorited   bool      `json:"isFavorited"`
	FavoriteCount int       `json:"favoriteCount"`
}
