package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"photoshare/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&PhotoModel{},
		&TagModel{},
		&PhotoTagModel{},
		&LikeModel{},
		&FavoriteModel{},
		&CommentModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := ensureCascadeConstraints(db); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// ensureCascadeConstraints adds ON DELETE CASCADE foreign keys from the
// association tables to photo_models, so deleting a photo removes its tag
// links, likes, favorites, and comments in the same statement.
func ensureCascadeConstraints(db *gorm.DB) error {
	constraints := []struct {
		table string
		name  string
	}{
		{"photo_tag_models", "photo_tag_models_photo_id_fkey"},
		{"like_models", "like_models_photo_id_fkey"},
		{"favorite_models", "favorite_models_photo_id_fkey"},
		{"comment_models", "comment_models_photo_id_fkey"},
	}
	for _, c := range constraints {
		stmt := fmt.Sprintf(`
			DO $$
			BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_schema = 'public'
				AND table_name = '%s'
				AND constraint_name = '%s'
			) THEN
				ALTER TABLE %s
				ADD CONSTRAINT %s
				FOREIGN KEY (photo_id) REFERENCES photo_models(id) ON DELETE CASCADE;
			END IF;
			END $$;
		`, c.table, c.name, c.table, c.name)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure %s: %w", c.name, err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *GormStore) CreateUser(u domain.User) (domain.User, error) {
	model := userToModel(u)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id uint) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// HasUsername checks if a username is taken.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasEmail checks if an email is registered.
func (s *GormStore) HasEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreatePhoto inserts the photo row, resolves tag names, and links them, all
// inside one transaction. A failure at any step rolls the whole unit back so
// no photo-without-tags state is ever visible.
func (s *GormStore) CreatePhoto(p domain.Photo, tagNames []string) (domain.Photo, error) {
	var created domain.Photo
	err := s.db.Transaction(func(tx *gorm.DB) error {
		model := photoToModel(p)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		tags, err := ensureTags(tx, tagNames)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			link := PhotoTagModel{PhotoID: model.ID, TagID: tag.ID}
			// the same tag may appear twice in the request
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return err
			}
		}
		created = photoFromModel(model)
		created.Tags = dedupeTags(tags)
		return nil
	})
	if err != nil {
		return domain.Photo{}, err
	}
	return created, nil
}

// ensureTags resolves names to tag rows in caller order, creating missing
// ones. Creation uses ON CONFLICT DO NOTHING followed by a re-select, so a
// concurrent duplicate insert converges on the winner's row instead of
// aborting the surrounding transaction.
func ensureTags(tx *gorm.DB, names []string) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		var model TagModel
		err := tx.Where("name = ?", name).First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			model = TagModel{Name: name}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&model).Error; err != nil {
				return nil, err
			}
			if model.ID == 0 {
				// lost the create race; the row exists now
				if err := tx.Where("name = ?", name).First(&model).Error; err != nil {
					return nil, err
				}
			}
		} else if err != nil {
			return nil, err
		}
		tags = append(tags, tagFromModel(model))
	}
	return tags, nil
}

func dedupeTags(tags []domain.Tag) []domain.Tag {
	seen := make(map[uint]bool, len(tags))
	res := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		res = append(res, t)
	}
	return res
}

// EnsureTags resolves tag names outside any caller transaction.
func (s *GormStore) EnsureTags(names []string) ([]domain.Tag, error) {
	return ensureTags(s.db, names)
}

// ListTags returns all tags by name.
func (s *GormStore) ListTags() ([]domain.Tag, error) {
	var models []TagModel
	if err := s.db.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Tag, 0, len(models))
	for _, m := range models {
		res = append(res, tagFromModel(m))
	}
	return res, nil
}

// GetPhoto retrieves a photo with its tags.
func (s *GormStore) GetPhoto(id uint) (domain.Photo, bool, error) {
	var model PhotoModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Photo{}, false, nil
		}
		return domain.Photo{}, false, err
	}
	photo := photoFromModel(model)
	tags, err := s.tagsForPhoto(model.ID)
	if err != nil {
		return domain.Photo{}, false, err
	}
	photo.Tags = tags
	return photo, true, nil
}

func (s *GormStore) tagsForPhoto(photoID uint) ([]domain.Tag, error) {
	var models []TagModel
	err := s.db.
		Joins("JOIN photo_tag_models pt ON pt.tag_id = tag_models.id").
		Where("pt.photo_id = ?", photoID).
		Order("tag_models.name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Tag, 0, len(models))
	for _, m := range models {
		res = append(res, tagFromModel(m))
	}
	return res, nil
}

// ListPhotos returns photos newest-first, optionally filtered by owner, tag
// name, or a title/description keyword.
func (s *GormStore) ListPhotos(f PhotoFilter) ([]domain.Photo, error) {
	tx := s.db.Model(&PhotoModel{}).Order("uploaded_at DESC")
	if f.OwnerID != 0 {
		tx = tx.Where("owner_id = ?", f.OwnerID)
	}
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		tx = tx.Where("title ILIKE ? OR description ILIKE ?", kw, kw)
	}
	if f.Tag != "" {
		tx = tx.Where(
			"id IN (SELECT pt.photo_id FROM photo_tag_models pt JOIN tag_models t ON t.id = pt.tag_id WHERE t.name = ?)",
			f.Tag,
		)
	}
	var models []PhotoModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	return s.withTags(models)
}

func (s *GormStore) withTags(models []PhotoModel) ([]domain.Photo, error) {
	res := make([]domain.Photo, 0, len(models))
	for _, m := range models {
		photo := photoFromModel(m)
		tags, err := s.tagsForPhoto(m.ID)
		if err != nil {
			return nil, err
		}
		photo.Tags = tags
		res = append(res, photo)
	}
	return res, nil
}

// ListRecentByOwner returns the owner's most recent photos, capped at limit.
func (s *GormStore) ListRecentByOwner(ownerID uint, limit int) ([]domain.Photo, error) {
	var models []PhotoModel
	err := s.db.
		Where("owner_id = ?", ownerID).
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return s.withTags(models)
}

// GetPhotosByIDs returns the subset of ids owned by ownerID. Foreign ids are
// dropped, not errors.
func (s *GormStore) GetPhotosByIDs(ownerID uint, ids []uint) ([]domain.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []PhotoModel
	err := s.db.
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Order("uploaded_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return s.withTags(models)
}

// UpdatePhotoMeta updates title and description.
func (s *GormStore) UpdatePhotoMeta(id uint, title, description string) error {
	res := s.db.Model(&PhotoModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":       title,
			"description": description,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetThumbnail records the thumbnail storage key for a photo.
func (s *GormStore) SetThumbnail(id uint, key string) error {
	return s.db.Model(&PhotoModel{}).
		Where("id = ?", id).
		UpdateColumn("thumbnail_key", key).Error
}

// TouchPhoto bumps updated_at so photo URLs get a fresh cache-busting token.
func (s *GormStore) TouchPhoto(id uint) error {
	return s.db.Model(&PhotoModel{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", time.Now().UTC()).Error
}

// DeletePhoto removes the photo row; association tables cascade.
func (s *GormStore) DeletePhoto(id uint) error {
	res := s.db.Delete(&PhotoModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike flips the (user, photo) like row and adjusts the denormalized
// counter inside one transaction. The photo row is locked FOR UPDATE first so
// concurrent toggles on the same photo serialize; the decrement clamps at
// zero; the returned count is read back within the same transaction.
func (s *GormStore) ToggleLike(userID, photoID uint) (bool, int, error) {
	var (
		liked bool
		count int
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var photo PhotoModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&photo, "id = ?", photoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var existing LikeModel
		err := tx.Where("user_id = ? AND photo_id = ?", userID, photoID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("user_id = ? AND photo_id = ?", userID, photoID).
				Delete(&LikeModel{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&PhotoModel{}).Where("id = ?", photoID).
				UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - 1, 0)")).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := LikeModel{UserID: userID, PhotoID: photoID, CreatedAt: time.Now().UTC()}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if err := tx.Model(&PhotoModel{}).Where("id = ?", photoID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}
		var fresh PhotoModel
		if err := tx.Select("like_count").First(&fresh, "id = ?", photoID).Error; err != nil {
			return err
		}
		count = fresh.LikeCount
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// ToggleFavorite flips the (user, photo) favorite row. Favorites carry no
// denormalized counter; CountFavorites computes it on read.
func (s *GormStore) ToggleFavorite(userID, photoID uint) (bool, error) {
	var favorited bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var photo PhotoModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&photo, "id = ?", photoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var existing FavoriteModel
		err := tx.Where("user_id = ? AND photo_id = ?", userID, photoID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("user_id = ? AND photo_id = ?", userID, photoID).
				Delete(&FavoriteModel{}).Error; err != nil {
				return err
			}
			favorited = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := FavoriteModel{UserID: userID, PhotoID: photoID, CreatedAt: time.Now().UTC()}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			favorited = true
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return favorited, nil
}

// GetSocialState reports whether the user currently likes/favorites the photo.
func (s *GormStore) GetSocialState(userID, photoID uint) (bool, bool, error) {
	var likes int64
	if err := s.db.Model(&LikeModel{}).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Count(&likes).Error; err != nil {
		return false, false, err
	}
	var favs int64
	if err := s.db.Model(&FavoriteModel{}).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Count(&favs).Error; err != nil {
		return false, false, err
	}
	return likes > 0, favs > 0, nil
}

// CountFavorites returns the favorite count for a photo.
func (s *GormStore) CountFavorites(photoID uint) (int, error) {
	var count int64
	if err := s.db.Model(&FavoriteModel{}).
		Where("photo_id = ?", photoID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// ListFavoritePhotos returns photos the user favorited, newest favorite first.
func (s *GormStore) ListFavoritePhotos(userID uint) ([]domain.Photo, error) {
	var models []PhotoModel
	err := s.db.Model(&PhotoModel{}).
		Joins("JOIN favorite_models f ON f.photo_id = photo_models.id").
		Where("f.user_id = ?", userID).
		Order("f.created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return s.withTags(models)
}

// AddComment appends a comment.
func (s *GormStore) AddComment(c domain.Comment) (domain.Comment, error) {
	model := commentToModel(c)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Comment{}, err
	}
	res := commentFromModel(model)
	res.Username = c.Username
	return res, nil
}

// ListComments returns a photo's comments oldest-first with usernames joined.
func (s *GormStore) ListComments(photoID uint) ([]domain.Comment, error) {
	type row struct {
		CommentModel
		Username string
	}
	var rows []row
	err := s.db.Model(&CommentModel{}).
		Select("comment_models.*, u.username").
		Joins("JOIN user_models u ON u.id = comment_models.user_id").
		Where("comment_models.photo_id = ?", photoID).
		Order("comment_models.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Comment, 0, len(rows))
	for _, r := range rows {
		c := commentFromModel(r.CommentModel)
		c.Username = r.Username
		res = append(res, c)
	}
	return res, nil
}

// GetComment retrieves one comment.
func (s *GormStore) GetComment(id uint) (domain.Comment, bool, error) {
	var model CommentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Comment{}, false, nil
		}
		return domain.Comment{}, false, err
	}
	return commentFromModel(model), true, nil
}

// DeleteComment removes a comment.
func (s *GormStore) DeleteComment(id uint) error {
	res := s.db.Delete(&CommentModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}

var _ Store = (*GormStore)(nil)
