package app

import (
	"fmt"
	"strings"

	"photoshare/pkg/domain"
)

// AddComment posts a comment on an existing photo.
func (a *App) AddComment(userID, photoID uint, content string) (domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Comment{}, ErrContentRequired
	}
	_, ok, err := a.store.GetPhoto(photoID)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("load photo: %w", err)
	}
	if !ok {
		return domain.Comment{}, ErrNotFound
	}
	comment, err := a.store.AddComment(domain.Comment{
		PhotoID: photoID,
		UserID:  userID,
		Content: content,
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return comment, nil
}

// ListComments returns a photo's comments, oldest first.
func (a *App) ListComments(photoID uint) ([]domain.Comment, error) {
	_, ok, err := a.store.GetPhoto(photoID)
	if err != nil {
		return nil, fmt.Errorf("load photo: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	comments, err := a.store.ListComments(photoID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, nil
}

// DeleteComment removes a comment. Allowed for the comment's author, the
// photo's owner, and admins.
func (a *App) DeleteComment(user domain.User, commentID uint) error {
	comment, ok, err := a.store.GetComment(commentID)
	if err != nil {
		return fmt.Errorf("load comment: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if comment.UserID != user.ID && user.Role != domain.RoleAdmin {
		photo, ok, err := a.store.GetPhoto(comment.PhotoID)
		if err != nil {
			return fmt.Errorf("load photo: %w", err)
		}
		if !ok || photo.OwnerID != user.ID {
			return ErrForbidden
		}
	}
	if err := a.store.DeleteComment(commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
