package app

import (
	"context"
	"errors"
	"testing"

	"photoshare/pkg/domain"
	"photoshare/pkg/store"
)

func TestListPhotosFilters(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})

	if _, err := a.Ingest(context.Background(), 1, "a.png", pngBytes(t, 4, 4), "Sunset at the pier", "", []string{"sunset"}); err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if _, err := a.Ingest(context.Background(), 2, "b.png", pngBytes(t, 4, 4), "Mountain trail", "steep climb", []string{"hiking"}); err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	all, err := a.ListPhotos(store.PhotoFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("ListPhotos() = (%d photos, %v), want 2", len(all), err)
	}

	byOwner, err := a.ListPhotos(store.PhotoFilter{OwnerID: 1})
	if err != nil || len(byOwner) != 1 || byOwner[0].OwnerID != 1 {
		t.Fatalf("ListPhotos(owner=1) = (%v, %v), want the one owned photo", byOwner, err)
	}

	byTag, err := a.ListPhotos(store.PhotoFilter{Tag: "hiking"})
	if err != nil || len(byTag) != 1 || byTag[0].Title != "Mountain trail" {
		t.Fatalf("ListPhotos(tag=hiking) = (%v, %v)", byTag, err)
	}

	byKeyword, err := a.ListPhotos(store.PhotoFilter{Keyword: "pier"})
	if err != nil || len(byKeyword) != 1 || byKeyword[0].Title != "Sunset at the pier" {
		t.Fatalf("ListPhotos(keyword=pier) = (%v, %v)", byKeyword, err)
	}
}

func TestUpdatePhotoMeta(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})
	photo := seedPhoto(t, a, 1, "before")

	owner := domain.User{ID: 1, Role: domain.RoleUser}
	stranger := domain.User{ID: 2, Role: domain.RoleUser}
	admin := domain.User{ID: 3, Role: domain.RoleAdmin}

	if _, err := a.UpdatePhotoMeta(stranger, photo.ID, "hijacked", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger update error = %v, want ErrForbidden", err)
	}
	if _, err := a.UpdatePhotoMeta(owner, photo.ID, "   ", ""); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("blank title error = %v, want ErrTitleRequired", err)
	}

	updated, err := a.UpdatePhotoMeta(owner, photo.ID, " after ", " new desc ")
	if err != nil {
		t.Fatalf("UpdatePhotoMeta() error: %v", err)
	}
	if updated.Title != "after" || updated.Description != "new desc" {
		t.Fatalf("UpdatePhotoMeta() = (%q, %q), want trimmed values", updated.Title, updated.Description)
	}

	if _, err := a.UpdatePhotoMeta(admin, photo.ID, "by admin", ""); err != nil {
		t.Fatalf("admin update error: %v", err)
	}
	if _, err := a.UpdatePhotoMeta(owner, 999, "x", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing photo error = %v, want ErrNotFound", err)
	}
}

func TestDeletePhotoRemovesRowAndBlobs(t *testing.T) {
	a, _, blobs := newTestApp(t, Config{})
	photo := seedPhoto(t, a, 1, "gone soon")

	owner := domain.User{ID: 1, Role: domain.RoleUser}
	stranger := domain.User{ID: 2, Role: domain.RoleUser}

	if err := a.DeletePhoto(context.Background(), stranger, photo.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete error = %v, want ErrForbidden", err)
	}
	if err := a.DeletePhoto(context.Background(), owner, photo.ID); err != nil {
		t.Fatalf("DeletePhoto() error: %v", err)
	}
	if _, err := a.GetPhotoDetail(0, photo.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetPhotoDetail(deleted) error = %v, want ErrNotFound", err)
	}
	if blobs.count() != 0 {
		t.Fatalf("blob store holds %d objects after delete, want 0", blobs.count())
	}
	if err := a.DeletePhoto(context.Background(), owner, photo.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestGetPhotoDetailAnonymousViewer(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})
	photo := seedPhoto(t, a, 1, "public shot")

	if _, _, err := a.ToggleLike(2, photo.ID); err != nil {
		t.Fatalf("ToggleLike() error: %v", err)
	}

	detail, err := a.GetPhotoDetail(0, photo.ID)
	if err != nil {
		t.Fatalf("GetPhotoDetail() error: %v", err)
	}
	if detail.IsLiked || detail.IsFavorited {
		t.Fatalf("anonymous viewer has social state: %+v", detail)
	}
	if detail.LikeCount != 1 {
		t.Fatalf("like count = %d, want 1", detail.LikeCount)
	}
}
