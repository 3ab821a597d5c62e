package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"photoshare/pkg/pipeline"
)

func TestApplyEditsCropReplacesBlob(t *testing.T) {
	a, st, blobs := newTestApp(t, Config{})
	photo := seedPhoto(t, a, 1, "croppable")

	stored, _, err := st.GetPhoto(photo.ID)
	if err != nil {
		t.Fatalf("GetPhoto() error: %v", err)
	}
	before, err := blobs.Read(context.Background(), stored.StorageKey)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	updated, err := a.ApplyEdits(context.Background(), 1, photo.ID, pipeline.EditOps{
		Crop: &pipeline.Rect{X: 1, Y: 1, Width: 4, Height: 3},
	})
	if err != nil {
		t.Fatalf("ApplyEdits() error: %v", err)
	}

	after, err := blobs.Read(context.Background(), stored.StorageKey)
	if err != nil {
		t.Fatalf("Read() after edit error: %v", err)
	}
	if bytes.Equal(before, after) {
		t.Fatalf("blob unchanged after edit")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(after))
	if err != nil {
		t.Fatalf("DecodeConfig() error: %v", err)
	}
	if format != "png" {
		t.Fatalf("edited format = %q, want png", format)
	}
	if cfg.Width != 4 || cfg.Height != 3 {
		t.Fatalf("edited size = %dx%d, want 4x3", cfg.Width, cfg.Height)
	}
	if updated.UpdatedAt.Before(photo.UpdatedAt) {
		t.Fatalf("UpdatedAt went backwards: %v -> %v", photo.UpdatedAt, updated.UpdatedAt)
	}
}

func TestApplyEditsPermissionsAndValidation(t *testing.T) {
	a, _, _ := newTestApp(t, Config{})
	photo := seedPhoto(t, a, 1, "guarded")

	if _, err := a.ApplyEdits(context.Background(), 2, photo.ID, pipeline.EditOps{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger edit error = %v, want ErrForbidden", err)
	}
	if _, err := a.ApplyEdits(context.Background(), 1, 999, pipeline.EditOps{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing photo error = %v, want ErrNotFound", err)
	}
	if _, err := a.ApplyEdits(context.Background(), 1, photo.ID, pipeline.EditOps{
		Crop: &pipeline.Rect{X: 0, Y: 0, Width: 500, Height: 500},
	}); !errors.Is(err, ErrInvalidCrop) {
		t.Fatalf("oversized crop error = %v, want ErrInvalidCrop", err)
	}
}

func TestApplyEditsMissingBlobFailsClosed(t *testing.T) {
	a, st, blobs := newTestApp(t, Config{})
	photo := seedPhoto(t, a, 1, "hollow")

	stored, _, err := st.GetPhoto(photo.ID)
	if err != nil {
		t.Fatalf("GetPhoto() error: %v", err)
	}
	if err := blobs.Delete(context.Background(), stored.StorageKey); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if _, err := a.ApplyEdits(context.Background(), 1, photo.ID, pipeline.EditOps{Filter: "mono"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing blob error = %v, want ErrNotFound", err)
	}
}
