package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// gradientPNG renders a PNG with varied pixel colors so filters have
// something to change.
func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(40 + x*10),
				G: uint8(200 - y*12),
				B: uint8(90 + x*5 + y*3),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error: %v", err)
	}
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	return img
}

func TestSniffFormat(t *testing.T) {
	if format, err := SniffFormat(gradientPNG(t, 4, 4)); err != nil || format != "png" {
		t.Fatalf("SniffFormat(png) = (%q, %v), want (png, nil)", format, err)
	}
	if _, err := SniffFormat([]byte("not an image")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("SniffFormat(garbage) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestApplyCropBounds(t *testing.T) {
	src := gradientPNG(t, 10, 8)

	bad := []Rect{
		{X: 0, Y: 0, Width: 0, Height: 4},
		{X: 0, Y: 0, Width: 4, Height: -1},
		{X: -1, Y: 0, Width: 4, Height: 4},
		{X: 8, Y: 0, Width: 4, Height: 4},
		{X: 0, Y: 6, Width: 4, Height: 4},
	}
	for _, r := range bad {
		if _, err := Apply(src, EditOps{Crop: &r}); !errors.Is(err, ErrInvalidCrop) {
			t.Fatalf("Apply(crop=%+v) error = %v, want ErrInvalidCrop", r, err)
		}
	}

	out, err := Apply(src, EditOps{Crop: &Rect{X: 2, Y: 1, Width: 5, Height: 6}})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	b := decodePNG(t, out).Bounds()
	if b.Dx() != 5 || b.Dy() != 6 {
		t.Fatalf("cropped size = %dx%d, want 5x6", b.Dx(), b.Dy())
	}
}

func TestApplyCropRunsBeforeFilter(t *testing.T) {
	src := gradientPNG(t, 10, 8)

	out, err := Apply(src, EditOps{
		Crop:   &Rect{X: 0, Y: 0, Width: 3, Height: 3},
		Filter: "noir",
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	img := decodePNG(t, out)
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 3 {
		t.Fatalf("output size = %dx%d, want crop size 3x3", b.Dx(), b.Dy())
	}
	assertGrayscale(t, img)
}

func TestNoirStaysGrayscale(t *testing.T) {
	src := gradientPNG(t, 6, 6)
	out, err := Apply(src, EditOps{Filter: "noir"})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	img := decodePNG(t, out)
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 6 {
		t.Fatalf("noir changed dimensions to %dx%d", b.Dx(), b.Dy())
	}
	assertGrayscale(t, img)
}

func assertGrayscale(t *testing.T, img image.Image) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != g || g != bl {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), want gray", x, y, r, g, bl)
			}
		}
	}
}

func TestApplyUnknownFilterIsNoOp(t *testing.T) {
	src := gradientPNG(t, 6, 6)

	plain, err := Apply(src, EditOps{})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	filtered, err := Apply(src, EditOps{Filter: "does_not_exist"})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if !bytes.Equal(plain, filtered) {
		t.Fatalf("unknown filter changed the image")
	}
}

func TestKnownPreset(t *testing.T) {
	for _, name := range []string{"vivid", "vivid_warm", "vivid_cool", "dramatic", "dramatic_warm", "dramatic_cool", "mono", "silvertone", "noir"} {
		if !KnownPreset(name) {
			t.Fatalf("KnownPreset(%q) = false", name)
		}
	}
	if KnownPreset("sepia") {
		t.Fatalf("KnownPreset(sepia) = true")
	}
}

func TestApplyAdjustmentsChangePixels(t *testing.T) {
	src := gradientPNG(t, 6, 6)

	out, err := Apply(src, EditOps{Adjust: &Adjustments{Brightness: 1.4, Contrast: 1.0, Saturation: 0.5}})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	plain, err := Apply(src, EditOps{})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if bytes.Equal(out, plain) {
		t.Fatalf("adjustments did not change the image")
	}
}

func TestApplyUnsupportedBytes(t *testing.T) {
	if _, err := Apply([]byte("garbage"), EditOps{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Apply(garbage) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestThumbnailScalesDown(t *testing.T) {
	src := gradientPNG(t, 40, 20)
	out, err := Thumbnail(src, 10)
	if err != nil {
		t.Fatalf("Thumbnail() error: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig() error: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("thumbnail format = %q, want jpeg", format)
	}
	if cfg.Width != 10 || cfg.Height != 5 {
		t.Fatalf("thumbnail size = %dx%d, want 10x5", cfg.Width, cfg.Height)
	}
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	src := gradientPNG(t, 8, 8)
	out, err := Thumbnail(src, 100)
	if err != nil {
		t.Fatalf("Thumbnail() error: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig() error: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 8 {
		t.Fatalf("small image resized to %dx%d", cfg.Width, cfg.Height)
	}
}
