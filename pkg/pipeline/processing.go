package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const jpegQuality = 85

var (
	// ErrUnsupportedFormat is returned when bytes do not decode as one of
	// the whitelisted raster formats.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrInvalidCrop is returned when a crop rectangle is non-positive or
	// falls outside the source bounds.
	ErrInvalidCrop = errors.New("invalid crop rectangle")
)

var formats = map[string]imaging.Format{
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
	"gif":  imaging.GIF,
	"tiff": imaging.TIFF,
	"bmp":  imaging.BMP,
}

// Rect is a crop rectangle in source-pixel coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Adjustments are independent multiplicative scalars; 1.0 means unchanged.
type Adjustments struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
}

// EditOps describes one pass through the edit pipeline. Each stage is
// optional; a nil/empty stage passes the image through unchanged.
type EditOps struct {
	Crop   *Rect        `json:"crop,omitempty"`
	Filter string       `json:"filter,omitempty"`
	Adjust *Adjustments `json:"adjust,omitempty"`
}

// SniffFormat decodes the image header and returns the format name if it is
// on the whitelist.
func SniffFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrUnsupportedFormat
	}
	if _, ok := formats[format]; !ok {
		return "", ErrUnsupportedFormat
	}
	return format, nil
}

// Apply runs the edit pipeline over src and returns the re-encoded result in
// the source format. Stage order is fixed: crop, then the named preset, then
// the scalar adjustments. The input is never mutated; callers replace the
// stored blob only after Apply succeeds.
func Apply(src []byte, ops EditOps) ([]byte, error) {
	format, err := SniffFormat(src)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if ops.Crop != nil {
		img, err = crop(img, *ops.Crop)
		if err != nil {
			return nil, err
		}
	}
	if ops.Filter != "" {
		img = ApplyPreset(img, ops.Filter)
	}
	if ops.Adjust != nil {
		img = adjust(img, *ops.Adjust)
	}

	return encode(img, format)
}

func crop(img image.Image, r Rect) (image.Image, error) {
	if r.Width <= 0 || r.Height <= 0 || r.X < 0 || r.Y < 0 {
		return nil, ErrInvalidCrop
	}
	bounds := img.Bounds()
	if r.X+r.Width > bounds.Dx() || r.Y+r.Height > bounds.Dy() {
		return nil, ErrInvalidCrop
	}
	rect := image.Rect(bounds.Min.X+r.X, bounds.Min.Y+r.Y,
		bounds.Min.X+r.X+r.Width, bounds.Min.Y+r.Y+r.Height)
	return imaging.Crop(img, rect), nil
}

func adjust(img image.Image, a Adjustments) image.Image {
	out := img
	if a.Brightness != 0 && a.Brightness != 1 {
		out = imaging.AdjustBrightness(out, toPercent(a.Brightness))
	}
	if a.Contrast != 0 && a.Contrast != 1 {
		out = imaging.AdjustContrast(out, toPercent(a.Contrast))
	}
	if a.Saturation != 0 && a.Saturation != 1 {
		out = imaging.AdjustSaturation(out, toPercent(a.Saturation))
	}
	return out
}

// toPercent maps a multiplicative scalar onto the library's [-100, 100]
// percentage scale.
func toPercent(scalar float64) float64 {
	p := (scalar - 1) * 100
	if p > 100 {
		p = 100
	}
	if p < -100 {
		p = -100
	}
	return p
}

// Thumbnail scales the image down to the given width preserving aspect ratio
// and encodes it as jpeg.
func Thumbnail(src []byte, width int) ([]byte, error) {
	if _, err := SniffFormat(src); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func encode(img image.Image, format string) ([]byte, error) {
	f, ok := formats[format]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
