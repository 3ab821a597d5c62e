package pipeline

import (
	"bytes"
	"image"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata is the subset of EXIF data the ingestion pipeline records.
type Metadata struct {
	// best effort -> DateTimeOriginal, DateTimeDigitized, DateTime.
	TakenAt *time.Time `json:"takenAt,omitempty"`

	// optional GPS coordinates, rarely present
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// pixel dimensions
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// ReadMetadata extracts capture metadata from raw image bytes. Extraction is
// best effort: not all formats carry EXIF (jpeg and tiff usually do, png and
// gif do not), so missing data yields zero fields, never an error.
func ReadMetadata(data []byte) Metadata {
	meta := Metadata{}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil || x == nil {
		return meta
	}
	if taken, err := x.DateTime(); err == nil {
		meta.TakenAt = &taken
	}
	if lat, long, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &long
	}
	return meta
}
