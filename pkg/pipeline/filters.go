package pipeline

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// A preset is a fixed composition of color transforms applied to an image.
type preset func(image.Image) *image.NRGBA

// Filter catalog. The names and their compositions follow the classic camera
// filter set: vivid variants boost saturation and brightness with a gamma
// lift, dramatic variants stretch contrast, and the mono family produces
// grayscale with increasing contrast and tint.
var presets = map[string]preset{
	"vivid":         vivid,
	"vivid_warm":    vividWarm,
	"vivid_cool":    vividCool,
	"dramatic":      dramatic,
	"dramatic_warm": dramaticWarm,
	"dramatic_cool": dramaticCool,
	"mono":          mono,
	"silvertone":    silvertone,
	"noir":          noir,
}

// ApplyPreset applies the named filter preset. An unrecognized name is a
// no-op, not an error.
func ApplyPreset(img image.Image, name string) image.Image {
	if f, ok := presets[name]; ok {
		return f(img)
	}
	return img
}

// KnownPreset reports whether name is in the filter catalog.
func KnownPreset(name string) bool {
	_, ok := presets[name]
	return ok
}

func vivid(img image.Image) *image.NRGBA {
	out := imaging.AdjustSaturation(img, 50)
	out = imaging.AdjustBrightness(out, 5)
	return imaging.AdjustGamma(out, 1.1)
}

func vividWarm(img image.Image) *image.NRGBA {
	return tint(vivid(img), color.NRGBA{R: 255, G: 230, B: 180, A: 255}, 0.1)
}

func vividCool(img image.Image) *image.NRGBA {
	return tint(vivid(img), color.NRGBA{R: 170, G: 200, B: 255, A: 255}, 0.1)
}

func dramatic(img image.Image) *image.NRGBA {
	out := imaging.AdjustContrast(img, 50)
	return imaging.AdjustGamma(out, 1.3)
}

func dramaticWarm(img image.Image) *image.NRGBA {
	return tint(dramatic(img), color.NRGBA{R: 255, G: 190, B: 100, A: 255}, 0.15)
}

func dramaticCool(img image.Image) *image.NRGBA {
	return tint(dramatic(img), color.NRGBA{R: 100, G: 150, B: 255, A: 255}, 0.15)
}

func mono(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}

func silvertone(img image.Image) *image.NRGBA {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 10)
	return tint(out, color.NRGBA{R: 150, G: 150, B: 150, A: 255}, 0.1)
}

func noir(img image.Image) *image.NRGBA {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 40)
	return imaging.AdjustGamma(out, 0.6)
}

// tint blends a uniform color layer over the image at the given opacity.
func tint(img *image.NRGBA, c color.NRGBA, opacity float64) *image.NRGBA {
	bounds := img.Bounds()
	layer := imaging.New(bounds.Dx(), bounds.Dy(), c)
	return imaging.Overlay(img, layer, bounds.Min, opacity)
}
