package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// WhitenOptions controls how the backdrop of an extracted garment is cleaned.
type WhitenOptions struct {
	// Luminance at which pixels start blending towards white.
	Lower uint8
	// Luminance at which pixels become pure white.
	Upper uint8
	// Share of the width and height, centered, that is never touched.
	// The garment sits there.
	CentralProtection float64
}

// DefaultWhitenOptions suit the near white backdrops the image model returns.
var DefaultWhitenOptions = WhitenOptions{Lower: 215, Upper: 245, CentralProtection: 0.5}

// WhitenBackgroundFeathered pushes light background pixels to pure white with a
// soft ramp between Lower and Upper, so the garment edge does not turn jagged.
// Transparent pixels are flattened onto white. The result is always a PNG.
func WhitenBackgroundFeathered(imageBytes []byte, opts WhitenOptions) ([]byte, error) {
	if opts.Lower >= opts.Upper {
		return nil, fmt.Errorf("lower threshold must be less than upper threshold")
	}
	if opts.CentralProtection < 0.0 || opts.CentralProtection > 1.0 {
		return nil, fmt.Errorf("central protection must be between 0.0 and 1.0")
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewRGBA(image.Rect(0, 0, width, height))

	protectedWidth := int(float64(width) * opts.CentralProtection)
	protectedHeight := int(float64(height) * opts.CentralProtection)
	px0 := (width - protectedWidth) / 2
	py0 := (height - protectedHeight) / 2
	px1 := px0 + protectedWidth
	py1 := py0 + protectedHeight

	lower, upper := float64(opts.Lower), float64(opts.Upper)
	ramp := upper - lower

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := flattenOnWhite(img.At(bounds.Min.X+x, bounds.Min.Y+y))

			if x >= px0 && x < px1 && y >= py0 && y < py1 {
				out.SetRGBA(x, y, c)
				continue
			}

			luminance := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			switch {
			case luminance <= lower:
				out.SetRGBA(x, y, c)
			case luminance >= upper:
				out.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			default:
				f := (luminance - lower) / ramp
				out.SetRGBA(x, y, color.RGBA{
					R: blendToWhite(c.R, f),
					G: blendToWhite(c.G, f),
					B: blendToWhite(c.B, f),
					A: 255,
				})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode image to png: %w", err)
	}
	return buf.Bytes(), nil
}

func blendToWhite(v uint8, f float64) uint8 {
	return uint8(math.Round(float64(v)*(1.0-f) + 255.0*f))
}

// flattenOnWhite composites a possibly translucent colour over white.
func flattenOnWhite(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	// RGBA() is alpha premultiplied in 16 bits
	inv := 0xffff - a
	return color.RGBA{
		R: uint8((r + inv) >> 8),
		G: uint8((g + inv) >> 8),
		B: uint8((b + inv) >> 8),
		A: 255,
	}
}

// MaxPhotoSide bounds the longer side of photos sent to the image model.
const MaxPhotoSide = 2048

// PreparePhoto applies the EXIF orientation of a phone photo and shrinks it to
// fit maxSide, re-encoded as JPEG. Formats the decoder doesn't know (HEIC)
// return an error and should be sent as they are.
func PreparePhoto(imageBytes []byte, maxSide int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > maxSide || bounds.Dy() > maxSide {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
