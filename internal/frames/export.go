package frames

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Format selects a still image encoding.
type Format string

const (
	// FormatPNG is the default export encoding.
	FormatPNG Format = "png"
	// FormatBMP writes an uncompressed bitmap via x/image/bmp.
	FormatBMP Format = "bmp"
)

// FormatForPath picks the encoding from a file extension, defaulting to PNG.
func FormatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	default:
		return "", fmt.Errorf("unsupported image extension %q (use .png or .bmp)", ext)
	}
}

// Scale enlarges img by an integer factor with nearest-neighbour sampling so
// pixel art stays sharp. Factors below 2 return img unchanged.
func Scale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Encode writes img in the given format after scaling.
func Encode(w io.Writer, img image.Image, format Format, scale int) error {
	img = Scale(img, scale)
	switch format {
	case FormatPNG, "":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	case FormatBMP:
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("encode bmp: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	return nil
}

// EncodeGIF writes an endlessly looping animation. delay is the per-frame
// display time, rounded to the GIF resolution of 10ms.
func EncodeGIF(w io.Writer, images []*image.RGBA, delay time.Duration, scale int) error {
	if len(images) == 0 {
		return fmt.Errorf("encode gif: no frames")
	}
	centis := int((delay + 5*time.Millisecond) / (10 * time.Millisecond))
	if centis < 1 {
		centis = 1
	}
	anim := &gif.GIF{LoopCount: 0}
	for _, img := range images {
		scaled := Scale(img, scale)
		b := scaled.Bounds()
		paletted := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, b, scaled, b.Min)
		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, centis)
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}
