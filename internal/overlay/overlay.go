package overlay

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"choirgrid/internal/frame"
	"choirgrid/internal/services"
)

// Load decodes a still image (PNG, JPEG, GIF, BMP, TIFF, or WebP) and fits it
// onto a black canvas of the given size. Any failure is a configuration error
// naming the file.
func Load(path string, canvasW, canvasH int) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "overlay", "open", path, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "overlay", "decode", path, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, services.Wrap(services.ErrConfiguration, "overlay", "decode", fmt.Sprintf("%s: empty %s image", path, format), nil)
	}
	return Fit(frame.FromImage(img), canvasW, canvasH), nil
}

// Fit scales src by the smaller of the two axis factors so it fits the canvas
// entirely, then centers it on black.
func Fit(src *frame.Frame, canvasW, canvasH int) *frame.Frame {
	canvas := frame.New(canvasW, canvasH)
	if src.Empty() {
		return canvas
	}
	scale := math.Min(float64(canvasW)/float64(src.Width), float64(canvasH)/float64(src.Height))
	w := min(int(math.Round(float64(src.Width)*scale)), canvasW)
	h := min(int(math.Round(float64(src.Height)*scale)), canvasH)
	scaled := src.Scale(max(w, 1), max(h, 1))
	canvas.Paste(scaled, (canvasW-scaled.Width)/2, (canvasH-scaled.Height)/2)
	return canvas
}
