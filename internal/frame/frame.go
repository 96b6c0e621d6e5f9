package frame

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Frame is a packed 8-bit RGB image. Pix holds Height rows of Width*3 bytes.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// New returns a black frame of the given size.
func New(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{Width: width, Height: height, Pix: make([]byte, width*height*3)}
}

// FromBytes wraps a raw rgb24 payload. The slice is copied.
func FromBytes(width, height int, pix []byte) (*Frame, error) {
	if want := width * height * 3; len(pix) != want {
		return nil, fmt.Errorf("frame payload is %d bytes, want %d for %dx%d", len(pix), want, width, height)
	}
	f := New(width, height)
	copy(f.Pix, pix)
	return f, nil
}

// FromImage converts any decoded image into a Frame, dropping alpha.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Over)
	return fromRGBA(rgba)
}

// Clone makes a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := &Frame{Width: f.Width, Height: f.Height, Pix: make([]byte, len(f.Pix))}
	copy(out.Pix, f.Pix)
	return out
}

// Empty reports whether the frame has no pixels.
func (f *Frame) Empty() bool {
	return f == nil || f.Width == 0 || f.Height == 0
}

// Landscape reports whether the frame is wider than it is tall.
func (f *Frame) Landscape() bool {
	return f != nil && f.Width > f.Height
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int {
	return f.Width * 3
}

// At returns the RGB triple at (x, y).
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := y*f.Stride() + x*3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set writes the RGB triple at (x, y).
func (f *Frame) Set(x, y int, r, g, b uint8) {
	i := y*f.Stride() + x*3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

// Equal reports whether both frames have identical size and pixels.
func (f *Frame) Equal(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Width != other.Width || f.Height != other.Height || len(f.Pix) != len(other.Pix) {
		return false
	}
	for i := range f.Pix {
		if f.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// Scale resamples the frame to width x height with bilinear filtering.
func (f *Frame) Scale(width, height int) *Frame {
	if width <= 0 || height <= 0 {
		return New(0, 0)
	}
	if width == f.Width && height == f.Height {
		return f.Clone()
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), f.toRGBA(), image.Rect(0, 0, f.Width, f.Height), draw.Src, nil)
	return fromRGBA(dst)
}

// ScaleBy resamples the frame by a uniform factor, rounding the target size.
func (f *Frame) ScaleBy(factor float64) *Frame {
	w := int(math.Round(float64(f.Width) * factor))
	h := int(math.Round(float64(f.Height) * factor))
	return f.Scale(max(w, 1), max(h, 1))
}

// Crop returns the width x height region whose top-left corner is (x, y).
// The region is clipped to the frame bounds.
func (f *Frame) Crop(x, y, width, height int) *Frame {
	r := image.Rect(x, y, x+width, y+height).Intersect(image.Rect(0, 0, f.Width, f.Height))
	out := New(r.Dx(), r.Dy())
	for row := 0; row < out.Height; row++ {
		src := (r.Min.Y+row)*f.Stride() + r.Min.X*3
		copy(out.Pix[row*out.Stride():(row+1)*out.Stride()], f.Pix[src:src+out.Stride()])
	}
	return out
}

// Paste copies src into f with its top-left corner at (x, y). Pixels falling
// outside f are dropped.
func (f *Frame) Paste(src *Frame, x, y int) {
	if src.Empty() {
		return
	}
	r := image.Rect(x, y, x+src.Width, y+src.Height).Intersect(image.Rect(0, 0, f.Width, f.Height))
	if r.Empty() {
		return
	}
	n := r.Dx() * 3
	for row := r.Min.Y; row < r.Max.Y; row++ {
		srcOff := (row-y)*src.Stride() + (r.Min.X-x)*3
		dstOff := row*f.Stride() + r.Min.X*3
		copy(f.Pix[dstOff:dstOff+n], src.Pix[srcOff:srcOff+n])
	}
}

func (f *Frame) toRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i < len(f.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f.Pix[i]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

func fromRGBA(img *image.RGBA) *Frame {
	b := img.Bounds()
	f := New(b.Dx(), b.Dy())
	for y := 0; y < f.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			i := y*f.Stride() + x*3
			f.Pix[i] = row[x*4]
			f.Pix[i+1] = row[x*4+1]
			f.Pix[i+2] = row[x*4+2]
		}
	}
	return f
}
