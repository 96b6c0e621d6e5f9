package frame

import "math"

// Rotation is a clockwise rotation in degrees applied to decoded frames.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Valid reports whether r is one of the supported right-angle rotations.
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// Rotate applies r and returns a new frame. 90 is a transpose followed by a
// horizontal flip, 270 a transpose followed by a vertical flip, and 180 flips
// both axes. Unsupported angles return an unmodified copy and false.
func (f *Frame) Rotate(r Rotation) (*Frame, bool) {
	switch r {
	case Rotate0:
		return f.Clone(), true
	case Rotate90:
		return f.Transpose().FlipHorizontal(), true
	case Rotate180:
		return f.FlipHorizontal().FlipVertical(), true
	case Rotate270:
		return f.Transpose().FlipVertical(), true
	default:
		return f.Clone(), false
	}
}

// Transpose mirrors the frame across its main diagonal.
func (f *Frame) Transpose() *Frame {
	out := New(f.Height, f.Width)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src := y*f.Stride() + x*3
			dst := x*out.Stride() + y*3
			copy(out.Pix[dst:dst+3], f.Pix[src:src+3])
		}
	}
	return out
}

// FlipHorizontal mirrors the frame left to right.
func (f *Frame) FlipHorizontal() *Frame {
	out := New(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src := y*f.Stride() + x*3
			dst := y*f.Stride() + (f.Width-1-x)*3
			copy(out.Pix[dst:dst+3], f.Pix[src:src+3])
		}
	}
	return out
}

// FlipVertical mirrors the frame top to bottom.
func (f *Frame) FlipVertical() *Frame {
	out := New(f.Width, f.Height)
	stride := f.Stride()
	for y := 0; y < f.Height; y++ {
		dst := (f.Height - 1 - y) * stride
		copy(out.Pix[dst:dst+stride], f.Pix[y*stride:(y+1)*stride])
	}
	return out
}

// Decay returns f with every channel multiplied by decay^steps and rounded.
// When the factor can no longer lift any 8-bit value above one half the result
// is exact black.
func (f *Frame) Decay(decay float64, steps int) *Frame {
	out := New(f.Width, f.Height)
	if steps <= 0 {
		copy(out.Pix, f.Pix)
		return out
	}
	factor := math.Pow(decay, float64(steps))
	if 255*factor < 0.5 {
		return out
	}
	var lut [256]byte
	for v := range lut {
		lut[v] = clamp8(math.Round(float64(v) * factor))
	}
	for i, v := range f.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// Blend returns round(alpha*overlay + (1-alpha)*base) per channel. Both frames
// must share dimensions; alpha is clamped to [0, 1].
func Blend(overlay, base *Frame, alpha float64) *Frame {
	alpha = math.Max(0, math.Min(1, alpha))
	switch alpha {
	case 0:
		return base.Clone()
	case 1:
		return overlay.Clone()
	}
	out := New(base.Width, base.Height)
	for i := range out.Pix {
		v := alpha*float64(overlay.Pix[i]) + (1-alpha)*float64(base.Pix[i])
		out.Pix[i] = clamp8(math.Round(v))
	}
	return out
}

func clamp8(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}
