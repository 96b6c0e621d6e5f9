package compositor

import (
	"math"

	"choirgrid/internal/frame"
)

// ZoomCrop scales f to fill a cellW x cellH cell and center-crops the excess.
// The larger of the two axis scale factors is used so the cell is covered;
// when the frame's orientation disagrees with the cell's the two factors are
// averaged instead, which may leave black bars. The result is always exactly
// round(cellW) x round(cellH).
func ZoomCrop(f *frame.Frame, cellW, cellH float64, cellLandscape bool) *frame.Frame {
	outW, outH := int(math.Round(cellW)), int(math.Round(cellH))
	if f.Empty() {
		return frame.New(outW, outH)
	}

	scaleW := cellW / float64(f.Width)
	scaleH := cellH / float64(f.Height)
	frameLandscape := f.Width >= f.Height
	if frameLandscape != cellLandscape {
		avg := (scaleW + scaleH) * 0.5
		scaleW, scaleH = avg, avg
	}
	scale := scaleW
	if scaleW < scaleH {
		scale = scaleH
	}
	scaled := f.ScaleBy(scale)

	cutX, cutY := 0, 0
	if float64(scaled.Width) > cellW {
		cutX = int((float64(scaled.Width) - cellW) * 0.5)
	}
	if float64(scaled.Height) > cellH {
		cutY = int((float64(scaled.Height) - cellH) * 0.5)
	}
	cropped := scaled.Crop(cutX, cutY, outW, outH)
	if cropped.Width == outW && cropped.Height == outH {
		return cropped
	}
	out := frame.New(outW, outH)
	out.Paste(cropped, (outW-cropped.Width)/2, (outH-cropped.Height)/2)
	return out
}
