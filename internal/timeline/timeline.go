package timeline

import (
	"errors"
	"math"
	"slices"
)

// ErrNoActiveTracks is returned when no track opened successfully.
var ErrNoActiveTracks = errors.New("timeline: no active tracks")

// tickEpsilon absorbs float error so that duration*fps landing a hair under an
// integer still includes that final tick.
const tickEpsilon = 1e-9

// Entry is one track's contribution to the timeline. Inactive entries keep
// their position in the project's track list but are ignored here.
type Entry struct {
	Duration float64
	Offset   float64
	Active   bool
}

// End is the global time at which the track's last frame plays.
func (e Entry) End() float64 {
	return e.Duration + e.Offset
}

// LocalTime maps a global time onto a track whose local zero sits at offset.
// Negative results mean the track has not started yet.
func LocalTime(offset, global float64) float64 {
	return global - offset
}

// Duration returns median(duration+offset) over active entries plus tail.
func Duration(entries []Entry, tail float64) (float64, error) {
	ends := make([]float64, 0, len(entries))
	for _, e := range entries {
		if e.Active {
			ends = append(ends, e.End())
		}
	}
	if len(ends) == 0 {
		return 0, ErrNoActiveTracks
	}
	return Median(ends) + tail, nil
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. It returns NaN for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// TickCount is the number of output ticks covering [0, duration] inclusive:
// floor(duration*fps) + 1.
func TickCount(duration, fps float64) int {
	if duration < 0 || fps <= 0 {
		return 0
	}
	return int(math.Floor(duration*fps+tickEpsilon)) + 1
}

// TickTime returns the global time of tick i.
func TickTime(i int, fps float64) float64 {
	return float64(i) / fps
}
