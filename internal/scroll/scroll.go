// Package scroll turns normalized page-scroll progress into frame selection.
package scroll

import (
	"math"

	"github.com/ivlev/scrollframe/internal/signal"
)

// FrameIndex maps progress in [0,1] onto a 0-based index into n frames:
// floor(progress*(n-1)), clamped to [0, n-1] so overscroll outside [0,1]
// still lands on the first or last frame. It returns -1 when n < 1 or
// progress is not finite.
func FrameIndex(progress float64, n int) int {
	if n < 1 || math.IsNaN(progress) || math.IsInf(progress, 0) {
		return -1
	}
	idx := math.Floor(progress * float64(n-1))
	return int(max(0, min(idx, float64(n-1))))
}

// Signal carries scroll progress, 0 at the top of the page and 1 at the bottom.
type Signal = signal.Signal[float64]

func NewSignal() *Signal {
	return signal.New(0.0)
}
