// Package viewport decides whether the device is too constrained for the
// animated background.
package viewport

import "github.com/ivlev/scrollframe/internal/signal"

// DefaultBreakpoint is the width, in logical pixels, below which a device is constrained.
const DefaultBreakpoint = 768

type Size struct {
	Width, Height int
}

// IsConstrained reports whether width falls below breakpoint.
func IsConstrained(width, breakpoint int) bool {
	return width < breakpoint
}

func (s Size) Constrained(breakpoint int) bool {
	return IsConstrained(s.Width, breakpoint)
}

// Signal carries the current viewport size and resize notifications.
type Signal = signal.Signal[Size]

func NewSignal(initial Size) *Signal {
	return signal.New(initial)
}
