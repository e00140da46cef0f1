package scroll

import (
	"log/slog"

	"github.com/ivlev/scrollframe/internal/frames"
	"github.com/ivlev/scrollframe/internal/logging"
	"github.com/ivlev/scrollframe/internal/surface"
)

// Drawer is the part of the surface manager the mapper drives.
type Drawer interface {
	Available() bool
	Draw(f surface.Frame) (bool, error)
}

// Mapper selects the frame for a scroll position and asks the surface to draw it.
type Mapper struct {
	set         *frames.Set
	surf        Drawer
	constrained func() bool
	log         *slog.Logger
}

// NewMapper wires a frame set to a drawer. constrained is consulted on every
// event; nil means never constrained.
func NewMapper(set *frames.Set, surf Drawer, constrained func() bool) *Mapper {
	if constrained == nil {
		constrained = func() bool { return false }
	}
	return &Mapper{set: set, surf: surf, constrained: constrained, log: logging.For("scroll")}
}

// OnProgress handles one scroll change. It returns the drawn frame index, or
// -1 when the event was dropped: constrained device, set not ready, surface
// unavailable, or the selected frame not decoded.
func (m *Mapper) OnProgress(p float64) int {
	if m.constrained() || m.set == nil || !m.set.Ready() || m.surf == nil || !m.surf.Available() {
		return -1
	}
	idx := FrameIndex(p, m.set.Len())
	if idx < 0 {
		return -1
	}
	f := m.set.At(idx)
	if !f.Complete() {
		return -1
	}
	drawn, err := m.surf.Draw(f)
	if err != nil {
		m.log.Error("draw failed", "frame", f.Name, "err", err)
		return -1
	}
	if !drawn {
		return -1
	}
	return idx
}
