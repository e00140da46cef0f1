// Package background is the scroll-synchronized visual background: a static
// poster that gives way to an animated layer once that layer is ready, on
// devices wide enough to afford it.
//
// The animated layer is a Strategy. FrameSequence scrubs through still frames
// on a GPU surface; VideoSeek seeks a video. Both share the gating below.
package background

import (
	"context"
	"log/slog"

	"github.com/ivlev/scrollframe/internal/logging"
	"github.com/ivlev/scrollframe/internal/scroll"
	"github.com/ivlev/scrollframe/internal/viewport"
)

type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Degraded
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	}
	return "unknown"
}

// Strategy is one way of rendering the animated layer.
type Strategy interface {
	// Start sets up the layer for a w x h viewport. An error is terminal for the mount.
	Start(ctx context.Context, w, h int) error
	Ready() bool
	// Present shows the content for progress and reports whether anything was drawn.
	Present(progress float64) bool
	Resize(w, h int)
	// Close releases everything Start acquired. It must be safe to call more than once.
	Close() error
}

type Options struct {
	Breakpoint int
	// Coalesce defers scroll events to Flush, presenting at most once per refresh.
	Coalesce bool
}

// Background is driven from a single host event loop: Mount, OnScroll,
// OnResize, Flush and Unmount must not be called concurrently.
type Background struct {
	strategy Strategy
	opts     Options
	log      *slog.Logger

	size     viewport.Size
	mounted  bool
	degraded bool
	pending  scroll.Coalescer
}

func New(strategy Strategy, opts Options) *Background {
	if opts.Breakpoint <= 0 {
		opts.Breakpoint = viewport.DefaultBreakpoint
	}
	return &Background{strategy: strategy, opts: opts, log: logging.For("background")}
}

// Mount starts the animated layer unless the viewport is constrained or the
// layer fails to start; either leaves the background degraded to its poster.
func (b *Background) Mount(ctx context.Context, size viewport.Size) {
	if b.mounted {
		return
	}
	b.mounted = true
	b.degraded = false
	b.size = size

	if size.Constrained(b.opts.Breakpoint) {
		b.log.Info("constrained viewport, showing poster", "width", size.Width)
		b.degraded = true
		return
	}
	if err := b.strategy.Start(ctx, size.Width, size.Height); err != nil {
		b.log.Error("animated background unavailable, showing poster", "err", err)
		b.degraded = true
		b.strategy.Close()
	}
}

// OnScroll handles one scroll-progress change.
func (b *Background) OnScroll(progress float64) {
	if b.opts.Coalesce {
		b.pending.Push(progress)
		return
	}
	b.present(progress)
}

// Flush presents the latest coalesced scroll progress. Hosts call it once per refresh.
func (b *Background) Flush() bool {
	p, ok := b.pending.Take()
	if !ok {
		return false
	}
	return b.present(p)
}

func (b *Background) present(progress float64) bool {
	if !b.mounted || b.degraded || b.size.Constrained(b.opts.Breakpoint) {
		return false
	}
	if !b.strategy.Ready() {
		return false
	}
	return b.strategy.Present(progress)
}

// OnResize follows the viewport. Crossing into the constrained range releases
// the animated layer for the rest of the mount.
func (b *Background) OnResize(size viewport.Size) {
	b.size = size
	if !b.mounted || b.degraded {
		return
	}
	if size.Constrained(b.opts.Breakpoint) {
		b.log.Info("viewport became constrained, falling back to poster", "width", size.Width)
		b.degraded = true
		if err := b.strategy.Close(); err != nil {
			b.log.Warn("release animated layer", "err", err)
		}
		return
	}
	b.strategy.Resize(size.Width, size.Height)
}

// Unmount releases the animated layer and returns to Uninitialized.
func (b *Background) Unmount() error {
	if !b.mounted {
		return nil
	}
	b.mounted = false
	b.degraded = false
	b.pending.Take()
	return b.strategy.Close()
}

// Coalesced returns how many scroll updates were superseded before a Flush.
func (b *Background) Coalesced() int {
	return b.pending.Dropped()
}

func (b *Background) State() State {
	switch {
	case !b.mounted:
		return Uninitialized
	case b.degraded:
		return Degraded
	case b.strategy.Ready():
		return Ready
	}
	return Loading
}

// PosterOpacity is 1 while the poster must cover the animated layer.
func (b *Background) PosterOpacity() float64 {
	if b.State() == Ready {
		return 0
	}
	return 1
}

// CanvasOpacity is 1 once the animated layer is ready to be seen.
func (b *Background) CanvasOpacity() float64 {
	return 1 - b.PosterOpacity()
}

// Attach subscribes b to the scroll and viewport collaborators. The returned
// function cancels both subscriptions.
func Attach(b *Background, progress *scroll.Signal, vp *viewport.Signal) func() {
	cancelScroll := progress.Subscribe(b.OnScroll)
	cancelResize := vp.Subscribe(b.OnResize)
	return func() {
		cancelScroll()
		cancelResize()
	}
}
