package background

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ivlev/scrollframe/internal/frames"
	"github.com/ivlev/scrollframe/internal/gpu"
	"github.com/ivlev/scrollframe/internal/logging"
	"github.com/ivlev/scrollframe/internal/scroll"
	"github.com/ivlev/scrollframe/internal/source"
	"github.com/ivlev/scrollframe/internal/surface"
)

// FrameSequence scrubs through a preloaded set of still frames drawn on a GPU surface.
type FrameSequence struct {
	src      source.Source
	count    int
	provider gpu.Provider
	attrs    gpu.ContextAttributes
	log      *slog.Logger

	set     *frames.Set
	surf    *surface.Manager
	mapper  *scroll.Mapper
	load    *load
	current int
}

// load is the outcome of one mount's loader. A loader left running by an
// earlier mount only ever writes to its own load.
type load struct {
	done chan struct{}
	err  error
}

func NewFrameSequence(src source.Source, count int, provider gpu.Provider, attrs gpu.ContextAttributes) *FrameSequence {
	return &FrameSequence{
		src:      src,
		count:    count,
		provider: provider,
		attrs:    attrs,
		log:      logging.For("sequence"),
		current:  -1,
	}
}

// Start begins loading every frame in the background and sets up the surface.
// Loading proceeds whether or not the surface comes up.
func (s *FrameSequence) Start(ctx context.Context, w, h int) error {
	set := frames.NewSet(s.count)
	l := &load{done: make(chan struct{})}
	s.set, s.load, s.current = set, l, -1
	set.OnReady(func() { s.log.Info("frame set ready", "frames", set.Len()) })

	go func() {
		defer close(l.done)
		l.err = frames.NewLoader(s.src).Load(context.WithoutCancel(ctx), set)
		if l.err != nil {
			s.log.Warn("frame sequence will not animate", "err", l.err)
		}
	}()

	surf, err := surface.New(s.provider, s.attrs, w, h)
	s.surf = surf
	if err != nil {
		return fmt.Errorf("frame sequence: %w", err)
	}
	s.mapper = scroll.NewMapper(set, surf, nil)
	return nil
}

func (s *FrameSequence) Ready() bool {
	return s.set != nil && s.set.Ready() && s.surf.Available()
}

func (s *FrameSequence) Present(progress float64) bool {
	if s.mapper == nil {
		return false
	}
	idx := s.mapper.OnProgress(progress)
	if idx < 0 {
		return false
	}
	s.current = idx
	return true
}

func (s *FrameSequence) Resize(w, h int) {
	s.surf.Resize(w, h)
}

func (s *FrameSequence) Close() error {
	s.mapper = nil
	return s.surf.Close()
}

// Wait blocks until the loader of the current mount has settled and returns its result.
func (s *FrameSequence) Wait(ctx context.Context) error {
	l := s.load
	if l == nil {
		return nil
	}
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count is the number of frames each mount loads.
func (s *FrameSequence) Count() int { return s.count }

func (s *FrameSequence) Frames() *frames.Set       { return s.set }
func (s *FrameSequence) Surface() *surface.Manager { return s.surf }

// Current is the index of the last frame drawn, or -1.
func (s *FrameSequence) Current() int { return s.current }
