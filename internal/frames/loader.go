package frames

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scrollframe/internal/logging"
	"github.com/ivlev/scrollframe/internal/source"
)

type Loader struct {
	src source.Source
	log *slog.Logger
}

func NewLoader(src source.Source) *Loader {
	return &Loader{src: src, log: logging.For("frames")}
}

// Load fetches every frame of s in parallel and waits for all of them to settle.
// Failures are logged and never retried; they leave s not-ready and Load then
// returns an error wrapping ErrIncomplete.
func (l *Loader) Load(ctx context.Context, s *Set) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	for _, f := range s.frames {
		f.Name = l.src.Name(f.Seq)
	}

	var g errgroup.Group
	for _, f := range s.frames {
		g.Go(func() error {
			img, err := l.src.Frame(ctx, f.Seq)
			if err != nil {
				l.log.Error("failed to load frame", "name", f.Name, "err", err)
				f.fail(err)
				return nil
			}
			f.complete(img)
			s.frameLoaded()
			return nil
		})
	}
	g.Wait()

	if !s.Ready() {
		return fmt.Errorf("%w: %d/%d frames loaded", ErrIncomplete, s.Loaded(), s.Len())
	}
	l.log.Debug("frame set ready", "frames", s.Len())
	return nil
}
