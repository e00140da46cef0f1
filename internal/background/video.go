package background

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ivlev/scrollframe/internal/logging"
)

// Player is a seekable video. Times are in seconds.
type Player interface {
	// Duration is zero until the video's metadata is known.
	Duration() float64
	CurrentTime() float64
	Seek(t float64) error
	Close() error
}

// PlayerFunc opens a player for a w x h viewport.
type PlayerFunc func(ctx context.Context, w, h int) (Player, error)

const (
	DefaultThrottle      = 16 * time.Millisecond
	DefaultSeekThreshold = 0.1
)

// VideoSeek maps scroll progress onto a video's timeline.
type VideoSeek struct {
	open      PlayerFunc
	throttle  time.Duration
	threshold float64
	now       func() time.Time
	log       *slog.Logger

	player Player
	last   time.Time
}

func NewVideoSeek(open PlayerFunc, throttle time.Duration, threshold float64) *VideoSeek {
	if throttle <= 0 {
		throttle = DefaultThrottle
	}
	if threshold <= 0 {
		threshold = DefaultSeekThreshold
	}
	return &VideoSeek{
		open:      open,
		throttle:  throttle,
		threshold: threshold,
		now:       time.Now,
		log:       logging.For("video"),
	}
}

func (v *VideoSeek) Start(ctx context.Context, w, h int) error {
	p, err := v.open(ctx, w, h)
	if err != nil {
		return fmt.Errorf("video seek: %w", err)
	}
	v.player = p
	v.last = time.Time{}
	return nil
}

func (v *VideoSeek) Ready() bool {
	if v.player == nil {
		return false
	}
	d := v.player.Duration()
	return d > 0 && !math.IsInf(d, 0)
}

// Present seeks to progress of the duration. Calls closer together than the
// throttle interval are skipped, as are targets within the seek threshold of
// the current position.
func (v *VideoSeek) Present(progress float64) bool {
	if v.player == nil {
		return false
	}
	now := v.now()
	if !v.last.IsZero() && now.Sub(v.last) < v.throttle {
		return false
	}
	v.last = now

	target := progress * v.player.Duration()
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return false
	}
	if math.Abs(v.player.CurrentTime()-target) <= v.threshold {
		return false
	}
	if err := v.player.Seek(target); err != nil {
		v.log.Error("seek failed", "target", target, "err", err)
		return false
	}
	return true
}

type resizer interface {
	Resize(w, h int)
}

func (v *VideoSeek) Resize(w, h int) {
	if r, ok := v.player.(resizer); ok {
		r.Resize(w, h)
	}
}

func (v *VideoSeek) Close() error {
	if v.player == nil {
		return nil
	}
	err := v.player.Close()
	v.player = nil
	return err
}
