package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/ivlev/scrollframe/internal/background"
	"github.com/ivlev/scrollframe/internal/director"
	"github.com/ivlev/scrollframe/internal/gpu"
	"github.com/ivlev/scrollframe/internal/gpu/soft"
	"github.com/ivlev/scrollframe/internal/viewport"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

type redSource struct{}

func (redSource) Name(seq int) string { return fmt.Sprintf("frame_%03d.jpg", seq) }
func (redSource) Frame(ctx context.Context, seq int) (image.Image, error) {
	return solid(red), nil
}
func (redSource) Close() error { return nil }

type recordingSink struct {
	frames []image.Image
	failAt int
	err    error
}

func (s *recordingSink) WriteFrame(img image.Image) error {
	if s.err != nil && len(s.frames) == s.failAt {
		return s.err
	}
	s.frames = append(s.frames, img)
	return nil
}

func scenario() *director.Scenario {
	return &director.Scenario{
		Version:  "1.0",
		Duration: 1,
		FPS:      10,
		Width:    32,
		Height:   16,
		Keyframes: []director.Keyframe{
			{Time: 0, Progress: 0},
			{Time: 1, Progress: 1},
		},
	}
}

func newProject(t *testing.T, provider gpu.Provider, f *soft.Factory) (*ClipProject, *background.Background) {
	t.Helper()
	seq := background.NewFrameSequence(redSource{}, 3, provider, gpu.DefaultAttributes())
	bg := background.New(seq, background.Options{Breakpoint: 16})
	bg.Mount(context.Background(), viewport.Size{Width: 32, Height: 16})
	t.Cleanup(func() { bg.Unmount() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := seq.Wait(ctx); err != nil {
		t.Fatalf("frames: %v", err)
	}

	canvas := func() image.Image {
		if dev := f.Last(); dev != nil {
			return dev.Canvas()
		}
		return nil
	}
	p := NewClipProject(scenario(), bg, canvas)
	p.Poster = solid(blue)
	p.Overlay = 0
	p.Workers = 3
	return p, bg
}

func TestRunWritesEveryFrameInOrder(t *testing.T) {
	f := &soft.Factory{}
	p, bg := newProject(t, f.Provide, f)
	if bg.State() != background.Ready {
		t.Fatalf("state = %s, want ready", bg.State())
	}

	sink := &recordingSink{}
	if err := p.Run(context.Background(), sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.frames) != 10 {
		t.Fatalf("wrote %d frames, want 10", len(sink.frames))
	}
	for i, img := range sink.frames {
		if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
			t.Fatalf("frame %d bounds = %v", i, b)
		}
	}

	// The poster fades out over the first frames while the canvas fades in.
	r, _, b, _ := sink.frames[0].At(16, 8).RGBA()
	if b <= r {
		t.Errorf("first frame r=%d b=%d, want mostly poster", r>>8, b>>8)
	}
	r, _, b, _ = sink.frames[9].At(16, 8).RGBA()
	if r>>8 < 240 || b>>8 > 15 {
		t.Errorf("last frame r=%d b=%d, want the red canvas", r>>8, b>>8)
	}
}

func TestRunKeepsPosterWithoutGPU(t *testing.T) {
	f := &soft.Factory{}
	p, bg := newProject(t, gpu.Unavailable, f)
	if bg.State() != background.Degraded {
		t.Fatalf("state = %s, want degraded", bg.State())
	}

	sink := &recordingSink{}
	if err := p.Run(context.Background(), sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, img := range sink.frames {
		if r, _, b, _ := img.At(16, 8).RGBA(); b>>8 < 240 || r>>8 > 15 {
			t.Fatalf("frame %d r=%d b=%d, want the poster", i, r>>8, b>>8)
		}
	}
}

func TestRunStopsOnSinkError(t *testing.T) {
	f := &soft.Factory{}
	p, _ := newProject(t, f.Provide, f)

	errDisk := errors.New("disk full")
	sink := &recordingSink{failAt: 3, err: errDisk}
	err := p.Run(context.Background(), sink)
	if !errors.Is(err, errDisk) {
		t.Fatalf("Run err = %v, want %v", err, errDisk)
	}
	if len(sink.frames) != 3 {
		t.Errorf("wrote %d frames before failing, want 3", len(sink.frames))
	}
}

func TestRunRejectsInvalidScenario(t *testing.T) {
	f := &soft.Factory{}
	p, _ := newProject(t, f.Provide, f)
	p.Scenario.FPS = 0
	if err := p.Run(context.Background(), &recordingSink{}); err == nil {
		t.Error("expected an error for a scenario without fps")
	}
}
