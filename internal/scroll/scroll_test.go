package scroll

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"testing"

	"github.com/ivlev/scrollframe/internal/frames"
	"github.com/ivlev/scrollframe/internal/gpu"
	"github.com/ivlev/scrollframe/internal/gpu/soft"
	"github.com/ivlev/scrollframe/internal/surface"
)

func TestFrameIndex(t *testing.T) {
	tests := []struct {
		progress float64
		n        int
		want     int
	}{
		{0, 65, 0},
		{1, 65, 64},
		{0.5, 65, 32},
		{0.2, 65, 12},
		{0.75, 65, 48},
		{0.999, 65, 63},
		{-0.05, 65, 0},
		{1.08, 65, 64},
		{0.5, 1, 0},
		{1, 1, 0},
		{0.5, 0, -1},
		{math.NaN(), 65, -1},
		{math.Inf(1), 65, -1},
		{1e300, 65, 64},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%d", tt.progress, tt.n), func(t *testing.T) {
			if got := FrameIndex(tt.progress, tt.n); got != tt.want {
				t.Errorf("FrameIndex(%v, %d) = %d, want %d", tt.progress, tt.n, got, tt.want)
			}
		})
	}
}

func TestFrameIndexMatchesFloorOverUnitInterval(t *testing.T) {
	const n = 65
	for i := 0; i <= 1000; i++ {
		p := float64(i) / 1000
		want := int(math.Floor(p * (n - 1)))
		if got := FrameIndex(p, n); got != want {
			t.Fatalf("FrameIndex(%v) = %d, want %d", p, got, want)
		}
	}
}

func TestCoalescerKeepsLatest(t *testing.T) {
	var c Coalescer
	if _, ok := c.Take(); ok {
		t.Fatal("empty coalescer returned a value")
	}
	c.Push(0.1)
	c.Push(0.2)
	c.Push(0.3)
	p, ok := c.Take()
	if !ok || p != 0.3 {
		t.Errorf("Take() = %v, %v; want 0.3", p, ok)
	}
	if _, ok := c.Take(); ok {
		t.Error("slot not emptied by Take")
	}
	if c.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", c.Dropped())
	}
}

type imageSource struct{ fail map[int]bool }

func (imageSource) Name(seq int) string { return fmt.Sprintf("frame_%03d.jpg", seq) }
func (s imageSource) Frame(_ context.Context, seq int) (image.Image, error) {
	if s.fail[seq] {
		return nil, errors.New("404")
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}
func (imageSource) Close() error { return nil }

func loadedSet(t *testing.T, n int) *frames.Set {
	t.Helper()
	set := frames.NewSet(n)
	if err := frames.NewLoader(imageSource{}).Load(context.Background(), set); err != nil {
		t.Fatal(err)
	}
	return set
}

func newSurface(t *testing.T) (*surface.Manager, *soft.Device) {
	t.Helper()
	var f soft.Factory
	m, err := surface.New(f.Provide, gpu.DefaultAttributes(), 32, 18)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Close() })
	return m, f.Last()
}

func TestMapperDrawsSelectedFrames(t *testing.T) {
	surf, dev := newSurface(t)
	m := NewMapper(loadedSet(t, 65), surf, nil)

	var got []int
	for _, p := range []float64{0.0, 0.2, 0.75, 1.0} {
		got = append(got, m.OnProgress(p))
	}

	want := []int{0, 12, 48, 64}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indices = %v, want %v", got, want)
		}
	}
	if dev.Stats().Draws != 4 {
		t.Errorf("draws = %d, want 4", dev.Stats().Draws)
	}
}

func TestMapperDropsUntilReady(t *testing.T) {
	surf, dev := newSurface(t)
	set := frames.NewSet(5)
	m := NewMapper(set, surf, nil)

	for _, p := range []float64{0, 0.5, 1} {
		if idx := m.OnProgress(p); idx != -1 {
			t.Errorf("OnProgress(%v) = %d before ready", p, idx)
		}
	}

	err := frames.NewLoader(imageSource{fail: map[int]bool{3: true}}).Load(context.Background(), set)
	if !errors.Is(err, frames.ErrIncomplete) {
		t.Fatalf("Load err = %v", err)
	}
	if idx := m.OnProgress(0); idx != -1 {
		t.Errorf("drew %d from an incomplete set", idx)
	}
	if dev.Stats().Draws != 0 {
		t.Errorf("draws = %d, want 0", dev.Stats().Draws)
	}
}

func TestMapperRespectsConstrained(t *testing.T) {
	surf, dev := newSurface(t)
	constrained := false
	m := NewMapper(loadedSet(t, 3), surf, func() bool { return constrained })

	if m.OnProgress(0.5) != 1 {
		t.Fatal("expected a draw while unconstrained")
	}
	constrained = true
	if m.OnProgress(1) != -1 {
		t.Error("drew while constrained")
	}
	if dev.Stats().Draws != 1 {
		t.Errorf("draws = %d, want 1", dev.Stats().Draws)
	}
}

func TestMapperWithoutSurface(t *testing.T) {
	m := NewMapper(loadedSet(t, 3), nil, nil)
	if m.OnProgress(0.5) != -1 {
		t.Error("drew without a surface")
	}

	var closed *surface.Manager
	m = NewMapper(loadedSet(t, 3), closed, nil)
	if m.OnProgress(0.5) != -1 {
		t.Error("drew on a nil surface manager")
	}
}
