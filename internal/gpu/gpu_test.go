package gpu

import (
	"image"
	"slices"
	"testing"
)

func TestViewportRect(t *testing.T) {
	tests := []struct {
		x, y, w, h, ch int
		want           image.Rectangle
	}{
		{0, 0, 100, 50, 50, image.Rect(0, 0, 100, 50)},
		{0, 0, 10, 10, 20, image.Rect(0, 10, 10, 20)},
		{5, 10, 10, 10, 20, image.Rect(5, 0, 15, 10)},
	}
	for _, tt := range tests {
		if got := ViewportRect(tt.x, tt.y, tt.w, tt.h, tt.ch); got != tt.want {
			t.Errorf("ViewportRect(%d,%d,%d,%d,%d) = %v, want %v", tt.x, tt.y, tt.w, tt.h, tt.ch, got, tt.want)
		}
	}
}

func TestClipToPixel(t *testing.T) {
	vp := image.Rect(10, 20, 110, 70)
	tests := []struct {
		cx, cy float32
		px, py float32
	}{
		{-1, 1, 10, 20},
		{1, -1, 110, 70},
		{0, 0, 60, 45},
		{-1, -1, 10, 70},
	}
	for _, tt := range tests {
		px, py := ClipToPixel(tt.cx, tt.cy, vp)
		if px != tt.px || py != tt.py {
			t.Errorf("ClipToPixel(%v, %v) = %v, %v; want %v, %v", tt.cx, tt.cy, px, py, tt.px, tt.py)
		}
	}
}

func TestClipToTexelFlipsVertically(t *testing.T) {
	// The top-left corner of the quad samples the first image row.
	if u, v := ClipToTexel(-1, 1, 64, 32); u != 0 || v != 0 {
		t.Errorf("top-left = %v, %v", u, v)
	}
	if u, v := ClipToTexel(1, -1, 64, 32); u != 64 || v != 32 {
		t.Errorf("bottom-right = %v, %v", u, v)
	}
}

func TestStripIndices(t *testing.T) {
	if got := StripIndices(0, 4); !slices.Equal(got, []uint16{0, 1, 2, 1, 2, 3}) {
		t.Errorf("StripIndices(0, 4) = %v", got)
	}
	if got := StripIndices(2, 3); !slices.Equal(got, []uint16{2, 3, 4}) {
		t.Errorf("StripIndices(2, 3) = %v", got)
	}
	if got := StripIndices(0, 2); got != nil {
		t.Errorf("StripIndices(0, 2) = %v, want nil", got)
	}
}

func TestUnavailableProvider(t *testing.T) {
	d, err := Unavailable(DefaultAttributes(), 1, 1)
	if d != nil || err != ErrUnavailable {
		t.Errorf("Unavailable() = %v, %v", d, err)
	}
}
