// Package compose stacks the background's layers into one picture: the
// poster scaled to cover the viewport, the animated layer above it and a
// darkening overlay on top.
package compose

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/gogpu/gg"
)

// DefaultOverlay is the alpha of the black overlay drawn over everything.
const DefaultOverlay = 0.4

// FadeDuration is how long a layer takes to go between fully hidden and fully shown.
const FadeDuration = 500 * time.Millisecond

type Layers struct {
	Poster        image.Image
	PosterOpacity float64
	// Canvas is the animated layer, already at viewport size.
	Canvas        image.Image
	CanvasOpacity float64
	Overlay       float64
}

// Render composites l onto a black w x h picture.
func Render(w, h int, l Layers) (image.Image, error) {
	dc, err := render(w, h, l)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// SavePNG renders l and writes it to path.
func SavePNG(path string, w, h int, l Layers) error {
	dc, err := render(w, h, l)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func render(w, h int, l Layers) (*gg.Context, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("compose: invalid size %dx%d", w, h)
	}
	dc := gg.NewContext(w, h)
	dc.ClearWithColor(gg.Black)

	if l.Poster != nil && l.PosterOpacity > 0 {
		x, y, dw, dh := Cover(l.Poster.Bounds().Dx(), l.Poster.Bounds().Dy(), w, h)
		dc.DrawImageEx(gg.ImageBufFromImage(l.Poster), gg.DrawImageOptions{
			X: x, Y: y, DstWidth: dw, DstHeight: dh,
			Opacity:       clamp01(l.PosterOpacity),
			Interpolation: gg.InterpBilinear,
		})
	}
	if l.Canvas != nil && l.CanvasOpacity > 0 {
		x, y, dw, dh := Cover(l.Canvas.Bounds().Dx(), l.Canvas.Bounds().Dy(), w, h)
		dc.DrawImageEx(gg.ImageBufFromImage(l.Canvas), gg.DrawImageOptions{
			X: x, Y: y, DstWidth: dw, DstHeight: dh,
			Opacity:       clamp01(l.CanvasOpacity),
			Interpolation: gg.InterpBilinear,
		})
	}
	if l.Overlay > 0 {
		dc.SetRGBA(0, 0, 0, clamp01(l.Overlay))
		dc.DrawRectangle(0, 0, float64(w), float64(h))
		if err := dc.Fill(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("compose overlay: %w", err)
		}
	}
	return dc, nil
}

// Cover scales a sw x sh source to fill a dw x dh box, preserving its aspect
// ratio and centring the overflow. It returns the destination rectangle.
func Cover(sw, sh, dw, dh int) (x, y, w, h float64) {
	if sw <= 0 || sh <= 0 {
		return 0, 0, float64(dw), float64(dh)
	}
	scale := math.Max(float64(dw)/float64(sw), float64(dh)/float64(sh))
	w, h = float64(sw)*scale, float64(sh)*scale
	return (float64(dw) - w) / 2, (float64(dh) - h) / 2, w, h
}

// Fade moves an opacity towards target at the rate of one full transition per
// FadeDuration.
func Fade(current, target float64, dt time.Duration) float64 {
	step := float64(dt) / float64(FadeDuration)
	if current < target {
		return math.Min(current+step, target)
	}
	return math.Max(current-step, target)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
