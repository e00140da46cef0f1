package gpu

import "image"

// ViewportRect converts a GL viewport, whose origin is the bottom-left corner,
// into a top-down rectangle on a drawing buffer canvasHeight pixels tall.
func ViewportRect(x, y, w, h, canvasHeight int) image.Rectangle {
	return image.Rect(x, canvasHeight-y-h, x+w, canvasHeight-y)
}

// ClipToPixel maps a clip-space position onto vp, a top-down pixel rectangle.
func ClipToPixel(cx, cy float32, vp image.Rectangle) (float32, float32) {
	return float32(vp.Min.X) + (cx+1)/2*float32(vp.Dx()),
		float32(vp.Min.Y) + (1-cy)/2*float32(vp.Dy())
}

// ClipToTexel maps a clip-space position onto a w x h image stored top row
// first, through texture coordinates position*0.5+0.5 with the vertical axis
// flipped. The result is in pixels.
func ClipToTexel(cx, cy float32, w, h int) (float32, float32) {
	u, v := cx*0.5+0.5, cy*0.5+0.5
	return u * float32(w), (1 - v) * float32(h)
}

// StripIndices triangulates a triangle strip of count vertices starting at first.
func StripIndices(first, count int) []uint16 {
	if count < 3 {
		return nil
	}
	idx := make([]uint16, 0, (count-2)*3)
	for i := first; i+2 < first+count; i++ {
		idx = append(idx, uint16(i), uint16(i+1), uint16(i+2))
	}
	return idx
}
