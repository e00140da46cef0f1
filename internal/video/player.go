package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"

	"github.com/ivlev/scrollframe/internal/surface"
	"github.com/ivlev/scrollframe/internal/system"
)

// Surface is where a Player shows the decoded frame.
type Surface interface {
	Draw(f surface.Frame) (bool, error)
	Resize(w, h int)
	Close() error
}

type decodeFunc func(ctx context.Context, path string, t float64, w, h int) (*image.RGBA, error)

// Player seeks a video file by decoding the single frame at the requested time.
type Player struct {
	ctx      context.Context
	path     string
	surf     Surface
	decode   decodeFunc
	duration float64
	current  float64
	w, h     int
}

// Open probes path for its duration and returns a player drawing onto surf.
// The player owns surf from then on.
func Open(ctx context.Context, path string, surf Surface, w, h int) (*Player, error) {
	d, err := system.ProbeDuration(ctx, path)
	if err != nil {
		return nil, err
	}
	return newPlayer(ctx, path, surf, w, h, d, decodeFrame), nil
}

func newPlayer(ctx context.Context, path string, surf Surface, w, h int, duration float64, decode decodeFunc) *Player {
	return &Player{ctx: ctx, path: path, surf: surf, decode: decode, duration: duration, w: w, h: h}
}

func (p *Player) Duration() float64    { return p.duration }
func (p *Player) CurrentTime() float64 { return p.current }

// Seek decodes the frame at t seconds and draws it.
func (p *Player) Seek(t float64) error {
	t = max(0, min(t, p.duration))
	img, err := p.decode(p.ctx, p.path, t, p.w, p.h)
	if err != nil {
		return err
	}
	defer system.PutImage(img)

	if _, err := p.surf.Draw(still{img}); err != nil {
		return err
	}
	p.current = t
	return nil
}

func (p *Player) Resize(w, h int) {
	p.w, p.h = w, h
	p.surf.Resize(w, h)
}

func (p *Player) Close() error {
	return p.surf.Close()
}

type still struct{ img image.Image }

func (s still) Complete() bool     { return s.img != nil }
func (s still) Image() image.Image { return s.img }

func decodeFrame(ctx context.Context, path string, t float64, w, h int) (*image.RGBA, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", buildDecodeArgs(path, t, w, h)...)
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	img := system.GetImage(image.Rect(0, 0, w, h))
	_, readErr := io.ReadFull(stdout, img.Pix)
	waitErr := cmd.Wait()
	if readErr != nil || waitErr != nil {
		system.PutImage(img)
		return nil, fmt.Errorf("decode %s at %.3fs: read %v, wait %v: %s", path, t, readErr, waitErr, tail(stderr.Bytes()))
	}
	return img, nil
}

// buildDecodeArgs asks for one frame at t, scaled to cover w x h and cropped
// to it, as raw RGBA on stdout.
func buildDecodeArgs(path string, t float64, w, h int) []string {
	return []string{
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", t),
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", w, h, w, h),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}
}
