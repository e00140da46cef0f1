package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
)

// ClipParams describes a clip recorded from rendered frames.
type ClipParams struct {
	Output  string
	Width   int
	Height  int
	FPS     int
	Encoder string
	Quality int
}

// ClipWriter streams raw RGBA frames into an ffmpeg encoder.
type ClipWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    bytes.Buffer
	params ClipParams
	frames int
}

func NewClipWriter(ctx context.Context, p ClipParams) (*ClipWriter, error) {
	w := &ClipWriter{params: p}
	w.cmd = exec.CommandContext(ctx, "ffmpeg", buildClipArgs(p)...)
	w.cmd.Stdout = &w.out
	w.cmd.Stderr = &w.out

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	w.stdin = stdin
	if err := w.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return w, nil
}

// WriteFrame appends img, which must match the clip size.
func (w *ClipWriter) WriteFrame(img image.Image) error {
	if b := img.Bounds(); b.Dx() != w.params.Width || b.Dy() != w.params.Height {
		return fmt.Errorf("frame %dx%d does not match clip %dx%d", b.Dx(), b.Dy(), w.params.Width, w.params.Height)
	}
	if err := writeRawRGBA(w.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	w.frames++
	return nil
}

func (w *ClipWriter) Frames() int { return w.frames }

// Close finishes the stream and waits for the encoder.
func (w *ClipWriter) Close() error {
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %v, output: %s", err, tail(w.out.Bytes()))
	}
	return nil
}

func buildClipArgs(p ClipParams) []string {
	encoder := p.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", encoder,
	}

	switch encoder {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", p.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-preset", "medium")
	}

	return append(args, "-movflags", "+faststart", p.Output)
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
