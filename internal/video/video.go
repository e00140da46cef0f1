// Package video prepares and plays the video assets behind the background:
// a keyframe-per-frame re-encode for smooth seeking, still-frame extraction
// for the frame sequence and a seekable player for the video variant.
package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ivlev/scrollframe/internal/config"
	"github.com/ivlev/scrollframe/internal/logging"
	"github.com/ivlev/scrollframe/internal/source"
)

type Transcoder interface {
	Reencode(ctx context.Context, p config.ReencodeParams) error
	ExtractFrames(ctx context.Context, p config.ExtractParams) (int, error)
}

// FFmpeg runs the ffmpeg binary found on PATH.
type FFmpeg struct{}

// Reencode rewrites p.Input with a keyframe on every frame and no audio, so
// that any seek lands on a keyframe.
func (FFmpeg) Reencode(ctx context.Context, p config.ReencodeParams) error {
	args := buildReencodeArgs(p)
	logging.For("video").Debug("reencode", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg reencode error: %v, output: %s", err, tail(out))
	}
	return nil
}

func buildReencodeArgs(p config.ReencodeParams) []string {
	encoder := p.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args := []string{
		"-i", p.Input,
		"-c:v", encoder,
		"-g", "1",
		"-an",
	}

	switch encoder {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", p.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	default: // libx264
		args = append(args, "-preset", "ultrafast", "-crf", fmt.Sprintf("%d", p.Quality))
	}

	return append(args, "-movflags", "+faststart", "-y", p.Output)
}

// ExtractFrames decodes p.Input and writes every p.Step-th frame as a JPEG
// named by p.Template, numbered from 1. It returns how many frames were written.
func (FFmpeg) ExtractFrames(ctx context.Context, p config.ExtractParams) (int, error) {
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return 0, err
	}
	args := buildExtractArgs(p)
	logging.For("video").Debug("extract", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("ffmpeg extract error: %v, output: %s", err, tail(out))
	}
	return countFrames(p.OutputDir, p.Template), nil
}

func buildExtractArgs(p config.ExtractParams) []string {
	step := max(p.Step, 1)
	quality := p.Quality
	if quality < 2 || quality > 31 {
		quality = 2
	}
	return []string{
		"-y",
		"-i", p.Input,
		"-vf", fmt.Sprintf(`select=not(mod(n\,%d))`, step),
		"-fps_mode", "vfr",
		"-q:v", fmt.Sprintf("%d", quality),
		"-start_number", "1",
		filepath.Join(p.OutputDir, p.Template),
	}
}

// countFrames counts the consecutive frames present from number 1.
func countFrames(dir, template string) int {
	n := 0
	for {
		if _, err := os.Stat(filepath.Join(dir, source.FrameName(template, n+1))); err != nil {
			return n
		}
		n++
	}
}

// FramesFor is how many frames ExtractFrames keeps from a total-frame video.
func FramesFor(total, step int) int {
	if total <= 0 {
		return 0
	}
	step = max(step, 1)
	return (total + step - 1) / step
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 2000 {
		s = "..." + s[len(s)-2000:]
	}
	return s
}
