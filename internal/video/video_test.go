package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ivlev/scrollframe/internal/config"
	"github.com/ivlev/scrollframe/internal/surface"
)

func TestBuildReencodeArgs(t *testing.T) {
	tests := []struct {
		name string
		p    config.ReencodeParams
		want []string
	}{
		{
			name: "libx264",
			p:    config.ReencodeParams{Input: "in.mp4", Output: "out.mp4", Quality: 23},
			want: []string{"-i", "in.mp4", "-c:v", "libx264", "-g", "1", "-an",
				"-preset", "ultrafast", "-crf", "23", "-movflags", "+faststart", "-y", "out.mp4"},
		},
		{
			name: "videotoolbox",
			p:    config.ReencodeParams{Input: "in.mp4", Output: "out.mp4", Encoder: "h264_videotoolbox", Quality: 75},
			want: []string{"-i", "in.mp4", "-c:v", "h264_videotoolbox", "-g", "1", "-an",
				"-b:v", "7500k", "-movflags", "+faststart", "-y", "out.mp4"},
		},
		{
			name: "nvenc",
			p:    config.ReencodeParams{Input: "a", Output: "b", Encoder: "h264_nvenc", Quality: 28},
			want: []string{"-i", "a", "-c:v", "h264_nvenc", "-g", "1", "-an",
				"-cq", "28", "-movflags", "+faststart", "-y", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildReencodeArgs(tt.p); !slices.Equal(got, tt.want) {
				t.Errorf("args = %v\nwant   %v", got, tt.want)
			}
		})
	}
}

func TestBuildExtractArgs(t *testing.T) {
	got := buildExtractArgs(config.ExtractParams{
		Input: "v.mp4", OutputDir: "public/frames", Template: "frame_%03d.jpg", Step: 7, Quality: 0,
	})
	want := []string{"-y", "-i", "v.mp4", "-vf", `select=not(mod(n\,7))`, "-fps_mode", "vfr",
		"-q:v", "2", "-start_number", "1", filepath.Join("public/frames", "frame_%03d.jpg")}
	if !slices.Equal(got, want) {
		t.Errorf("args = %v\nwant   %v", got, want)
	}
}

func TestFramesFor(t *testing.T) {
	tests := []struct{ total, step, want int }{
		{450, 7, 65},
		{450, 1, 450},
		{10, 0, 10},
		{0, 7, 0},
	}
	for _, tt := range tests {
		if got := FramesFor(tt.total, tt.step); got != tt.want {
			t.Errorf("FramesFor(%d, %d) = %d, want %d", tt.total, tt.step, got, tt.want)
		}
	}
}

func TestCountFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame_001.jpg", "frame_002.jpg", "frame_004.jpg"} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
	}
	if got := countFrames(dir, "frame_%03d.jpg"); got != 2 {
		t.Errorf("countFrames = %d, want 2", got)
	}
}

func TestBuildDecodeArgs(t *testing.T) {
	got := buildDecodeArgs("v.mp4", 1.25, 1280, 720)
	want := []string{"-v", "error", "-ss", "1.250", "-i", "v.mp4", "-frames:v", "1",
		"-vf", "scale=1280:720:force_original_aspect_ratio=increase,crop=1280:720",
		"-f", "rawvideo", "-pix_fmt", "rgba", "-"}
	if !slices.Equal(got, want) {
		t.Errorf("args = %v\nwant   %v", got, want)
	}
}

type recordingSurface struct {
	draws  int
	w, h   int
	closed int
}

func (s *recordingSurface) Draw(f surface.Frame) (bool, error) {
	if !f.Complete() {
		return false, nil
	}
	s.draws++
	return true, nil
}
func (s *recordingSurface) Resize(w, h int) { s.w, s.h = w, h }
func (s *recordingSurface) Close() error    { s.closed++; return nil }

func TestPlayerSeek(t *testing.T) {
	var asked []float64
	decode := func(_ context.Context, _ string, at float64, w, h int) (*image.RGBA, error) {
		asked = append(asked, at)
		if at == 3 {
			return nil, errors.New("corrupt packet")
		}
		return image.NewRGBA(image.Rect(0, 0, w, h)), nil
	}
	surf := &recordingSurface{}
	p := newPlayer(context.Background(), "v.mp4", surf, 4, 4, 10, decode)

	if err := p.Seek(2.5); err != nil {
		t.Fatal(err)
	}
	if p.CurrentTime() != 2.5 || surf.draws != 1 {
		t.Errorf("current = %v draws = %d", p.CurrentTime(), surf.draws)
	}
	if err := p.Seek(3); err == nil {
		t.Error("expected decode error")
	}
	if p.CurrentTime() != 2.5 {
		t.Errorf("failed seek moved current time to %v", p.CurrentTime())
	}
	if err := p.Seek(42); err != nil {
		t.Fatal(err)
	}
	if p.CurrentTime() != 10 {
		t.Errorf("seek past end = %v, want clamped to 10", p.CurrentTime())
	}

	p.Resize(8, 6)
	if surf.w != 8 || surf.h != 6 {
		t.Errorf("surface size = %dx%d", surf.w, surf.h)
	}
	p.Close()
	if surf.closed != 1 {
		t.Errorf("surface closed %d times", surf.closed)
	}
	if !slices.Equal(asked, []float64{2.5, 3, 10}) {
		t.Errorf("decoded at %v", asked)
	}
}

func TestBuildClipArgs(t *testing.T) {
	got := buildClipArgs(ClipParams{Output: "clip.mp4", Width: 1280, Height: 720, FPS: 30, Quality: 23})
	want := []string{"-y", "-f", "rawvideo", "-pixel_format", "rgba", "-video_size", "1280x720",
		"-framerate", "30", "-i", "-", "-pix_fmt", "yuv420p", "-c:v", "libx264",
		"-crf", "23", "-preset", "medium", "-movflags", "+faststart", "clip.mp4"}
	if !slices.Equal(got, want) {
		t.Errorf("args = %v\nwant   %v", got, want)
	}
}

func TestWriteRawRGBA(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	img.Pix[3], img.Pix[7] = 255, 255
	if err := writeRawRGBA(&buf, img); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2*1*4 {
		t.Errorf("wrote %d bytes, want 8", buf.Len())
	}
}
