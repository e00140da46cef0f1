package system

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindLatestVideo(t *testing.T) {
	dir := t.TempDir()
	files := []string{"a.mp4", "b.webm", "c.txt"}
	for i, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		mod := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(path, mod, mod)
	}

	latest, err := FindLatestVideo(dir)
	if err != nil {
		t.Fatalf("FindLatestVideo: %v", err)
	}
	if filepath.Base(latest) != "b.webm" {
		t.Errorf("latest = %s, want b.webm", latest)
	}

	if _, err := FindLatestVideo(t.TempDir()); err == nil {
		t.Error("expected error for directory without videos")
	}
}

func TestParseDuration(t *testing.T) {
	got, err := ParseDuration("15.015000\n")
	if err != nil || got != 15.015 {
		t.Errorf("ParseDuration = %v, %v", got, err)
	}
	if _, err := ParseDuration("N/A"); err == nil {
		t.Error("expected error for N/A")
	}
}

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		listing string
		want    string
	}{
		{" V....D h264_videotoolbox  VideoToolbox H.264 Encoder", "h264_videotoolbox"},
		{" V....D h264_nvenc  NVIDIA NVENC H.264 encoder", "h264_nvenc"},
		{" V....D libx264  libx264 H.264", "libx264"},
	}
	for _, tt := range tests {
		if got := pickEncoder(tt.listing); got != tt.want {
			t.Errorf("pickEncoder(%q) = %s, want %s", tt.listing, got, tt.want)
		}
	}
}

func TestToRGBA(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 3, 2))
	got, pooled := ToRGBA(rgba)
	if got != rgba || pooled {
		t.Error("packed RGBA should pass through untouched")
	}

	gray := image.NewGray(image.Rect(2, 2, 5, 4))
	gray.SetGray(2, 2, color.Gray{Y: 200})
	got, pooled = ToRGBA(gray)
	if !pooled {
		t.Error("gray image should be converted through the pool")
	}
	if got.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("bounds = %v, want zero-origin 3x2", got.Bounds())
	}
	if c := got.RGBAAt(0, 0); c.R != 200 || c.A != 255 {
		t.Errorf("pixel = %v, want gray 200", c)
	}
	PutImage(got)
}

func TestFrameSetBudget(t *testing.T) {
	n := FrameSetBytes(65, 1920, 1080)
	if n != 65*1920*1080*4 {
		t.Errorf("FrameSetBytes = %d", n)
	}
	p := HostProfile{AvailableMemory: 2 * n}
	if !p.Fits(n) {
		t.Error("set using half the available memory should fit")
	}
	p.AvailableMemory = n
	if p.Fits(n) {
		t.Error("set using all available memory should not fit")
	}
}
