package source

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// Source yields the still images of a frame sequence by 1-based sequence number.
type Source interface {
	Name(seq int) string
	Frame(ctx context.Context, seq int) (image.Image, error)
	Close() error
}

// Counter is implemented by sources that know how many frames they hold.
type Counter interface {
	Count() int
}

// FrameName renders the asset name of frame seq, e.g. frame_%03d.jpg -> frame_007.jpg.
func FrameName(template string, seq int) string {
	return fmt.Sprintf(template, seq)
}

// New picks a source implementation from base: http(s) URLs are fetched,
// .pdf files are rasterized page by page, anything else is a directory.
func New(base, template string, timeout time.Duration) (Source, error) {
	switch {
	case IsURL(base):
		return NewHTTPSource(base, template, timeout), nil
	case strings.HasSuffix(strings.ToLower(base), ".pdf"):
		return NewPDFSource(base, DefaultPDFDPI)
	default:
		return NewDirSource(base, template)
	}
}

// Open loads a single image, such as the poster, from a file path or URL.
func Open(ctx context.Context, location string, timeout time.Duration) (image.Image, error) {
	if IsURL(location) {
		return fetch(ctx, &http.Client{Timeout: timeout}, location)
	}
	f, err := os.Open(location)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f, location)
}

// IsURL reports whether s is an http(s) location.
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func decode(r io.Reader, name string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}
