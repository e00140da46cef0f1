package source

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImageSource serves every image of a directory in lexical order, so a
// zero-padded frame_001..frame_NNN listing maps straight onto sequence numbers.
type ImageSource struct {
	paths []string
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".jpg", ".jpeg", ".png", ".webp":
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) Count() int {
	return len(s.paths)
}

func (s *ImageSource) Name(seq int) string {
	if seq < 1 || seq > len(s.paths) {
		return fmt.Sprintf("#%d", seq)
	}
	return filepath.Base(s.paths[seq-1])
}

// Dimensions reports the size of frame seq without decoding its pixels.
func (s *ImageSource) Dimensions(seq int) (int, int, error) {
	if seq < 1 || seq > len(s.paths) {
		return 0, 0, fmt.Errorf("frame %d out of range 1..%d", seq, len(s.paths))
	}
	f, err := os.Open(s.paths[seq-1])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func (s *ImageSource) Frame(ctx context.Context, seq int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seq < 1 || seq > len(s.paths) {
		return nil, fmt.Errorf("frame %d out of range 1..%d", seq, len(s.paths))
	}
	f, err := os.Open(s.paths[seq-1])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f, s.Name(seq))
}

func (s *ImageSource) Close() error {
	return nil
}
