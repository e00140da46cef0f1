package source

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
)

// DirSource reads frames named by a template from a local directory.
type DirSource struct {
	dir      string
	template string
}

func NewDirSource(dir, template string) (*DirSource, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &DirSource{dir: dir, template: template}, nil
}

func (s *DirSource) Name(seq int) string {
	return FrameName(s.template, seq)
}

func (s *DirSource) Frame(ctx context.Context, seq int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := s.Name(seq)
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f, name)
}

func (s *DirSource) Close() error {
	return nil
}
