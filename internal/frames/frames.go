// Package frames loads the still images of a scroll-scrubbed frame sequence.
//
// A Set becomes ready only once every frame has loaded. There is no partial
// readiness: a single failed frame keeps the set not-ready for its lifetime.
package frames

import (
	"errors"
	"image"
	"sync/atomic"
)

var (
	ErrIncomplete = errors.New("frame set incomplete")
	ErrStarted    = errors.New("frame set already loading")
)

// Frame is one element of a Set. Its image is written once by the loader and
// published through an atomic flag, so readers on other goroutines either see
// Complete() == false or the finished image.
type Frame struct {
	Seq  int // 1-based
	Name string

	img    image.Image
	err    error
	done   atomic.Bool
	failed atomic.Bool
}

// Complete reports whether this frame finished decoding.
func (f *Frame) Complete() bool {
	return f.done.Load()
}

// Image returns the decoded frame, or nil until Complete.
func (f *Frame) Image() image.Image {
	if !f.done.Load() {
		return nil
	}
	return f.img
}

// Err returns the load failure, if any.
func (f *Frame) Err() error {
	if !f.failed.Load() {
		return nil
	}
	return f.err
}

func (f *Frame) complete(img image.Image) {
	f.img = img
	f.done.Store(true)
}

func (f *Frame) fail(err error) {
	f.err = err
	f.failed.Store(true)
}

type Set struct {
	frames  []*Frame
	loaded  atomic.Int32
	ready   atomic.Bool
	started atomic.Bool
	onReady func()
}

// NewSet allocates n frames numbered 1..n.
func NewSet(n int) *Set {
	s := &Set{frames: make([]*Frame, n)}
	for i := range s.frames {
		s.frames[i] = &Frame{Seq: i + 1}
	}
	return s
}

// OnReady registers fn to run once, on the loader goroutine that completes the set.
// It must be called before loading starts.
func (s *Set) OnReady(fn func()) {
	s.onReady = fn
}

func (s *Set) Len() int {
	return len(s.frames)
}

// At returns the frame at 0-based index i.
func (s *Set) At(i int) *Frame {
	return s.frames[i]
}

func (s *Set) Ready() bool {
	return s.ready.Load()
}

// Loaded returns how many frames have completed so far.
func (s *Set) Loaded() int {
	return int(s.loaded.Load())
}

// Failed returns the frames whose load failed.
func (s *Set) Failed() []*Frame {
	var out []*Frame
	for _, f := range s.frames {
		if f.failed.Load() {
			out = append(out, f)
		}
	}
	return out
}

func (s *Set) frameLoaded() {
	if int(s.loaded.Add(1)) != len(s.frames) {
		return
	}
	if s.ready.CompareAndSwap(false, true) && s.onReady != nil {
		s.onReady()
	}
}
