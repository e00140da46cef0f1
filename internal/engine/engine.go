// Package engine records a scripted scroll through the background as a video clip.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scrollframe/internal/background"
	"github.com/ivlev/scrollframe/internal/compose"
	"github.com/ivlev/scrollframe/internal/director"
	"github.com/ivlev/scrollframe/internal/renderer"
)

// FrameSink receives the composed frames in order. video.ClipWriter is one.
type FrameSink interface {
	WriteFrame(img image.Image) error
}

// ClipProject replays a scenario against a mounted background.
type ClipProject struct {
	Scenario   *director.Scenario
	Background *background.Background
	// Canvas snapshots the animated layer. It may return nil when nothing is drawn.
	Canvas    func() image.Image
	Poster    image.Image
	Overlay   float64
	Workers   int
	ShowStats bool
}

type snapshot struct {
	Index  int
	Layers compose.Layers
}

type RenderResult struct {
	Index int
	Image image.Image
}

func NewClipProject(s *director.Scenario, bg *background.Background, canvas func() image.Image) *ClipProject {
	return &ClipProject{
		Scenario:   s,
		Background: bg,
		Canvas:     canvas,
		Overlay:    compose.DefaultOverlay,
		Workers:    4,
	}
}

// Run scrolls the background frame by frame and streams the composed
// pictures to sink. The background is driven from a single goroutine;
// composing runs on Workers goroutines.
func (p *ClipProject) Run(ctx context.Context, sink FrameSink) error {
	if err := p.Scenario.Validate(); err != nil {
		return err
	}
	positions := renderer.Timeline(p.Scenario)
	total := len(positions)
	if total == 0 {
		return errors.New("scenario has no frames")
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	fmt.Println("--- [PROJECT: CLIP RECORDER] ---")
	fmt.Printf("[*] Scenario: %d keyframes | %.2fs\n", len(p.Scenario.Keyframes), p.Scenario.Duration)
	fmt.Printf("[*] Resolution: %dx%d @ %d FPS | Frames: %d | Workers: %d\n",
		p.Scenario.Width, p.Scenario.Height, p.Scenario.FPS, total, workers)
	fmt.Println("-----------------------------")

	startTime := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// jobs -> compose pool -> results -> ordered writer
	jobs := make(chan snapshot, workers)
	results := make(chan RenderResult, workers)

	g.Go(func() error {
		defer close(jobs)
		dt := time.Second / time.Duration(p.Scenario.FPS)
		posterOp, canvasOp := 1.0, 0.0
		for i, pos := range positions {
			p.Background.OnScroll(pos)
			posterOp = compose.Fade(posterOp, p.Background.PosterOpacity(), dt)
			canvasOp = compose.Fade(canvasOp, p.Background.CanvasOpacity(), dt)

			layers := compose.Layers{
				Poster:        p.Poster,
				PosterOpacity: posterOp,
				CanvasOpacity: canvasOp,
				Overlay:       p.Overlay,
			}
			if canvasOp > 0 && p.Canvas != nil {
				layers.Canvas = p.Canvas()
			}
			select {
			case jobs <- snapshot{Index: i, Layers: layers}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wgRender sync.WaitGroup
	for w := 0; w < workers; w++ {
		wgRender.Add(1)
		g.Go(func() error {
			defer wgRender.Done()
			for job := range jobs {
				img, err := compose.Render(p.Scenario.Width, p.Scenario.Height, job.Layers)
				if err != nil {
					return fmt.Errorf("frame %d: %w", job.Index, err)
				}
				select {
				case results <- RenderResult{Index: job.Index, Image: img}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wgRender.Wait()
		close(results)
	}()

	// Frames come back out of order; hold them until their turn.
	pending := make(map[int]image.Image, workers)
	next := 0
	var writeErr error
	var encodeTime time.Duration
	for res := range results {
		if writeErr != nil {
			continue
		}
		pending[res.Index] = res.Image
		for img, ok := pending[next]; ok; img, ok = pending[next] {
			delete(pending, next)
			start := time.Now()
			if err := sink.WriteFrame(img); err != nil {
				writeErr = fmt.Errorf("write frame %d: %w", next, err)
				cancel()
				break
			}
			encodeTime += time.Since(start)
			next++
			if next%p.Scenario.FPS == 0 || next == total {
				fmt.Printf("[>] Ready: %d/%d\n", next, total)
			}
		}
	}

	if err := g.Wait(); writeErr == nil && err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	if next != total {
		return fmt.Errorf("only %d of %d frames were written", next, total)
	}

	if p.ShowStats {
		totalTime := time.Since(startTime)
		fmt.Printf("--- [PERFORMANCE REPORT] ---\n"+
			"Total Time: %.2fs\n"+
			"Encoding (stream): %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
			totalTime.Seconds(), encodeTime.Seconds(), float64(total)/totalTime.Seconds())
	}
	return nil
}
