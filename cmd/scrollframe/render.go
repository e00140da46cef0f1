package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/scrollframe/internal/background"
	"github.com/ivlev/scrollframe/internal/compose"
	"github.com/ivlev/scrollframe/internal/gpu"
	"github.com/ivlev/scrollframe/internal/gpu/soft"
	"github.com/ivlev/scrollframe/internal/source"
	"github.com/ivlev/scrollframe/internal/viewport"
)

func runRender(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	common.register(fs)
	progressPtr := fs.String("progress", "0,0.2,0.5,0.75,1", "Comma-separated scroll positions in [0,1]")
	outPtr := fs.String("out", "output", "Directory for the PNG snapshots")
	widthPtr := fs.Int("width", 0, "Viewport width (0: window width from config)")
	heightPtr := fs.Int("height", 0, "Viewport height (0: window height from config)")
	noGPUPtr := fs.Bool("no-gpu", false, "Render as if the host had no GPU context")
	timeoutPtr := fs.Duration("timeout", 2*time.Minute, "How long to wait for the frames")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}
	positions, err := parseProgress(*progressPtr)
	if err != nil {
		return err
	}
	size := viewport.Size{Width: cfg.Window.Width, Height: cfg.Window.Height}
	if *widthPtr > 0 {
		size.Width = *widthPtr
	}
	if *heightPtr > 0 {
		size.Height = *heightPtr
	}
	if err := os.MkdirAll(*outPtr, 0755); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutPtr)
	defer cancel()

	factory := &soft.Factory{}
	var provider gpu.Provider = factory.Provide
	if *noGPUPtr {
		provider = gpu.Unavailable
	}
	strat, seq, err := strategy(cfg, provider, time.Nanosecond)
	if err != nil {
		return err
	}
	if seq != nil {
		checkMemory(ctx, seq.Count(), size.Width, size.Height)
	}

	bg := background.New(strat, background.Options{Breakpoint: cfg.Breakpoint})
	start := time.Now()
	bg.Mount(ctx, size)
	defer bg.Unmount()

	if seq != nil && bg.State() != background.Degraded {
		if err := seq.Wait(ctx); err != nil {
			fmt.Printf("[!] Frames incomplete, the poster stays up: %v\n", err)
			for _, line := range failedFrames(seq.Frames()) {
				fmt.Printf("[!]   %s\n", line)
			}
		} else {
			fmt.Printf("[*] %d frames loaded in %v\n", seq.Frames().Len(), time.Since(start).Round(time.Millisecond))
		}
	}
	fmt.Printf("[*] State: %s\n", bg.State())
	if dev := factory.Last(); dev != nil {
		a := dev.Attributes()
		fmt.Printf("[*] Context: alpha=%v antialias=%v power=%s\n", a.Alpha, a.Antialias, a.PowerPreference)
	}

	poster, err := source.Open(ctx, cfg.Poster, cfg.HTTPTimeout)
	if err != nil {
		fmt.Printf("[!] Poster unavailable: %v\n", err)
	}

	for _, p := range positions {
		drawn := false
		bg.OnScroll(p)

		var canvas image.Image
		if dev := factory.Last(); dev != nil && bg.CanvasOpacity() > 0 {
			canvas = dev.Canvas()
			drawn = true
		}
		name := filepath.Join(*outPtr, fmt.Sprintf("progress_%03d.png", int(p*100+0.5)))
		err := compose.SavePNG(name, size.Width, size.Height, compose.Layers{
			Poster:        poster,
			PosterOpacity: bg.PosterOpacity(),
			Canvas:        canvas,
			CanvasOpacity: bg.CanvasOpacity(),
			Overlay:       cfg.Overlay,
		})
		if err != nil {
			return err
		}
		if seq != nil && drawn {
			fmt.Printf("[+] %.2f -> frame %d: %s\n", p, seq.Current()+1, name)
		} else {
			fmt.Printf("[+] %.2f -> poster: %s\n", p, name)
		}
	}

	fmt.Printf("[+++] Rendered %d snapshots to %s\n", len(positions), *outPtr)
	return nil
}

func parseProgress(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("progress %q: %w", part, err)
		}
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("progress %v outside [0,1]", p)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no progress values")
	}
	return out, nil
}
