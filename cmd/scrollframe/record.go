package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ivlev/scrollframe/internal/background"
	"github.com/ivlev/scrollframe/internal/director"
	"github.com/ivlev/scrollframe/internal/engine"
	"github.com/ivlev/scrollframe/internal/gpu/soft"
	"github.com/ivlev/scrollframe/internal/source"
	"github.com/ivlev/scrollframe/internal/system"
	"github.com/ivlev/scrollframe/internal/video"
	"github.com/ivlev/scrollframe/internal/viewport"
)

func runRecord(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	common.register(fs)
	scenarioPtr := fs.String("scenario", "", "Scenario YAML (\"latest\": newest file in scenarios/; empty: generate one)")
	stopsPtr := fs.String("stops", "0.25,0.5,0.75", "Scroll positions to dwell at when generating a scenario")
	durationPtr := fs.Float64("duration", 10, "Clip length in seconds when generating a scenario")
	fpsPtr := fs.Int("fps", 30, "Frame rate when generating a scenario")
	writeScenarioPtr := fs.Bool("write-scenario", false, "Save the generated scenario into scenarios/")
	outPtr := fs.String("out", "", "Output clip (default: output/clip_<timestamp>.mp4)")
	workersPtr := fs.Int("workers", runtime.NumCPU(), "Compose workers")
	qualityPtr := fs.Int("quality", 0, "Quality (0: auto; x264: CRF 1-51, VideoToolbox: bitrate = Q*100 kbit/s)")
	statsPtr := fs.Bool("stats", false, "Print a performance report")
	timeoutPtr := fs.Duration("timeout", 2*time.Minute, "How long to wait for the frames")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}

	scenario, err := loadScenario(*scenarioPtr, *stopsPtr, *durationPtr, *fpsPtr, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return err
	}
	if *scenarioPtr == "" && *writeScenarioPtr {
		path := director.GenerateScenarioPath("scenarios")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := director.WriteScenario(scenario, path); err != nil {
			return err
		}
		fmt.Printf("[*] Scenario saved: %s\n", path)
	}

	outPath := *outPtr
	if outPath == "" {
		outPath = filepath.Join("output", fmt.Sprintf("clip_%s.mp4", time.Now().Format("2006-01-02_15-04-05")))
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), *timeoutPtr)
	defer cancel()

	factory := &soft.Factory{}
	strat, seq, err := strategy(cfg, factory.Provide, time.Nanosecond)
	if err != nil {
		return err
	}
	size := viewport.Size{Width: scenario.Width, Height: scenario.Height}
	if seq != nil {
		checkMemory(loadCtx, seq.Count(), size.Width, size.Height)
	}
	bg := background.New(strat, background.Options{Breakpoint: cfg.Breakpoint})
	bg.Mount(loadCtx, size)
	defer bg.Unmount()
	if seq != nil && bg.State() != background.Degraded {
		if err := seq.Wait(loadCtx); err != nil {
			fmt.Printf("[!] Frames incomplete, the clip shows the poster: %v\n", err)
			for _, line := range failedFrames(seq.Frames()) {
				fmt.Printf("[!]   %s\n", line)
			}
		}
	}

	poster, err := source.Open(loadCtx, cfg.Poster, cfg.HTTPTimeout)
	if err != nil {
		fmt.Printf("[!] Poster unavailable: %v\n", err)
	}

	ctx := context.Background()
	encoder := system.GetBestH264Encoder(ctx)
	quality := *qualityPtr
	if quality == 0 {
		quality = autoQuality(encoder)
	}
	clip, err := video.NewClipWriter(ctx, video.ClipParams{
		Output:  outPath,
		Width:   scenario.Width,
		Height:  scenario.Height,
		FPS:     scenario.FPS,
		Encoder: encoder,
		Quality: quality,
	})
	if err != nil {
		return err
	}

	project := engine.NewClipProject(scenario, bg, func() image.Image {
		if dev := factory.Last(); dev != nil {
			return dev.Canvas()
		}
		return nil
	})
	project.Poster = poster
	project.Overlay = cfg.Overlay
	project.Workers = *workersPtr
	project.ShowStats = *statsPtr

	runErr := project.Run(ctx, clip)
	if err := clip.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}
	fmt.Printf("[+++] Success! %d frames recorded to %s\n", clip.Frames(), outPath)
	return nil
}

// loadScenario reads the named scenario or plans one through stops.
func loadScenario(name, stops string, duration float64, fps, w, h int) (*director.Scenario, error) {
	if name == "latest" {
		latest, err := director.FindLatestScenario("scenarios")
		if err != nil {
			return nil, err
		}
		name = latest
	}
	if name != "" {
		s, err := director.ReadScenario(name)
		if err != nil {
			return nil, fmt.Errorf("read scenario: %w", err)
		}
		fmt.Printf("[*] Scenario: %s\n", name)
		return s, nil
	}

	points, err := parseProgress(stops)
	if err != nil {
		return nil, err
	}
	return director.NewDirector(w, h, fps).GenerateScenario(points, duration)
}
