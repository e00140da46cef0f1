package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ivlev/scrollframe/internal/background"
	"github.com/ivlev/scrollframe/internal/config"
	"github.com/ivlev/scrollframe/internal/frames"
	"github.com/ivlev/scrollframe/internal/gpu"
	"github.com/ivlev/scrollframe/internal/source"
	"github.com/ivlev/scrollframe/internal/surface"
	"github.com/ivlev/scrollframe/internal/system"
	"github.com/ivlev/scrollframe/internal/video"
)

func contextAttributes(cfg *config.Config) gpu.ContextAttributes {
	return gpu.ContextAttributes{
		Alpha:           cfg.Context.Alpha,
		Antialias:       cfg.Context.Antialias,
		PowerPreference: cfg.Context.PowerPreference,
	}
}

// strategy builds the animated layer named by cfg.Strategy on top of provider.
// For the frame sequence it also returns the strategy itself so callers can
// wait for the frames.
func strategy(cfg *config.Config, provider gpu.Provider, throttle time.Duration) (background.Strategy, *background.FrameSequence, error) {
	attrs := contextAttributes(cfg)

	if cfg.Strategy == config.StrategyVideo {
		open := func(ctx context.Context, w, h int) (background.Player, error) {
			surf, err := surface.New(provider, attrs, w, h)
			if err != nil {
				return nil, err
			}
			p, err := video.Open(ctx, cfg.Video.Path, surf, w, h)
			if err != nil {
				surf.Close()
				return nil, err
			}
			return p, nil
		}
		fmt.Printf("[*] Strategy: video seek (%s)\n", cfg.Video.Path)
		return background.NewVideoSeek(open, throttle, cfg.Video.SeekThreshold), nil, nil
	}

	src, err := source.New(cfg.Frames.Base, cfg.Frames.Template, cfg.HTTPTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("frame source: %w", err)
	}
	n := cfg.Frames.Count
	if c, ok := src.(source.Counter); ok && c.Count() > 0 {
		n = c.Count()
	}
	system.InitResourceLimits(uint64(n) + 256)

	fmt.Printf("[*] Strategy: frame sequence, %d frames from %s\n", n, cfg.Frames.Base)
	seq := background.NewFrameSequence(src, n, provider, attrs)
	return seq, seq, nil
}

// checkMemory warns when the decoded frame set would crowd out the host.
func checkMemory(ctx context.Context, n, w, h int) {
	profile, err := system.ProbeHost(ctx)
	if err != nil {
		fmt.Printf("[!] Host profile unavailable: %v\n", err)
		return
	}
	need := system.FrameSetBytes(n, w, h)
	if !profile.Fits(need) {
		fmt.Printf("[!] %d frames at %dx%d need ~%d MiB, host has %d MiB available\n",
			n, w, h, need>>20, profile.AvailableMemory>>20)
	}
}

// autoQuality is the default quality setting for an H.264 encoder.
func autoQuality(encoder string) int {
	if encoder == "h264_videotoolbox" {
		return 75
	}
	return 23
}

// failedFrames describes the frames that kept set from becoming ready.
func failedFrames(set *frames.Set) []string {
	if set == nil {
		return nil
	}
	var out []string
	for _, f := range set.Failed() {
		out = append(out, fmt.Sprintf("%s: %v", f.Name, f.Err()))
	}
	return out
}
