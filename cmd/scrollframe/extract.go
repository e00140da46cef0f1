package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/ivlev/scrollframe/internal/config"
	"github.com/ivlev/scrollframe/internal/system"
	"github.com/ivlev/scrollframe/internal/video"
)

func runExtract(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	common.register(fs)
	inputPtr := fs.String("input", "", "Source video (default: the newest video in input/)")
	stepPtr := fs.Int("step", 7, "Keep every n-th frame")
	jpegQualityPtr := fs.Int("jpeg-quality", 2, "JPEG qscale of the frames, 2 (best) to 31")
	reencodePtr := fs.Bool("reencode", true, "Write the keyframe-per-frame video used by the video strategy first")
	qualityPtr := fs.Int("quality", 0, "Re-encode quality (0: auto; x264: CRF 1-51, VideoToolbox: bitrate = Q*100 kbit/s)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}

	inputPath := *inputPtr
	if inputPath == "" {
		latest, err := system.FindLatestVideo("input")
		if err != nil {
			return fmt.Errorf("%w; put a video into input/ or pass -input", err)
		}
		inputPath = latest
		fmt.Printf("[*] Selected: %s\n", inputPath)
	}

	ctx := context.Background()
	var ff video.Transcoder = video.FFmpeg{}
	start := time.Now()

	framesFrom := inputPath
	if *reencodePtr {
		encoder := system.GetBestH264Encoder(ctx)
		if encoder != "libx264" {
			fmt.Printf("[*] Hardware encoder detected: %s\n", encoder)
		}
		quality := *qualityPtr
		if quality == 0 {
			quality = autoQuality(encoder)
		}
		fmt.Printf("[*] Re-encoding %s -> %s\n", inputPath, cfg.Video.Path)
		err := ff.Reencode(ctx, config.ReencodeParams{
			Input:   inputPath,
			Output:  cfg.Video.Path,
			Encoder: encoder,
			Quality: quality,
		})
		if err != nil {
			return err
		}
		framesFrom = cfg.Video.Path
	}

	fmt.Printf("[*] Extracting every %d. frame into %s\n", *stepPtr, cfg.Frames.Base)
	n, err := ff.ExtractFrames(ctx, config.ExtractParams{
		Input:     framesFrom,
		OutputDir: cfg.Frames.Base,
		Template:  cfg.Frames.Template,
		Step:      *stepPtr,
		Quality:   *jpegQualityPtr,
	})
	if err != nil {
		return err
	}
	if n != cfg.Frames.Count {
		fmt.Printf("[!] Wrote %d frames but frames.count is %d; update %s\n", n, cfg.Frames.Count, common.configPath)
	}

	fmt.Printf("[+++] %d frames ready in %v\n", n, time.Since(start).Round(time.Millisecond))
	return nil
}
