package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/scrollframe/internal/config"
	"github.com/ivlev/scrollframe/internal/source"
	"github.com/ivlev/scrollframe/internal/system"
)

func runInfo(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	common.register(fs)
	writePtr := fs.String("write", "", "Also write the resolved configuration to this file")
	qrPtr := fs.String("qr", "", "Write a QR code PNG linking to the hosted frames, for checking the layout on a phone")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	profile, err := system.ProbeHost(ctx)
	if err != nil {
		fmt.Printf("[!] Host profile unavailable: %v\n", err)
	} else {
		fmt.Printf("[*] Host: %s\n", profile)
	}
	fmt.Printf("[*] H.264 encoder: %s\n", system.GetBestH264Encoder(ctx))

	if cfg.Strategy == config.StrategyFrames {
		describeFrames(ctx, cfg, profile)
	}

	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Println("[*] Configuration:")
	os.Stdout.Write(data)

	if *writePtr != "" {
		if err := config.Write(cfg, *writePtr); err != nil {
			return err
		}
		fmt.Printf("[+] Written to %s\n", *writePtr)
	}
	if *qrPtr != "" {
		if err := writeQR(cfg, *qrPtr); err != nil {
			return err
		}
		fmt.Printf("[+] QR code written to %s\n", *qrPtr)
	}
	return nil
}

// writeQR encodes the frame base URL, or the poster URL when only that is hosted.
func writeQR(cfg *config.Config, path string) error {
	target := cfg.Frames.Base
	if !source.IsURL(target) {
		target = cfg.Poster
	}
	if !source.IsURL(target) {
		return fmt.Errorf("neither frames nor poster are served over http(s)")
	}
	return qrcode.WriteFile(target, qrcode.Medium, 256, path)
}

func describeFrames(ctx context.Context, cfg *config.Config, profile system.HostProfile) {
	src, err := source.New(cfg.Frames.Base, cfg.Frames.Template, cfg.HTTPTimeout)
	if err != nil {
		fmt.Printf("[!] Frames: %v\n", err)
		return
	}
	defer src.Close()

	n := cfg.Frames.Count
	if c, ok := src.(source.Counter); ok {
		n = c.Count()
	}
	first, err := src.Frame(ctx, 1)
	if err != nil {
		fmt.Printf("[!] Frames: %s unreadable: %v\n", src.Name(1), err)
		return
	}
	w, h := first.Bounds().Dx(), first.Bounds().Dy()
	need := system.FrameSetBytes(n, w, h)
	fmt.Printf("[*] Frames: %d x %dx%d (%s ...), ~%d MiB decoded\n", n, w, h, src.Name(1), need>>20)
	if profile.AvailableMemory > 0 && !profile.Fits(need) {
		fmt.Printf("[!] The decoded frame set would take more than half of the available memory\n")
	}
}
