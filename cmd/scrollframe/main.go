package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ivlev/scrollframe/internal/config"
	"github.com/ivlev/scrollframe/internal/logging"
)

const usage = `scrollframe renders a scroll-driven frame-sequence background.

Usage:
  scrollframe <command> [flags]

Commands:
  preview   open a window and scrub the background with the mouse wheel or arrow keys
  render    render snapshots at given scroll positions to PNG, without a window
  record    record a scripted scroll through the background to an MP4 clip
  extract   re-encode a source video for scrubbing and cut it into frames
  info      show the host profile and the resolved configuration
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	commands := map[string]func([]string) error{
		"preview": runPreview,
		"render":  runRender,
		"record":  runRecord,
		"extract": runExtract,
		"info":    runInfo,
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("[-] Error: %v", err)
	}
}

// commonFlags are shared by every command.
type commonFlags struct {
	configPath string
	verbose    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "scrollframe.yaml", "YAML config file (defaults are used when it does not exist)")
	fs.BoolVar(&c.verbose, "v", false, "Debug logging")
}

// setup installs the logger and loads the configuration.
func (c *commonFlags) setup() (*config.Config, error) {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(c.configPath)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("[*] %s not found, using defaults\n", c.configPath)
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	fmt.Printf("[*] Config: %s\n", c.configPath)
	return cfg, nil
}
