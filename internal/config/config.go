package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

const (
	StrategyFrames = "frames"
	StrategyVideo  = "video"
)

type Config struct {
	Frames      FramesConfig  `yaml:"frames"`
	Poster      string        `yaml:"poster"`
	Breakpoint  int           `yaml:"breakpoint"`
	Strategy    string        `yaml:"strategy"`
	Coalesce    bool          `yaml:"coalesce"`
	Overlay     float64       `yaml:"overlay"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Context     ContextConfig `yaml:"context"`
	Video       VideoConfig   `yaml:"video"`
	Window      WindowConfig  `yaml:"window"`
}

type FramesConfig struct {
	Count    int    `yaml:"count"`
	Base     string `yaml:"base"`     // directory, http(s) URL or .pdf
	Template string `yaml:"template"` // printf pattern fed with the 1-based frame number
}

type ContextConfig struct {
	Alpha           bool   `yaml:"alpha"`
	Antialias       bool   `yaml:"antialias"`
	PowerPreference string `yaml:"power_preference"`
}

type VideoConfig struct {
	Path          string        `yaml:"path"`
	Throttle      time.Duration `yaml:"throttle"`
	SeekThreshold float64       `yaml:"seek_threshold"` // seconds
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// ExtractParams drives frame extraction from a source video.
type ExtractParams struct {
	Input     string
	OutputDir string
	Template  string
	Step      int // keep every Step-th decoded frame
	Quality   int // mjpeg qscale, 2 (best) .. 31
}

// ReencodeParams drives the scrub-friendly re-encode of a source video.
type ReencodeParams struct {
	Input   string
	Output  string
	Encoder string
	Quality int
}

func Default() *Config {
	return &Config{
		Frames: FramesConfig{
			Count:    65,
			Base:     "public/frames",
			Template: "frame_%03d.jpg",
		},
		Poster:      "public/video-poster.jpg",
		Breakpoint:  768,
		Strategy:    StrategyFrames,
		Overlay:     0.4,
		HTTPTimeout: 30 * time.Second,
		Context: ContextConfig{
			PowerPreference: "high-performance",
		},
		Video: VideoConfig{
			Path:          "public/optimized-video.mp4",
			Throttle:      16 * time.Millisecond,
			SeekThreshold: 0.1,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "scrollframe",
		},
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write stores cfg as YAML.
func Write(cfg *Config, path string) error {
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) Validate() error {
	var problems []string
	if c.Frames.Count <= 0 {
		problems = append(problems, "frames.count must be positive")
	}
	if !strings.Contains(c.Frames.Template, "%") {
		problems = append(problems, "frames.template needs a printf verb for the frame number")
	}
	if c.Breakpoint <= 0 {
		problems = append(problems, "breakpoint must be positive")
	}
	if c.Overlay < 0 || c.Overlay > 1 {
		problems = append(problems, "overlay must be within [0,1]")
	}
	switch c.Strategy {
	case StrategyFrames:
	case StrategyVideo:
		if c.Video.Path == "" {
			problems = append(problems, "video.path is required for the video strategy")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown strategy %q", c.Strategy))
	}
	if c.Video.Throttle < 0 || c.Video.SeekThreshold < 0 {
		problems = append(problems, "video throttle and seek_threshold must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
