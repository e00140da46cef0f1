package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/ivlev/scrollframe/internal/background"
	"github.com/ivlev/scrollframe/internal/compose"
	"github.com/ivlev/scrollframe/internal/config"
	"github.com/ivlev/scrollframe/internal/gpu"
	"github.com/ivlev/scrollframe/internal/gpu/ebitengpu"
	"github.com/ivlev/scrollframe/internal/scroll"
	"github.com/ivlev/scrollframe/internal/source"
	"github.com/ivlev/scrollframe/internal/viewport"
)

const (
	wheelStep = 0.02
	keyStep   = 0.005
)

func runPreview(args []string) error {
	var common commonFlags
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	common.register(fs)
	hudPtr := fs.Bool("hud", true, "Show state and frame index")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}

	g := &previewGame{
		cfg:      cfg,
		hud:      *hudPtr,
		progress: scroll.NewSignal(),
		vp:       viewport.NewSignal(viewport.Size{Width: cfg.Window.Width, Height: cfg.Window.Height}),
		last:     time.Now(),
		posterOp: 1,
	}
	provider := func(attrs gpu.ContextAttributes, w, h int) (gpu.Device, error) {
		d, err := ebitengpu.Provider(attrs, w, h)
		if err != nil {
			return nil, err
		}
		g.dev = d.(*ebitengpu.Device)
		return d, nil
	}
	strat, seq, err := strategy(cfg, provider, cfg.Video.Throttle)
	if err != nil {
		return err
	}
	g.seq = seq
	g.bg = background.New(strat, background.Options{Breakpoint: cfg.Breakpoint, Coalesce: cfg.Coalesce})

	if poster, err := source.Open(context.Background(), cfg.Poster, cfg.HTTPTimeout); err != nil {
		fmt.Printf("[!] Poster unavailable: %v\n", err)
	} else {
		g.poster = ebiten.NewImageFromImage(poster)
	}
	g.overlay = ebiten.NewImage(1, 1)
	g.overlay.Fill(color.Black)

	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	fmt.Println("[*] Wheel or arrow keys scroll, Home/End jump, Esc quits")
	err = ebiten.RunGame(g)
	if g.detach != nil {
		g.detach()
	}
	if uerr := g.bg.Unmount(); uerr != nil {
		fmt.Printf("[!] Release: %v\n", uerr)
	}
	if err == ebiten.Termination {
		return nil
	}
	return err
}

// previewGame hosts the background in a desktop window. The window's scroll
// position drives the scroll signal and its size drives the viewport signal.
type previewGame struct {
	cfg *config.Config
	hud bool

	bg       *background.Background
	seq      *background.FrameSequence
	dev      *ebitengpu.Device
	progress *scroll.Signal
	vp       *viewport.Signal
	detach   func()

	poster, overlay    *ebiten.Image
	posterOp, canvasOp float64
	last               time.Time
}

func (g *previewGame) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if g.detach == nil {
		g.bg.Mount(context.Background(), g.vp.Value())
		g.detach = background.Attach(g.bg, g.progress, g.vp)
		fmt.Printf("[*] Mounted at %dx%d: %s\n", g.vp.Value().Width, g.vp.Value().Height, g.bg.State())
	}

	p := g.progress.Value()
	_, dy := ebiten.Wheel()
	p -= dy * wheelStep
	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowDown), ebiten.IsKeyPressed(ebiten.KeyPageDown):
		p += keyStep
	case ebiten.IsKeyPressed(ebiten.KeyArrowUp), ebiten.IsKeyPressed(ebiten.KeyPageUp):
		p -= keyStep
	case ebiten.IsKeyPressed(ebiten.KeyHome):
		p = 0
	case ebiten.IsKeyPressed(ebiten.KeyEnd):
		p = 1
	}
	g.progress.Set(max(0, min(p, 1)))
	g.bg.Flush()

	now := time.Now()
	dt := now.Sub(g.last)
	g.last = now
	g.posterOp = compose.Fade(g.posterOp, g.bg.PosterOpacity(), dt)
	g.canvasOp = compose.Fade(g.canvasOp, g.bg.CanvasOpacity(), dt)
	return nil
}

func (g *previewGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()

	if g.poster != nil && g.posterOp > 0 {
		drawCover(screen, g.poster, g.posterOp)
	}
	if g.dev != nil && g.canvasOp > 0 {
		drawCover(screen, g.dev.Target(), g.canvasOp)
	}
	if g.cfg.Overlay > 0 {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(float64(sw), float64(sh))
		op.ColorScale.ScaleAlpha(float32(g.cfg.Overlay))
		screen.DrawImage(g.overlay, op)
	}

	if g.hud {
		msg := fmt.Sprintf("state %s  progress %.3f", g.bg.State(), g.progress.Value())
		if g.seq != nil && g.seq.Frames() != nil {
			msg += fmt.Sprintf("  frame %d  loaded %d/%d", g.seq.Current()+1, g.seq.Frames().Loaded(), g.seq.Frames().Len())
		}
		if g.cfg.Coalesce {
			msg += fmt.Sprintf("  coalesced %d", g.bg.Coalesced())
		}
		ebitenutil.DebugPrint(screen, msg)
	}
}

func (g *previewGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.vp.Set(viewport.Size{Width: outsideWidth, Height: outsideHeight})
	return outsideWidth, outsideHeight
}

func drawCover(dst, src *ebiten.Image, opacity float64) {
	b := src.Bounds()
	x, y, w, h := compose.Cover(b.Dx(), b.Dy(), dst.Bounds().Dx(), dst.Bounds().Dy())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleAlpha(float32(opacity))
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(src, op)
}
