// Package surface owns the GPU drawing surface of the background: one shader
// program, one static full-surface quad and one texture slot that every draw
// replaces wholesale.
package surface

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/ivlev/scrollframe/internal/gpu"
	"github.com/ivlev/scrollframe/internal/logging"
)

// Frame is an image that may still be decoding.
type Frame interface {
	Complete() bool
	Image() image.Image
}

// Resizer is implemented by devices whose drawing buffer follows the viewport.
type Resizer interface {
	Resize(w, h int)
}

type Manager struct {
	dev gpu.Device
	log *slog.Logger

	program gpu.Program
	vs, fs  gpu.Shader
	quad    gpu.Buffer
	tex     gpu.Texture

	width, height int
	closed        bool
}

// New creates the device through provider and sets up the blit pipeline.
// When the host has no GPU context the returned error wraps gpu.ErrUnavailable.
// Partially created resources are released before an error is returned.
func New(provider gpu.Provider, attrs gpu.ContextAttributes, w, h int) (*Manager, error) {
	dev, err := provider(attrs, w, h)
	if err != nil {
		return nil, fmt.Errorf("create context: %w", err)
	}
	if dev == nil {
		return nil, fmt.Errorf("create context: %w", gpu.ErrUnavailable)
	}

	m := &Manager{dev: dev, log: logging.For("surface"), width: w, height: h}
	if err := m.init(); err != nil {
		m.Close()
		return nil, err
	}
	m.dev.Viewport(0, 0, w, h)
	return m, nil
}

func (m *Manager) init() error {
	src, ok := blitShaders[m.dev.Dialect()]
	if !ok {
		return fmt.Errorf("no blit shaders for dialect %d", m.dev.Dialect())
	}

	var err error
	if m.vs, err = m.dev.CreateShader(gpu.StageVertex, src.vertex); err != nil {
		return fmt.Errorf("vertex shader: %w", err)
	}
	if m.fs, err = m.dev.CreateShader(gpu.StageFragment, src.fragment); err != nil {
		return fmt.Errorf("fragment shader: %w", err)
	}
	if m.program, err = m.dev.CreateProgram(m.vs, m.fs); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	if err = m.dev.UseProgram(m.program); err != nil {
		return err
	}

	if m.quad, err = m.dev.CreateBuffer(quad); err != nil {
		return fmt.Errorf("vertex buffer: %w", err)
	}
	if err = m.dev.BindAttribute(m.program, m.quad, positionAttr, 2); err != nil {
		return err
	}

	m.tex, err = m.dev.CreateTexture(gpu.TextureParams{
		WrapS:     gpu.WrapClampToEdge,
		WrapT:     gpu.WrapClampToEdge,
		MinFilter: gpu.FilterLinear,
		MagFilter: gpu.FilterLinear,
	})
	if err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	return m.dev.BindTexture(m.tex)
}

// Available reports whether Draw can do any work.
func (m *Manager) Available() bool {
	return m != nil && !m.closed && m.tex != 0
}

// Size returns the drawing surface size in pixels.
func (m *Manager) Size() (int, int) {
	return m.width, m.height
}

// Device exposes the underlying context, mainly so hosts can present it.
func (m *Manager) Device() gpu.Device {
	return m.dev
}

// Draw uploads f into the texture slot and paints it over the whole surface.
// It reports false without touching the GPU when the surface is unavailable or
// f has not finished decoding.
func (m *Manager) Draw(f Frame) (bool, error) {
	if !m.Available() || f == nil || !f.Complete() {
		return false, nil
	}
	img := f.Image()
	if img == nil {
		return false, nil
	}

	if err := m.dev.BindTexture(m.tex); err != nil {
		return false, err
	}
	if err := m.dev.TexImage(m.tex, img); err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}
	m.dev.Clear(color.Black)
	if err := m.dev.DrawArrays(gpu.TriangleStrip, 0, len(quad)/2); err != nil {
		return false, fmt.Errorf("draw: %w", err)
	}
	return true, nil
}

// Resize matches the drawing buffer and viewport to a new size. Nothing is
// redrawn; the next scroll update repaints.
func (m *Manager) Resize(w, h int) {
	if !m.Available() {
		return
	}
	m.width, m.height = w, h
	if r, ok := m.dev.(Resizer); ok {
		r.Resize(w, h)
	}
	m.dev.Viewport(0, 0, w, h)
}

// Close releases the program, both shader stages, the texture and the vertex
// buffer, once each. Later calls do nothing.
func (m *Manager) Close() error {
	if m == nil || m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	if m.program != 0 {
		errs = append(errs, m.dev.DeleteProgram(m.program))
	}
	if m.vs != 0 {
		errs = append(errs, m.dev.DeleteShader(m.vs))
	}
	if m.fs != 0 {
		errs = append(errs, m.dev.DeleteShader(m.fs))
	}
	if m.tex != 0 {
		errs = append(errs, m.dev.DeleteTexture(m.tex))
	}
	if m.quad != 0 {
		errs = append(errs, m.dev.DeleteBuffer(m.quad))
	}
	m.program, m.vs, m.fs, m.tex, m.quad = 0, 0, 0, 0, 0

	err := errors.Join(errs...)
	if err != nil {
		m.log.Warn("surface release", "err", err)
	}
	return err
}
