// Package ebitengpu implements gpu.Device on top of ebiten, compiling Kage
// fragment programs and drawing into an offscreen image the host window
// presents every frame.
//
// Kage has no vertex stage. The device maps clip-space positions to pixels
// itself, with the vertical texture flip applied, so vertex shaders are empty
// and only stand for that fixed mapping.
package ebitengpu

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ivlev/scrollframe/internal/gpu"
	"github.com/ivlev/scrollframe/internal/system"
)

type shader struct {
	stage    gpu.Stage
	compiled *ebiten.Shader
	refs     int
	deleted  bool
}

type binding struct {
	buf  gpu.Buffer
	size int
}

type program struct {
	vs, fs   gpu.Shader
	bindings map[string]binding
}

type texture struct {
	params gpu.TextureParams
	img    *ebiten.Image
	w, h   int
}

type Device struct {
	mu sync.Mutex

	attrs    gpu.ContextAttributes
	target   *ebiten.Image
	viewport image.Rectangle

	next     uint32
	shaders  map[gpu.Shader]*shader
	programs map[gpu.Program]*program
	buffers  map[gpu.Buffer][]float32
	textures map[gpu.Texture]*texture

	current gpu.Program
	bound   gpu.Texture
}

func New(attrs gpu.ContextAttributes, w, h int) *Device {
	return &Device{
		attrs:    attrs,
		target:   ebiten.NewImage(w, h),
		viewport: image.Rect(0, 0, w, h),
		shaders:  make(map[gpu.Shader]*shader),
		programs: make(map[gpu.Program]*program),
		buffers:  make(map[gpu.Buffer][]float32),
		textures: make(map[gpu.Texture]*texture),
	}
}

// PositionAttr is the only attribute of the fixed vertex stage.
const PositionAttr = "position"

// Provider is a gpu.Provider backed by ebiten.
func Provider(attrs gpu.ContextAttributes, w, h int) (gpu.Device, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty %dx%d surface", gpu.ErrUnavailable, w, h)
	}
	return New(attrs, w, h), nil
}

// Target is the image the device draws into.
func (d *Device) Target() *ebiten.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target
}

// Resize reallocates the drawing buffer. Its content is lost.
func (d *Device) Resize(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b := d.target.Bounds(); b.Dx() == w && b.Dy() == h {
		return
	}
	d.target.Deallocate()
	d.target = ebiten.NewImage(w, h)
	d.viewport = image.Rect(0, 0, w, h)
}

func (d *Device) Dialect() gpu.Dialect { return gpu.DialectKage }

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) CreateShader(stage gpu.Stage, src string) (gpu.Shader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sh := &shader{stage: stage}
	if stage == gpu.StageFragment {
		compiled, err := ebiten.NewShader([]byte(src))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", gpu.ErrCompile, err)
		}
		sh.compiled = compiled
	} else if strings.TrimSpace(src) != "" {
		return 0, fmt.Errorf("%w: vertex stage is fixed, got source", gpu.ErrCompile)
	}
	s := gpu.Shader(d.handle())
	d.shaders[s] = sh
	return s, nil
}

func (d *Device) CreateProgram(vs, fs gpu.Shader) (gpu.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.shaders[vs]
	if !ok || v.stage != gpu.StageVertex {
		return 0, fmt.Errorf("%w: no vertex stage", gpu.ErrLink)
	}
	f, ok := d.shaders[fs]
	if !ok || f.stage != gpu.StageFragment {
		return 0, fmt.Errorf("%w: no fragment stage", gpu.ErrLink)
	}
	v.refs++
	f.refs++
	p := gpu.Program(d.handle())
	d.programs[p] = &program{vs: vs, fs: fs, bindings: make(map[string]binding)}
	return p, nil
}

func (d *Device) UseProgram(p gpu.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.programs[p]; !ok {
		return gpu.ErrUnknownHandle
	}
	d.current = p
	return nil
}

func (d *Device) CreateBuffer(data []float32) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := gpu.Buffer(d.handle())
	d.buffers[b] = append([]float32(nil), data...)
	return b, nil
}

func (d *Device) BindAttribute(p gpu.Program, b gpu.Buffer, attr string, size int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		return gpu.ErrUnknownHandle
	}
	if _, ok := d.buffers[b]; !ok {
		return gpu.ErrUnknownHandle
	}
	if size != 2 {
		return fmt.Errorf("ebitengpu: positions are 2D, bound with %d components", size)
	}
	if attr != PositionAttr {
		return fmt.Errorf("ebitengpu: fixed vertex stage has no attribute %q", attr)
	}
	prog.bindings[attr] = binding{buf: b, size: size}
	return nil
}

func (d *Device) CreateTexture(params gpu.TextureParams) (gpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := gpu.Texture(d.handle())
	d.textures[t] = &texture{params: params}
	return t, nil
}

func (d *Device) BindTexture(t gpu.Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[t]; !ok {
		return gpu.ErrUnknownHandle
	}
	d.bound = t
	return nil
}

// TexImage uploads img, reusing the texture's image while its size is unchanged.
func (d *Device) TexImage(t gpu.Texture, img image.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex, ok := d.textures[t]
	if !ok {
		return gpu.ErrUnknownHandle
	}
	rgba, pooled := system.ToRGBA(img)
	if pooled {
		defer system.PutImage(rgba)
	}
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if tex.img == nil || tex.w != w || tex.h != h {
		if tex.img != nil {
			tex.img.Deallocate()
		}
		tex.img = ebiten.NewImage(w, h)
		tex.w, tex.h = w, h
	}
	tex.img.WritePixels(rgba.Pix)
	return nil
}

func (d *Device) Viewport(x, y, w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = gpu.ViewportRect(x, y, w, h, d.target.Bounds().Dy())
}

func (d *Device) Clear(c color.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	if !d.attrs.Alpha {
		rgba.A = 0xff
	}
	d.target.Fill(rgba)
}

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[d.current]
	if !ok {
		return fmt.Errorf("ebitengpu: draw without program: %w", gpu.ErrUnknownHandle)
	}
	tex, ok := d.textures[d.bound]
	if !ok || tex.img == nil {
		return fmt.Errorf("ebitengpu: draw without texture content")
	}
	if len(prog.bindings) != 1 {
		return fmt.Errorf("ebitengpu: expected one bound position attribute, got %d", len(prog.bindings))
	}
	var bind binding
	for _, b := range prog.bindings {
		bind = b
	}
	data := d.buffers[bind.buf]
	if (first+count)*bind.size > len(data) {
		return fmt.Errorf("ebitengpu: draw range %d+%d exceeds buffer", first, count)
	}

	vertices := make([]ebiten.Vertex, len(data)/bind.size)
	for i := range vertices {
		cx, cy := data[i*bind.size], data[i*bind.size+1]
		dx, dy := gpu.ClipToPixel(cx, cy, d.viewport)
		sx, sy := gpu.ClipToTexel(cx, cy, tex.w, tex.h)
		vertices[i] = ebiten.Vertex{
			DstX: dx, DstY: dy,
			SrcX: sx, SrcY: sy,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}

	var indices []uint16
	switch mode {
	case gpu.TriangleStrip:
		indices = gpu.StripIndices(first, count)
	case gpu.Triangles:
		for i := first; i < first+count-count%3; i++ {
			indices = append(indices, uint16(i))
		}
	}
	if len(indices) == 0 {
		return nil
	}

	op := &ebiten.DrawTrianglesShaderOptions{}
	op.Images[0] = tex.img
	dst := d.target.SubImage(d.viewport).(*ebiten.Image)
	dst.DrawTrianglesShader(vertices, indices, d.shaders[prog.fs].compiled, op)
	return nil
}

func (d *Device) DeleteProgram(p gpu.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		return gpu.ErrUnknownHandle
	}
	delete(d.programs, p)
	if d.current == p {
		d.current = 0
	}
	for _, s := range []gpu.Shader{prog.vs, prog.fs} {
		if sh, ok := d.shaders[s]; ok {
			sh.refs--
			d.release(s, sh)
		}
	}
	return nil
}

// DeleteShader flags s for deletion. Its compiled form lives on until no
// program uses it.
func (d *Device) DeleteShader(s gpu.Shader) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sh, ok := d.shaders[s]
	if !ok || sh.deleted {
		return gpu.ErrUnknownHandle
	}
	sh.deleted = true
	d.release(s, sh)
	return nil
}

func (d *Device) release(s gpu.Shader, sh *shader) {
	if !sh.deleted || sh.refs > 0 {
		return
	}
	if sh.compiled != nil {
		sh.compiled.Deallocate()
	}
	delete(d.shaders, s)
}

func (d *Device) DeleteTexture(t gpu.Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex, ok := d.textures[t]
	if !ok {
		return gpu.ErrUnknownHandle
	}
	if tex.img != nil {
		tex.img.Deallocate()
	}
	delete(d.textures, t)
	if d.bound == t {
		d.bound = 0
	}
	return nil
}

func (d *Device) DeleteBuffer(b gpu.Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[b]; !ok {
		return gpu.ErrUnknownHandle
	}
	delete(d.buffers, b)
	return nil
}
