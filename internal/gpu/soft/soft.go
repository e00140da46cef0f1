// Package soft is a CPU implementation of gpu.Device that rasterizes into an
// *image.RGBA. It backs headless rendering and doubles as the GPU context in tests:
// every created and deleted handle is counted, and a second delete of the
// same handle is rejected instead of being silently ignored.
//
// The rasterizer understands one program shape, the textured pass-through quad:
// the vertex stage must derive texture coordinates as position*0.5+0.5 and the
// fragment stage may flip the vertical texture axis (detected from its source).
package soft

import (
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/scrollframe/internal/gpu"
	"github.com/ivlev/scrollframe/internal/system"
)

var (
	attributeRe = regexp.MustCompile(`attribute\s+vec([234])\s+(\w+)\s*;`)
	flipRe      = regexp.MustCompile(`1\.0\s*-\s*\w+\.y`)
)

// Stats counts device activity. Live* are handles created and not yet deleted.
type Stats struct {
	Draws      int
	Uploads    int
	Clears     int
	BadDeletes int

	LiveShaders, LivePrograms, LiveBuffers, LiveTextures             int
	DeletedShaders, DeletedPrograms, DeletedBuffers, DeletedTextures int
}

type shader struct {
	stage gpu.Stage
	src   string
}

type binding struct {
	buf  gpu.Buffer
	size int
}

type program struct {
	attrs    map[string]int // declared attribute -> components
	bindings map[string]binding
	flipY    bool
}

type texture struct {
	params gpu.TextureParams
	img    *image.RGBA
}

type Device struct {
	mu sync.Mutex

	attrs    gpu.ContextAttributes
	canvas   *image.RGBA
	viewport image.Rectangle

	next     uint32
	shaders  map[gpu.Shader]*shader
	programs map[gpu.Program]*program
	buffers  map[gpu.Buffer][]float32
	textures map[gpu.Texture]*texture

	current gpu.Program
	bound   gpu.Texture
	stats   Stats
}

func New(attrs gpu.ContextAttributes, w, h int) *Device {
	return &Device{
		attrs:    attrs,
		canvas:   image.NewRGBA(image.Rect(0, 0, w, h)),
		viewport: image.Rect(0, 0, w, h),
		shaders:  make(map[gpu.Shader]*shader),
		programs: make(map[gpu.Program]*program),
		buffers:  make(map[gpu.Buffer][]float32),
		textures: make(map[gpu.Texture]*texture),
	}
}

// Factory is a gpu.Provider that remembers the devices it handed out.
type Factory struct {
	mu      sync.Mutex
	devices []*Device
}

func (f *Factory) Provide(attrs gpu.ContextAttributes, w, h int) (gpu.Device, error) {
	d := New(attrs, w, h)
	f.mu.Lock()
	f.devices = append(f.devices, d)
	f.mu.Unlock()
	return d, nil
}

// Last returns the most recently provided device, or nil.
func (f *Factory) Last() *Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.devices) == 0 {
		return nil
	}
	return f.devices[len(f.devices)-1]
}

// Count returns how many devices were provided.
func (f *Factory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.devices)
}

func (d *Device) Dialect() gpu.Dialect {
	return gpu.DialectGLSL
}

func (d *Device) Attributes() gpu.ContextAttributes {
	return d.attrs
}

func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Canvas returns a copy of the drawing buffer.
func (d *Device) Canvas() *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := image.NewRGBA(d.canvas.Rect)
	copy(out.Pix, d.canvas.Pix)
	return out
}

// Resize reallocates the drawing buffer. Its content is lost, as with a canvas resize.
func (d *Device) Resize(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.canvas = image.NewRGBA(image.Rect(0, 0, w, h))
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) CreateShader(stage gpu.Stage, src string) (gpu.Shader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !strings.Contains(src, "void main") {
		return 0, fmt.Errorf("%w: %s stage has no main", gpu.ErrCompile, stage)
	}
	s := gpu.Shader(d.handle())
	d.shaders[s] = &shader{stage: stage, src: src}
	d.stats.LiveShaders++
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
	prog := &program{
		attrs:    make(map[string]int),
		bindings: make(map[string]binding),
		flipY:    flipRe.MatchString(f.src),
	}
	for _, m := range attributeRe.FindAllStringSubmatch(v.src, -1) {
		prog.attrs[m[2]] = int(m[1][0] - '0')
	}
	p := gpu.Program(d.handle())
	d.programs[p] = prog
	d.stats.LivePrograms++
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
	d.stats.LiveBuffers++
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
	n, ok := prog.attrs[attr]
	if !ok {
		return fmt.Errorf("soft: program has no attribute %q", attr)
	}
	if n != size {
		return fmt.Errorf("soft: attribute %q has %d components, bound with %d", attr, n, size)
	}
	prog.bindings[attr] = binding{buf: b, size: size}
	return nil
}

func (d *Device) CreateTexture(params gpu.TextureParams) (gpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := gpu.Texture(d.handle())
	d.textures[t] = &texture{params: params}
	d.stats.LiveTextures++
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

func (d *Device) TexImage(t gpu.Texture, img image.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex, ok := d.textures[t]
	if !ok {
		return gpu.ErrUnknownHandle
	}
	b := img.Bounds()
	if tex.img == nil || tex.img.Rect.Dx() != b.Dx() || tex.img.Rect.Dy() != b.Dy() {
		if tex.img != nil {
			system.PutImage(tex.img)
		}
		tex.img = system.GetImage(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	xdraw.Draw(tex.img, tex.img.Rect, img, b.Min, xdraw.Src)
	d.stats.Uploads++
	return nil
}

func (d *Device) Viewport(x, y, w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = gpu.ViewportRect(x, y, w, h, d.canvas.Rect.Dy())
}

func (d *Device) Clear(c color.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	if !d.attrs.Alpha {
		rgba.A = 0xff
	}
	xdraw.Draw(d.canvas, d.canvas.Rect, image.NewUniform(rgba), image.Point{}, xdraw.Src)
	d.stats.Clears++
}

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[d.current]
	if !ok {
		return fmt.Errorf("soft: draw without program: %w", gpu.ErrUnknownHandle)
	}
	tex, ok := d.textures[d.bound]
	if !ok || tex.img == nil {
		return fmt.Errorf("soft: draw without texture content")
	}
	if len(prog.bindings) != 1 {
		return fmt.Errorf("soft: expected one bound position attribute, got %d", len(prog.bindings))
	}
	var bind binding
	for _, b := range prog.bindings {
		bind = b
	}
	data := d.buffers[bind.buf]
	if (first+count)*bind.size > len(data) || count < 3 {
		return fmt.Errorf("soft: draw range %d+%d exceeds buffer", first, count)
	}

	// Axis-aligned bounds of the primitive in clip space.
	minX, minY, maxX, maxY := float32(1), float32(1), float32(-1), float32(-1)
	for i := first; i < first+count; i++ {
		x, y := data[i*bind.size], data[i*bind.size+1]
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	toPx := func(cx, cy float32) image.Point {
		px, py := gpu.ClipToPixel(cx, cy, d.viewport)
		return image.Pt(int(px+0.5), int(py+0.5))
	}
	dr := image.Rectangle{Min: toPx(minX, maxY), Max: toPx(maxX, minY)}.Intersect(d.canvas.Rect)
	if dr.Empty() {
		d.stats.Draws++
		return nil
	}

	// Texture coordinates follow position*0.5+0.5; the source image row order
	// is top-down, which a flipping fragment stage shows upright.
	tw, th := tex.img.Rect.Dx(), tex.img.Rect.Dy()
	u0, v0 := gpu.ClipToTexel(minX, maxY, tw, th)
	u1, v1 := gpu.ClipToTexel(maxX, minY, tw, th)
	sr := image.Rect(int(u0), int(v0), int(u1), int(v1))

	var scaler xdraw.Scaler = xdraw.ApproxBiLinear
	if tex.params.MagFilter == gpu.FilterNearest {
		scaler = xdraw.NearestNeighbor
	}
	scaler.Scale(d.canvas, dr, tex.img, sr, xdraw.Src, nil)
	if !prog.flipY {
		mirrorRows(d.canvas, dr)
	}
	d.stats.Draws++
	return nil
}

func mirrorRows(img *image.RGBA, r image.Rectangle) {
	rowLen := r.Dx() * 4
	tmp := make([]byte, rowLen)
	for top, bottom := r.Min.Y, r.Max.Y-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := img.PixOffset(r.Min.X, top)
		b := img.PixOffset(r.Min.X, bottom)
		copy(tmp, img.Pix[a:a+rowLen])
		copy(img.Pix[a:a+rowLen], img.Pix[b:b+rowLen])
		copy(img.Pix[b:b+rowLen], tmp)
	}
}

func (d *Device) DeleteProgram(p gpu.Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.programs[p]; !ok {
		d.stats.BadDeletes++
		return gpu.ErrUnknownHandle
	}
	delete(d.programs, p)
	if d.current == p {
		d.current = 0
	}
	d.stats.LivePrograms--
	d.stats.DeletedPrograms++
	return nil
}

func (d *Device) DeleteShader(s gpu.Shader) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.shaders[s]; !ok {
		d.stats.BadDeletes++
		return gpu.ErrUnknownHandle
	}
	delete(d.shaders, s)
	d.stats.LiveShaders--
	d.stats.DeletedShaders++
	return nil
}

func (d *Device) DeleteTexture(t gpu.Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex, ok := d.textures[t]
	if !ok {
		d.stats.BadDeletes++
		return gpu.ErrUnknownHandle
	}
	if tex.img != nil {
		system.PutImage(tex.img)
	}
	delete(d.textures, t)
	if d.bound == t {
		d.bound = 0
	}
	d.stats.LiveTextures--
	d.stats.DeletedTextures++
	return nil
}

func (d *Device) DeleteBuffer(b gpu.Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[b]; !ok {
		d.stats.BadDeletes++
		return gpu.ErrUnknownHandle
	}
	delete(d.buffers, b)
	d.stats.LiveBuffers--
	d.stats.DeletedBuffers++
	return nil
}
