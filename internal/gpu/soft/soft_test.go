package soft

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/scrollframe/internal/gpu"
)

const (
	vs = `attribute vec2 position;
varying vec2 vTexCoord;
void main() { vTexCoord = position * 0.5 + 0.5; gl_Position = vec4(position, 0.0, 1.0); }`
	fsFlip = `uniform sampler2D t; varying vec2 vTexCoord;
void main() { gl_FragColor = texture2D(t, vec2(vTexCoord.x, 1.0 - vTexCoord.y)); }`
	fsPlain = `uniform sampler2D t; varying vec2 vTexCoord;
void main() { gl_FragColor = texture2D(t, vTexCoord); }`
)

var fullQuad = []float32{-1, -1, 1, -1, -1, 1, 1, 1}

func topRed(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y < h/2 {
				img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{G: 255, A: 255})
			}
		}
	}
	return img
}

func setup(t *testing.T, d *Device, fragment string, positions []float32) {
	t.Helper()
	v, err := d.CreateShader(gpu.StageVertex, vs)
	if err != nil {
		t.Fatal(err)
	}
	f, err := d.CreateShader(gpu.StageFragment, fragment)
	if err != nil {
		t.Fatal(err)
	}
	p, err := d.CreateProgram(v, f)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.UseProgram(p); err != nil {
		t.Fatal(err)
	}
	b, _ := d.CreateBuffer(positions)
	if err := d.BindAttribute(p, b, "position", 2); err != nil {
		t.Fatal(err)
	}
	tex, _ := d.CreateTexture(gpu.TextureParams{})
	if err := d.BindTexture(tex); err != nil {
		t.Fatal(err)
	}
	if err := d.TexImage(tex, topRed(4, 4)); err != nil {
		t.Fatal(err)
	}
}

func TestFlippingFragmentDrawsUpright(t *testing.T) {
	d := New(gpu.DefaultAttributes(), 16, 16)
	setup(t, d, fsFlip, fullQuad)
	if err := d.DrawArrays(gpu.TriangleStrip, 0, 4); err != nil {
		t.Fatal(err)
	}
	c := d.Canvas()
	if got := c.RGBAAt(8, 0); got.R < 250 {
		t.Errorf("top = %v, want red", got)
	}
	if got := c.RGBAAt(8, 15); got.G < 250 {
		t.Errorf("bottom = %v, want green", got)
	}
}

func TestPlainFragmentDrawsUpsideDown(t *testing.T) {
	d := New(gpu.DefaultAttributes(), 16, 16)
	setup(t, d, fsPlain, fullQuad)
	if err := d.DrawArrays(gpu.TriangleStrip, 0, 4); err != nil {
		t.Fatal(err)
	}
	c := d.Canvas()
	if got := c.RGBAAt(8, 0); got.G < 250 {
		t.Errorf("top = %v, want green", got)
	}
}

func TestViewportLimitsDraw(t *testing.T) {
	d := New(gpu.DefaultAttributes(), 20, 20)
	setup(t, d, fsFlip, fullQuad)
	d.Clear(color.Black)
	d.Viewport(0, 0, 10, 10) // bottom-left quarter
	if err := d.DrawArrays(gpu.TriangleStrip, 0, 4); err != nil {
		t.Fatal(err)
	}
	c := d.Canvas()
	if got := c.RGBAAt(15, 5); got != (color.RGBA{A: 255}) {
		t.Errorf("outside viewport = %v, want black", got)
	}
	if got := c.RGBAAt(5, 11); got.R < 250 {
		t.Errorf("viewport top = %v, want red", got)
	}
}

func TestClearIsOpaqueWithoutAlpha(t *testing.T) {
	d := New(gpu.ContextAttributes{Alpha: false}, 2, 2)
	d.Clear(color.RGBA{R: 10, A: 0})
	if got := d.Canvas().RGBAAt(0, 0); got.A != 255 {
		t.Errorf("alpha = %d, want 255", got.A)
	}
}

func TestDoubleDeleteIsRejected(t *testing.T) {
	d := New(gpu.DefaultAttributes(), 2, 2)
	tex, _ := d.CreateTexture(gpu.TextureParams{})
	if err := d.DeleteTexture(tex); err != nil {
		t.Fatal(err)
	}
	if err := d.DeleteTexture(tex); !errors.Is(err, gpu.ErrUnknownHandle) {
		t.Errorf("second delete = %v, want ErrUnknownHandle", err)
	}
	if err := d.DeleteBuffer(99); !errors.Is(err, gpu.ErrUnknownHandle) {
		t.Errorf("unknown buffer delete = %v", err)
	}
	st := d.Stats()
	if st.BadDeletes != 2 || st.DeletedTextures != 1 || st.LiveTextures != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestCompileAndLinkErrors(t *testing.T) {
	d := New(gpu.DefaultAttributes(), 2, 2)
	if _, err := d.CreateShader(gpu.StageVertex, "garbage"); !errors.Is(err, gpu.ErrCompile) {
		t.Errorf("compile err = %v", err)
	}
	v, _ := d.CreateShader(gpu.StageVertex, vs)
	if _, err := d.CreateProgram(v, v); !errors.Is(err, gpu.ErrLink) {
		t.Errorf("link err = %v", err)
	}
}

func TestBindUnknownAttribute(t *testing.T) {
	d := New(gpu.DefaultAttributes(), 2, 2)
	v, _ := d.CreateShader(gpu.StageVertex, vs)
	f, _ := d.CreateShader(gpu.StageFragment, fsFlip)
	p, _ := d.CreateProgram(v, f)
	b, _ := d.CreateBuffer(fullQuad)
	if err := d.BindAttribute(p, b, "uv", 2); err == nil {
		t.Error("expected error for undeclared attribute")
	}
	if err := d.BindAttribute(p, b, "position", 3); err == nil {
		t.Error("expected error for wrong component count")
	}
}

func TestDrawWithoutTextureContent(t *testing.T) {
	d := New(gpu.DefaultAttributes(), 2, 2)
	v, _ := d.CreateShader(gpu.StageVertex, vs)
	f, _ := d.CreateShader(gpu.StageFragment, fsFlip)
	p, _ := d.CreateProgram(v, f)
	d.UseProgram(p)
	b, _ := d.CreateBuffer(fullQuad)
	d.BindAttribute(p, b, "position", 2)
	tex, _ := d.CreateTexture(gpu.TextureParams{})
	d.BindTexture(tex)
	if err := d.DrawArrays(gpu.TriangleStrip, 0, 4); err == nil {
		t.Error("expected error drawing an empty texture")
	}
}
