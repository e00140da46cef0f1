// Package gpu is the narrow slice of a GL-style context that the surface
// manager needs: one program, one vertex buffer, one texture, one draw call.
//
// Handles are plain integers owned by the Device that issued them. Deleting a
// handle twice, or one the device never issued, is reported as ErrUnknownHandle.
package gpu

import (
	"errors"
	"image"
	"image/color"
)

var (
	ErrUnavailable   = errors.New("gpu: context unavailable")
	ErrUnknownHandle = errors.New("gpu: unknown or released handle")
	ErrCompile       = errors.New("gpu: shader compile failed")
	ErrLink          = errors.New("gpu: program link failed")
)

type (
	Shader  uint32
	Program uint32
	Buffer  uint32
	Texture uint32
)

type Stage int

const (
	StageVertex Stage = iota
	StageFragment
)

func (s Stage) String() string {
	if s == StageVertex {
		return "vertex"
	}
	return "fragment"
}

// Dialect names the shading language a device compiles.
type Dialect int

const (
	DialectGLSL Dialect = iota // GLSL ES 1.00, as WebGL 1 takes it
	// DialectKage devices compile only the fragment stage. Their vertex stage
	// is fixed: a 2D "position" attribute in clip space, texture coordinates
	// position*0.5+0.5 flipped vertically. Vertex sources are empty.
	DialectKage
)

type Wrap int

const (
	WrapClampToEdge Wrap = iota
	WrapRepeat
)

type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

type Primitive int

const (
	TriangleStrip Primitive = iota
	Triangles
)

type TextureParams struct {
	WrapS, WrapT         Wrap
	MinFilter, MagFilter Filter
}

// ContextAttributes mirrors the attributes requested when the drawing context is created.
type ContextAttributes struct {
	Alpha           bool
	Antialias       bool
	PowerPreference string
}

// DefaultAttributes is the opaque, aliased, high-performance context the background asks for.
func DefaultAttributes() ContextAttributes {
	return ContextAttributes{PowerPreference: "high-performance"}
}

type Device interface {
	Dialect() Dialect

	CreateShader(stage Stage, src string) (Shader, error)
	CreateProgram(vs, fs Shader) (Program, error)
	UseProgram(p Program) error

	// CreateBuffer uploads static vertex data; BindAttribute feeds it to the
	// named attribute of p, size components per vertex.
	CreateBuffer(data []float32) (Buffer, error)
	BindAttribute(p Program, b Buffer, attr string, size int) error

	CreateTexture(params TextureParams) (Texture, error)
	BindTexture(t Texture) error
	// TexImage replaces the whole content of t with img.
	TexImage(t Texture, img image.Image) error

	Viewport(x, y, w, h int)
	Clear(c color.Color)
	DrawArrays(mode Primitive, first, count int) error

	DeleteProgram(p Program) error
	DeleteShader(s Shader) error
	DeleteTexture(t Texture) error
	DeleteBuffer(b Buffer) error
}

// Provider creates a device for a drawing surface of w x h pixels.
// It returns an error wrapping ErrUnavailable when the host has no GPU context.
type Provider func(attrs ContextAttributes, w, h int) (Device, error)

// Unavailable is a Provider for hosts without a GPU context.
func Unavailable(ContextAttributes, int, int) (Device, error) {
	return nil, ErrUnavailable
}
