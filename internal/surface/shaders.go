package surface

import "github.com/ivlev/scrollframe/internal/gpu"

// The vertex stage maps the unit quad straight to clip space and derives
// texture coordinates from it. Decoded images are stored top row first while
// GL texture space starts at the bottom, hence the flip in the fragment stage.
const (
	vertexGLSL = `
attribute vec2 position;
varying vec2 vTexCoord;
void main() {
    vTexCoord = position * 0.5 + 0.5;
    gl_Position = vec4(position, 0.0, 1.0);
}
`
	fragmentGLSL = `
precision mediump float;
uniform sampler2D uTexture;
varying vec2 vTexCoord;
void main() {
    gl_FragColor = texture2D(uTexture, vec2(vTexCoord.x, 1.0 - vTexCoord.y));
}
`
	// Kage has no programmable vertex stage; the ebiten backend maps the
	// quad to pixels itself.
	vertexKage   = ""
	fragmentKage = `//kage:unit pixels

package main

func texel(p vec2) vec4 {
	origin := imageSrc0Origin()
	return imageSrc0At(clamp(p, origin+0.5, origin+imageSrc0Size()-0.5))
}

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	p := srcPos - 0.5
	f := fract(p)
	p = floor(p) + 0.5
	top := mix(texel(p), texel(p+vec2(1, 0)), f.x)
	bottom := mix(texel(p+vec2(0, 1)), texel(p+vec2(1, 1)), f.x)
	return mix(top, bottom, f.y)
}
`
)

type shaderPair struct {
	vertex, fragment string
}

var blitShaders = map[gpu.Dialect]shaderPair{
	gpu.DialectGLSL: {vertexGLSL, fragmentGLSL},
	gpu.DialectKage: {vertexKage, fragmentKage},
}

// quad is the full-surface triangle strip in clip space.
var quad = []float32{
	-1, -1,
	1, -1,
	-1, 1,
	1, 1,
}

const positionAttr = "position"
