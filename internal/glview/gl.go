package glview

import (
	"fmt"

	gl "github.com/go-gl/gl/v3.1/gles2"
)

// Texture is a 2D texture object.
type Texture struct {
	tex  uint32
	unit uint32
	w, h int
}

// CreateTexture allocates a texture bound to the given texture unit.
// Filtering is nearest so lookups match the host sampler.
func CreateTexture(unit uint32) (*Texture, error) {
	var tex uint32
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.GenTextures(1, &tex)
	if tex == 0 {
		return nil, fmt.Errorf("glGenTextures failed")
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	return &Texture{tex: tex, unit: unit}, nil
}

// Bind makes the texture current on its unit.
func (t *Texture) Bind() {
	gl.ActiveTexture(gl.TEXTURE0 + t.unit)
	gl.BindTexture(gl.TEXTURE_2D, t.tex)
}

// Upload replaces the texture contents. format is gl.RGB or gl.RGBA with
// tightly packed rows.
func (t *Texture) Upload(w, h int, format uint32, pix []byte) {
	if w <= 0 || h <= 0 || len(pix) == 0 {
		return
	}
	t.Bind()
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if w == t.w && h == t.h {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w), int32(h), format, gl.UNSIGNED_BYTE, gl.Ptr(pix))
		return
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(format), int32(w), int32(h), 0, format, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	t.w, t.h = w, h
}

func (t *Texture) Close() error {
	if t.tex != 0 {
		gl.DeleteTextures(1, &t.tex)
		t.tex = 0
	}
	return nil
}

type shader struct {
	id uint32
}

func infoLog(id uint32, get func(uint32, uint32, *int32), read func(uint32, int32, *int32, *uint8)) string {
	var length int32
	get(id, gl.INFO_LOG_LENGTH, &length)
	if length <= 0 {
		return ""
	}
	log := make([]uint8, length)
	var n int32
	read(id, length, &n, &log[0])
	return string(log[:n])
}

func compileShader(kind uint32, source string) (shader, error) {
	id := gl.CreateShader(kind)
	src, free := gl.Strs(source)
	defer free()
	gl.ShaderSource(id, 1, src, nil)
	gl.CompileShader(id)
	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		msg := infoLog(id, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(id)
		return shader{}, fmt.Errorf("shader compilation failed: %s", msg)
	}
	return shader{id}, nil
}

func (s shader) Close() {
	if s.id != 0 {
		gl.DeleteShader(s.id)
	}
}

// Program is a linked vertex + fragment shader pair.
type Program struct {
	id     uint32
	vs, fs shader
}

// CreateProgram compiles and links the two NUL-terminated sources.
func CreateProgram(vertexSrc, fragmentSrc string) (*Program, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, vertexSrc)
	if err != nil {
		return nil, fmt.Errorf("vertex: %w", err)
	}
	fs, err := compileShader(gl.FRAGMENT_SHADER, fragmentSrc)
	if err != nil {
		vs.Close()
		return nil, fmt.Errorf("fragment: %w", err)
	}
	id := gl.CreateProgram()
	gl.AttachShader(id, vs.id)
	gl.AttachShader(id, fs.id)
	gl.LinkProgram(id)
	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		msg := infoLog(id, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(id)
		vs.Close()
		fs.Close()
		return nil, fmt.Errorf("program link failed: %s", msg)
	}
	return &Program{id: id, vs: vs, fs: fs}, nil
}

func (p *Program) Attrib(name string) uint32 {
	return uint32(gl.GetAttribLocation(p.id, gl.Str(name+"\x00")))
}

func (p *Program) Uniform(name string) int32 {
	return gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
}

func (p *Program) Use() {
	gl.UseProgram(p.id)
}

func (p *Program) Close() error {
	p.vs.Close()
	p.fs.Close()
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
	return nil
}
