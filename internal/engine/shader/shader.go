// Package shader provides OpenGL shader compilation utilities.
package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// WithDefines inserts a #define line per name directly after the #version
// directive, which must stay first. Sources without one get the defines
// prepended.
func WithDefines(source string, defines ...string) string {
	if len(defines) == 0 {
		return source
	}
	var block strings.Builder
	for _, d := range defines {
		block.WriteString("#define ")
		block.WriteString(d)
		block.WriteByte('\n')
	}

	trimmed := strings.TrimLeft(source, " \t\r\n")
	if !strings.HasPrefix(trimmed, "#version") {
		return block.String() + source
	}
	lead := len(source) - len(trimmed)
	end := strings.IndexByte(trimmed, '\n')
	if end < 0 {
		return source + "\n" + block.String()
	}
	cut := lead + end + 1
	return source[:cut] + block.String() + source[cut:]
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, max(logLen, 1))
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(string(log), "\x00"))
	}

	return program, nil
}

// CompileVariant compiles a program with the same defines applied to both stages.
func CompileVariant(vertexSrc, fragmentSrc string, defines ...string) (uint32, error) {
	return CompileProgram(WithDefines(vertexSrc, defines...), WithDefines(fragmentSrc, defines...))
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, max(logLen, 1))
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, strings.TrimRight(string(log), "\x00"))
	}

	return shader, nil
}

// GetUniform returns the uniform location for the given name, or -1 when
// the uniform is absent or optimized out.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// Uniforms caches uniform locations of one program.
type Uniforms struct {
	program uint32
	locs    map[string]int32
}

// NewUniforms returns an empty cache for program.
func NewUniforms(program uint32) *Uniforms {
	return &Uniforms{program: program, locs: make(map[string]int32)}
}

// Loc returns the cached location of name.
func (u *Uniforms) Loc(name string) int32 {
	if l, ok := u.locs[name]; ok {
		return l
	}
	l := GetUniform(u.program, name)
	u.locs[name] = l
	return l
}
