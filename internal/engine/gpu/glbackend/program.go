package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// CreateProgram compiles, links and wires a program's blocks and samplers to their slots.
func (d *Device) CreateProgram(desc gpu.ProgramDesc) (gpu.Program, error) {
	program, err := compileProgram(desc.Vertex, desc.Fragment)
	if err != nil {
		return gpu.NullProgram, fmt.Errorf("program %s: %w", desc.Name, err)
	}

	for _, b := range desc.Blocks {
		idx := gl.GetUniformBlockIndex(program, gl.Str(b.Name+"\x00"))
		if idx == gl.INVALID_INDEX {
			// Optimised out by the compiler; nothing to bind.
			d.log.Debug("uniform block inactive", zap.String("program", desc.Name), zap.String("block", b.Name))
			continue
		}
		gl.UniformBlockBinding(program, idx, bindingPoint(b.Stage, b.Slot))
	}

	gl.UseProgram(program)
	for _, t := range desc.Textures {
		loc := getUniform(program, t.Name)
		if loc < 0 {
			continue
		}
		gl.Uniform1i(loc, int32(textureUnit(t.Stage, t.Slot)))
	}
	gl.UseProgram(0)

	d.log.Debug("program created", zap.String("name", desc.Name), zap.Uint32("id", program))
	return gpu.Program(program), nil
}

// DeleteProgram implements gpu.Resources.
func (d *Device) DeleteProgram(p gpu.Program) {
	if p != gpu.NullProgram {
		gl.DeleteProgram(uint32(p))
	}
}

// compileProgram compiles vertex and fragment shaders and links them into a program.
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
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
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return program, nil
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
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return shader, nil
}

// getUniform returns the uniform location for the given name, or -1.
func getUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// CreateSampler implements gpu.Resources.
func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	var s uint32
	gl.GenSamplers(1, &s)

	filter := int32(gl.LINEAR)
	if desc.Filter == gpu.FilterNearest {
		filter = gl.NEAREST
	}
	wrap := int32(gl.REPEAT)
	if desc.Wrap == gpu.WrapClamp {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.SamplerParameteri(s, gl.TEXTURE_MIN_FILTER, filter)
	gl.SamplerParameteri(s, gl.TEXTURE_MAG_FILTER, filter)
	gl.SamplerParameteri(s, gl.TEXTURE_WRAP_S, wrap)
	gl.SamplerParameteri(s, gl.TEXTURE_WRAP_T, wrap)

	if err := glError("create sampler"); err != nil {
		gl.DeleteSamplers(1, &s)
		return gpu.NullSampler, err
	}
	return gpu.Sampler(s), nil
}

// DeleteSampler implements gpu.Resources.
func (d *Device) DeleteSampler(s gpu.Sampler) {
	id := uint32(s)
	if id != 0 {
		gl.DeleteSamplers(1, &id)
	}
}
