package shader

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/gogpu/naga"
)

// Entry point names the pipelines are built against.
const (
	ComputeEntryPoint  = "main"
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

//go:embed assets/compute.wgsl
var computeSource string

//go:embed assets/render.wgsl
var renderSource string

// Set holds the reflected stages of the compute program and the render program.
type Set struct {
	Compute  Shader
	Vertex   Shader
	Fragment Shader
}

// NewSet loads the embedded compute and render programs.
//
// Returns:
//   - *Set: the validated and reflected shader stages
//   - error: ErrCompilation or ErrMissingEntryPoint if either program is unusable
func NewSet() (*Set, error) {
	return NewSetFromSource(computeSource, renderSource)
}

// NewSetFromSource validates both programs by compiling them to SPIR-V and then reflects each stage.
// The compute program must declare @compute main and the render program must declare
// @vertex vs_main and @fragment fs_main.
//
// Parameters:
//   - compute: WGSL source of the compute program
//   - render: WGSL source of the vertex and fragment program
//
// Returns:
//   - *Set: the reflected shader stages
//   - error: ErrCompilation or ErrMissingEntryPoint wrapped with the failing program name
func NewSetFromSource(compute, render string) (*Set, error) {
	if err := Validate("compute", compute); err != nil {
		return nil, err
	}
	if err := Validate("render", render); err != nil {
		return nil, err
	}

	cs, err := NewShader("compute", ShaderTypeCompute, compute, WithEntryPoint(ComputeEntryPoint))
	if err != nil {
		return nil, err
	}
	vs, err := NewShader("render_vertex", ShaderTypeVertex, render, WithEntryPoint(VertexEntryPoint))
	if err != nil {
		return nil, err
	}
	fs, err := NewShader("render_fragment", ShaderTypeFragment, render, WithEntryPoint(FragmentEntryPoint))
	if err != nil {
		return nil, err
	}

	return &Set{Compute: cs, Vertex: vs, Fragment: fs}, nil
}

// Validate compiles WGSL source to SPIR-V and checks the module header.
//
// Parameters:
//   - name: program name used in errors and logs
//   - source: the WGSL source code
//
// Returns:
//   - error: ErrCompilation wrapping the compiler diagnostic, or nil
func Validate(name, source string) error {
	spirv, err := naga.Compile(source)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCompilation, name, err)
	}
	if len(spirv) < 20 || binary.LittleEndian.Uint32(spirv) != spirvMagic {
		return fmt.Errorf("%w: %s: malformed SPIR-V output (%d bytes)", ErrCompilation, name, len(spirv))
	}
	common.Logger().Debug("shader validated", "program", name, "spirv_bytes", len(spirv))
	return nil
}
