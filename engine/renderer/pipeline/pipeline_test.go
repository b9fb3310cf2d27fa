package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPipelineDefaults(t *testing.T) {
	p := NewPipeline("quad", PipelineTypeRender)

	assert.Equal(t, PipelineTypeRender, p.Type())
	assert.Equal(t, "quad", p.PipelineKey())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, p.Topology())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	assert.Equal(t, wgpu.Color{A: 1}, p.ClearColor())
	assert.False(t, p.Registered())

	require.True(t, p.BlendEnabled())
	bs := p.BlendState()
	require.NotNil(t, bs)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, bs.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, bs.Color.DstFactor)
	assert.Equal(t, wgpu.BlendFactorOne, bs.Alpha.SrcFactor)
}

func TestPipelineOptions(t *testing.T) {
	p := NewPipeline("lines", PipelineTypeRender,
		WithTopology(wgpu.PrimitiveTopologyLineList),
		WithBlendEnabled(false),
		WithCullMode(wgpu.CullModeBack),
		WithFrontFace(wgpu.FrontFaceCW),
		WithWriteMask(wgpu.ColorWriteMaskRed),
		WithClearColor(wgpu.Color{R: 1, A: 1}),
	)
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, p.Topology())
	assert.Nil(t, p.BlendState())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.FrontFaceCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskRed, p.WriteMask())
	assert.Equal(t, 1.0, p.ClearColor().R)
}

func TestPipelineShaders(t *testing.T) {
	cs, err := shader.NewShader("c", shader.ShaderTypeCompute, "@compute @workgroup_size(1) fn main() {}")
	require.NoError(t, err)

	p := NewPipeline("fill", PipelineTypeCompute, WithComputeShader(cs))
	assert.Equal(t, "compute", p.Type().String())
	assert.Same(t, cs, p.Shader(shader.ShaderTypeCompute))
	assert.Nil(t, p.Shader(shader.ShaderTypeVertex))
	assert.Nil(t, p.Shader(shader.ShaderTypeFragment))
	assert.Nil(t, p.ComputePipeline())
	assert.NotPanics(t, p.Release)
}
