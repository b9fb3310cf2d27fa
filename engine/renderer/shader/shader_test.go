package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeShaderReflection(t *testing.T) {
	s, err := NewShader("compute", ShaderTypeCompute, computeSource, WithEntryPoint(ComputeEntryPoint))
	require.NoError(t, err)

	assert.Equal(t, "main", s.EntryPoint())
	assert.Equal(t, [3]uint32{8, 8, 1}, s.WorkgroupSize())
	assert.Empty(t, s.VertexLayouts())

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 1)
	e := desc.Entries[0]
	assert.Equal(t, uint32(0), e.Binding)
	assert.Equal(t, wgpu.ShaderStageCompute, e.Visibility)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, e.StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, e.StorageTexture.Access)
	assert.Equal(t, wgpu.TextureViewDimension2D, e.StorageTexture.ViewDimension)

	assert.Equal(t, "output_image", s.BindGroupVarName(0, 0))
	b, ok := s.BindGroupFromVarName(0, "output_image")
	assert.True(t, ok)
	assert.Equal(t, 0, b)

	require.NotNil(t, s.Module())
	assert.Equal(t, "compute", s.Module().Label)
	assert.Equal(t, computeSource, s.Module().WGSLDescriptor.Code)
}

func TestRenderShaderReflection(t *testing.T) {
	vs, err := NewShader("vertex", ShaderTypeVertex, renderSource, WithEntryPoint(VertexEntryPoint))
	require.NoError(t, err)
	fs, err := NewShader("fragment", ShaderTypeFragment, renderSource, WithEntryPoint(FragmentEntryPoint))
	require.NoError(t, err)

	// the vertex stage never touches the image or sampler
	assert.Empty(t, vs.BindGroupLayoutDescriptors())

	layouts := vs.VertexLayouts()
	require.Len(t, layouts, 1)
	require.Len(t, layouts[0], 1)
	vl := layouts[0][0]
	assert.Equal(t, uint64(16), vl.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, vl.StepMode)
	require.Len(t, vl.Attributes, 2)
	assert.Equal(t, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, vl.Attributes[0])
	assert.Equal(t, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, vl.Attributes[1])

	desc := fs.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 2)
	assert.Equal(t, wgpu.ShaderStageFragment, desc.Entries[0].Visibility)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, desc.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, desc.Entries[0].Texture.ViewDimension)
	assert.Equal(t, uint32(1), desc.Entries[1].Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, desc.Entries[1].Sampler.Type)
	assert.Equal(t, [3]uint32{}, fs.WorkgroupSize())
}

func TestMissingEntryPoint(t *testing.T) {
	_, err := NewShader("render", ShaderTypeCompute, renderSource)
	assert.ErrorIs(t, err, ErrMissingEntryPoint)

	_, err = NewShader("compute", ShaderTypeCompute, computeSource, WithEntryPoint("fill"))
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
	assert.Contains(t, err.Error(), `"fill"`)
}

func TestEntryPointDefaultsToFirst(t *testing.T) {
	src := `
@vertex fn first() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@vertex fn second() -> @builtin(position) vec4<f32> { return vec4<f32>(1.0); }
`
	s, err := NewShader("two", ShaderTypeVertex, src)
	require.NoError(t, err)
	assert.Equal(t, "first", s.EntryPoint())
	assert.Equal(t, []string{"first", "second"}, parseEntryPoints(src, ShaderTypeVertex))
}

func TestBindingReachability(t *testing.T) {
	src := `
@group(0) @binding(0) var<uniform> scale: f32;
@group(0) @binding(1) var tex: texture_2d<f32>;
@group(1) @binding(0) var samp: sampler;

fn helper(uv: vec2<f32>) -> vec4<f32> {
    return textureSample(tex, samp, uv);
}

@vertex
fn vs_main() -> @builtin(position) vec4<f32> {
    return vec4<f32>(scale, 0.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    // scale is mentioned only in this comment
    return helper(vec2<f32>(0.5, 0.5));
}
`
	vs, err := NewShader("v", ShaderTypeVertex, src)
	require.NoError(t, err)
	fs, err := NewShader("f", ShaderTypeFragment, src)
	require.NoError(t, err)

	vd := vs.BindGroupLayoutDescriptors()
	require.Len(t, vd, 1)
	require.Len(t, vd[0].Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, vd[0].Entries[0].Buffer.Type)

	fd := fs.BindGroupLayoutDescriptors()
	require.Len(t, fd, 2)
	require.Len(t, fd[0].Entries, 1)
	assert.Equal(t, uint32(1), fd[0].Entries[0].Binding)
	assert.Equal(t, "samp", fs.BindGroupVarName(1, 0))
	_, ok := fs.BindGroupFromVarName(0, "scale")
	assert.False(t, ok)
}

func TestWorkgroupSizeDefaults(t *testing.T) {
	assert.Equal(t, [3]uint32{1, 1, 1}, parseWorkgroupSize("@compute fn main() {}"))
	assert.Equal(t, [3]uint32{64, 1, 1}, parseWorkgroupSize("@compute @workgroup_size(64) fn main() {}"))
	assert.Equal(t, [3]uint32{16, 4, 1}, parseWorkgroupSize("@compute @workgroup_size( 16 , 4 ) fn main() {}"))
}

func TestStripComments(t *testing.T) {
	src := "a /* b /* nested */ c */ d // e\nf"
	assert.Equal(t, "a  d \nf", stripComments(src))
}

func TestClassifyResource(t *testing.T) {
	e := classifyResource(2, wgpu.ShaderStageCompute, "storage, read_write", "array<f32>")
	assert.Equal(t, wgpu.BufferBindingTypeStorage, e.Buffer.Type)

	e = classifyResource(0, wgpu.ShaderStageFragment, "storage", "array<f32>")
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, e.Buffer.Type)

	e = classifyResource(0, wgpu.ShaderStageFragment, "", "texture_depth_2d")
	assert.Equal(t, wgpu.TextureSampleTypeDepth, e.Texture.SampleType)

	e = classifyResource(0, wgpu.ShaderStageFragment, "", "sampler_comparison")
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, e.Sampler.Type)

	e = classifyResource(0, wgpu.ShaderStageCompute, "", "texture_storage_2d<rgba16float, read_write>")
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, e.StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessReadWrite, e.StorageTexture.Access)
}

func TestShaderTypeString(t *testing.T) {
	assert.Equal(t, "compute", ShaderTypeCompute.String())
	assert.Equal(t, "fragment", ShaderTypeFragment.String())
	assert.True(t, strings.HasPrefix(ShaderType(9).String(), "ShaderType("))
	assert.Equal(t, wgpu.ShaderStageNone, ShaderType(9).Visibility())
}
