package stage

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Variable names of the image bindings in the embedded programs.
const (
	outputImageVar   = "output_image"
	sourceImageVar   = "source_image"
	sourceSamplerVar = "source_sampler"
)

// ImageFormat is the texel format of the off-screen image.
const ImageFormat = wgpu.TextureFormatRGBA8Unorm

// ComputeStage owns the off-screen image and the compute pipeline that fills it.
// The image is created once at construction and never resized.
type ComputeStage struct {
	pipeline      pipeline.Pipeline
	provider      bind_group_provider.BindGroupProvider
	binding       int
	workgroupSize [3]uint32
	width         uint32
	height        uint32
}

// NewComputeStage creates the off-screen image, a bind group exposing it as write-only storage,
// and registers the compute pipeline on the Context.
//
// Parameters:
//   - ctx: the Context that owns the device
//   - set: the shader set holding the compute program
//   - width: image width in texels
//   - height: image height in texels
//
// Returns:
//   - *ComputeStage: the ready stage
//   - error: a wrapped error if any GPU object could not be created
func NewComputeStage(ctx *renderer.Context, set *shader.Set, width, height uint32) (*ComputeStage, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("stage: compute image size %dx%d must be non-zero", width, height)
	}

	binding, ok := set.Compute.BindGroupFromVarName(0, outputImageVar)
	if !ok {
		return nil, fmt.Errorf("stage: compute program does not declare %s in group 0", outputImageVar)
	}

	p := pipeline.NewPipeline(set.Compute.Key(), pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(set.Compute),
	)
	if err := ctx.RegisterPipelines(p); err != nil {
		return nil, err
	}

	s := &ComputeStage{
		pipeline:      ctx.Pipeline(p.PipelineKey()),
		provider:      bind_group_provider.NewBindGroupProvider("Compute Image"),
		binding:       binding,
		workgroupSize: set.Compute.WorkgroupSize(),
		width:         width,
		height:        height,
	}

	err := ctx.InitStorageTexture(s.provider, binding, common.StorageTextureStagingData{
		Width:    width,
		Height:   height,
		Format:   ImageFormat,
		Readable: true,
	})
	if err != nil {
		s.Release()
		return nil, err
	}
	if err := ctx.InitBindGroup(s.provider, set.Compute.BindGroupLayoutDescriptor(0)); err != nil {
		s.Release()
		return nil, err
	}

	common.Logger().Debug("compute stage ready", "width", width, "height", height, "workgroup", s.workgroupSize)
	return s, nil
}

// Image returns the off-screen image written by Dispatch.
func (s *ComputeStage) Image() *wgpu.Texture {
	return s.provider.Texture(s.binding)
}

// Size returns the fixed size of the off-screen image.
func (s *ComputeStage) Size() (width, height uint32) {
	return s.width, s.height
}

// WorkgroupCount returns the number of workgroups needed to cover a width x height grid
// with the compute program's workgroup size.
//
// Parameters:
//   - width: grid width in invocations
//   - height: grid height in invocations
//
// Returns:
//   - [3]uint32: workgroup counts in x, y and z
func (s *ComputeStage) WorkgroupCount(width, height uint32) [3]uint32 {
	return workgroupCount(s.workgroupSize, width, height)
}

func workgroupCount(size [3]uint32, width, height uint32) [3]uint32 {
	return [3]uint32{
		common.CeilDiv(width, max(size[0], 1)),
		common.CeilDiv(height, max(size[1], 1)),
		1,
	}
}

// Dispatch records one compute pass that writes every texel of a width x height region of the image.
// Invocations outside the image return early, so any size covering the image is valid.
//
// Parameters:
//   - encoder: the command encoder to record into
//   - width: region width in texels
//   - height: region height in texels
func (s *ComputeStage) Dispatch(encoder *wgpu.CommandEncoder, width, height uint32) {
	count := s.WorkgroupCount(width, height)

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(s.pipeline.ComputePipeline())
	pass.SetBindGroup(0, s.provider.BindGroup(), nil)
	pass.DispatchWorkgroups(count[0], count[1], count[2])
	pass.End()
	pass.Release()
}

// Release releases the bind group and the off-screen image. The pipeline is released by the Context.
func (s *ComputeStage) Release() {
	if s.provider != nil {
		s.provider.Release()
		s.provider = nil
	}
}
