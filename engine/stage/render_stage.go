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

// RenderStage draws the off-screen image of a ComputeStage onto a full-screen quad.
// It owns its sampler, the quad vertex buffer, a sampled view of the image and the bind group.
type RenderStage struct {
	pipeline pipeline.Pipeline
	provider bind_group_provider.BindGroupProvider
}

// NewRenderStage creates the sampler, the quad vertex buffer and a bind group that samples the
// compute stage's image, then registers the render pipeline targeting the Context's surface format.
//
// Parameters:
//   - ctx: the Context that owns the device
//   - set: the shader set holding the render program
//   - compute: the stage whose image is drawn
//
// Returns:
//   - *RenderStage: the ready stage
//   - error: a wrapped error if any GPU object could not be created
func NewRenderStage(ctx *renderer.Context, set *shader.Set, compute *ComputeStage) (*RenderStage, error) {
	imageBinding, ok := set.Fragment.BindGroupFromVarName(0, sourceImageVar)
	if !ok {
		return nil, fmt.Errorf("stage: render program does not declare %s in group 0", sourceImageVar)
	}
	samplerBinding, ok := set.Fragment.BindGroupFromVarName(0, sourceSamplerVar)
	if !ok {
		return nil, fmt.Errorf("stage: render program does not declare %s in group 0", sourceSamplerVar)
	}

	p := pipeline.NewPipeline("render", pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(set.Vertex),
		pipeline.WithFragmentShader(set.Fragment),
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		pipeline.WithBlendEnabled(true),
		pipeline.WithClearColor(wgpu.Color{R: 0, G: 0, B: 0, A: 1}),
	)
	if err := ctx.RegisterPipelines(p); err != nil {
		return nil, err
	}

	view, err := compute.Image().CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("stage: create sampled image view: %w", err)
	}

	s := &RenderStage{
		pipeline: ctx.Pipeline(p.PipelineKey()),
		provider: bind_group_provider.NewBindGroupProvider("Quad",
			bind_group_provider.WithTextureView(imageBinding, view),
		),
	}

	if err := ctx.InitSampler(s.provider, samplerBinding, common.SamplerStagingData{}); err != nil {
		s.Release()
		return nil, err
	}
	if err := ctx.InitVertexBuffer(s.provider, quadBytes(), uint32(len(QuadVertices))); err != nil {
		s.Release()
		return nil, err
	}
	if err := ctx.InitBindGroup(s.provider, s.pipeline.Shader(shader.ShaderTypeFragment).BindGroupLayoutDescriptor(0)); err != nil {
		s.Release()
		return nil, err
	}

	common.Logger().Debug("render stage ready", "format", ctx.Format().String())
	return s, nil
}

// Render records a render pass that clears the target and draws the quad.
//
// Parameters:
//   - encoder: the command encoder to record into
//   - target: the color attachment, normally the acquired frame's view
func (s *RenderStage) Render(encoder *wgpu.CommandEncoder, target *wgpu.TextureView) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Quad Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       target,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: s.pipeline.ClearColor(),
			},
		},
	})
	pass.SetPipeline(s.pipeline.RenderPipeline())
	pass.SetBindGroup(0, s.provider.BindGroup(), nil)
	pass.SetVertexBuffer(0, s.provider.VertexBuffer(), 0, wgpu.WholeSize)
	pass.Draw(s.provider.VertexCount(), 1, 0, 0)
	pass.End()
	pass.Release()
}

// Release releases the bind group, the sampler, the image view and the vertex buffer.
// The image itself belongs to the ComputeStage.
func (s *RenderStage) Release() {
	if s.provider != nil {
		s.provider.Release()
		s.provider = nil
	}
}
