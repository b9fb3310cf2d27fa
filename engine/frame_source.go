package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-compute/engine/stage"
	"github.com/cogentcore/webgpu/wgpu"
)

// Presenter is an acquired frame: the view to draw into, then exactly one of Present or Discard.
type Presenter interface {
	View() *wgpu.TextureView
	Present()
	Discard()
}

var _ Presenter = &renderer.Frame{}

// FrameSource is the GPU work of one frame split into the steps the frame loop orders.
// Every step that returns an error is fatal to the loop.
type FrameSource interface {
	// Compute encodes and submits the compute dispatch that fills the off-screen image.
	Compute() error

	// Acquire returns the next surface frame, reconfiguring and retrying once on failure.
	Acquire() (Presenter, error)

	// Render encodes and submits the pass that draws the off-screen image into target.
	Render(target *wgpu.TextureView) error

	// Resize applies a new surface size. The off-screen image keeps its size.
	Resize(width, height int)

	// Drawable reports whether a frame can currently be acquired.
	Drawable() bool

	// Recoveries returns how many acquisitions needed a reconfigure.
	Recoveries() uint64

	// Release frees all GPU objects in reverse creation order.
	Release()
}

// gpuFrameSource drives the compute and render stages on a surface-backed Context.
type gpuFrameSource struct {
	ctx     *renderer.Context
	compute *stage.ComputeStage
	render  *stage.RenderStage
}

var _ FrameSource = &gpuFrameSource{}

// newGPUFrameSource creates the Context for the surface, the shader set and both stages.
//
// Parameters:
//   - surface: the window's surface descriptor
//   - surfaceSize: the initial framebuffer size
//   - imageSize: the fixed size of the off-screen image
//   - options: Context options (present mode, software adapter)
//
// Returns:
//   - *gpuFrameSource: the ready frame source
//   - error: the first construction error, wrapped
func newGPUFrameSource(surface *wgpu.SurfaceDescriptor, surfaceSize, imageSize common.Extent, options ...renderer.ContextBuilderOption) (*gpuFrameSource, error) {
	if surface == nil {
		return nil, fmt.Errorf("engine: window has no surface")
	}
	if imageSize.Empty() {
		return nil, fmt.Errorf("engine: image size %dx%d must be positive", imageSize.Width, imageSize.Height)
	}

	set, err := shader.NewSet()
	if err != nil {
		return nil, err
	}

	ctx, err := renderer.NewContext(surface, surfaceSize.Width, surfaceSize.Height, options...)
	if err != nil {
		return nil, err
	}
	s := &gpuFrameSource{ctx: ctx}

	s.compute, err = stage.NewComputeStage(ctx, set, uint32(imageSize.Width), uint32(imageSize.Height))
	if err != nil {
		s.Release()
		return nil, err
	}
	s.render, err = stage.NewRenderStage(ctx, set, s.compute)
	if err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

func (s *gpuFrameSource) Compute() error {
	encoder, err := s.ctx.NewCommandEncoder("compute")
	if err != nil {
		return err
	}
	w, h := s.compute.Size()
	s.compute.Dispatch(encoder, w, h)
	return s.ctx.Submit(encoder)
}

func (s *gpuFrameSource) Acquire() (Presenter, error) {
	frame, err := s.ctx.AcquireFrame()
	if err != nil {
		return nil, err
	}
	return frame, nil
}

func (s *gpuFrameSource) Render(target *wgpu.TextureView) error {
	encoder, err := s.ctx.NewCommandEncoder("render")
	if err != nil {
		return err
	}
	s.render.Render(encoder, target)
	return s.ctx.Submit(encoder)
}

func (s *gpuFrameSource) Resize(width, height int) {
	s.ctx.Resize(width, height)
}

func (s *gpuFrameSource) Drawable() bool {
	return s.ctx.Drawable()
}

func (s *gpuFrameSource) Recoveries() uint64 {
	return s.ctx.Recoveries()
}

func (s *gpuFrameSource) Release() {
	if s.render != nil {
		s.render.Release()
		s.render = nil
	}
	if s.compute != nil {
		s.compute.Release()
		s.compute = nil
	}
	if s.ctx != nil {
		s.ctx.Release()
		s.ctx = nil
	}
}
