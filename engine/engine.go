package engine

import (
	"errors"
	"time"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/profiler"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer"
	"github.com/Carmen-Shannon/oxy-compute/engine/window"
)

// ErrNoWindow is returned by NewEngine when no window was supplied with WithWindow.
var ErrNoWindow = errors.New("engine: no window")

// engine implements the Engine interface.
// All state is owned by the thread that runs the window's message loop.
type engine struct {
	window window.Window
	source FrameSource

	profiler         *profiler.Profiler
	profilingEnabled bool

	imageSize        common.Extent
	contextOptions   []renderer.ContextBuilderOption
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	frames uint64
	closed bool
	err    error
}

// Engine is the main entry point for the application.
// It owns the window and the GPU frame source and runs the event-driven frame loop.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// RenderFrame runs one frame: compute submit, frame acquisition, render submit, present.
	//
	// Returns:
	//   - error: the first failing step's error; the frame is not presented
	RenderFrame() error

	// Resize applies a new surface size and redraws. The off-screen image is not resized.
	//
	// Parameters:
	//   - width: new framebuffer width in pixels
	//   - height: new framebuffer height in pixels
	Resize(width, height int)

	// Frames returns the number of presented frames.
	Frames() uint64

	// ImageSize returns the fixed size of the off-screen image.
	ImageSize() common.Extent

	// Run runs the message loop until the window closes or a frame fails.
	//
	// Returns:
	//   - error: nil after a close request, otherwise the fatal frame error
	Run() error

	// Quit stops the loop after the current iteration. No frame is submitted afterwards.
	// Safe to call multiple times.
	Quit()

	// Release releases the GPU objects and then destroys the window.
	Release()
}

var _ Engine = &engine{}

// NewEngine creates an Engine with the provided options. Unless a FrameSource is supplied, the GPU
// context, shaders and both stages are created for the window's surface; the off-screen image defaults
// to the window's initial size.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrNoWindow, or the first GPU construction error
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		profiler: profiler.NewProfiler(),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		return nil, ErrNoWindow
	}
	surfaceSize := common.Extent{Width: e.window.Width(), Height: e.window.Height()}
	if e.imageSize.Empty() {
		e.imageSize = surfaceSize
	}

	if e.source == nil {
		src, err := newGPUFrameSource(e.window.SurfaceDescriptor(), surfaceSize, e.imageSize, e.contextOptions...)
		if err != nil {
			return nil, err
		}
		e.source = src
	}

	e.window.SetUpdateCallback(e.redraw)
	e.window.SetResizeCallback(e.Resize)
	e.window.SetCloseCallback(e.Quit)

	common.Logger().Info("engine ready", "image_width", e.imageSize.Width, "image_height", e.imageSize.Height)
	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) Frames() uint64 {
	return e.frames
}

func (e *engine) ImageSize() common.Extent {
	return e.imageSize
}

func (e *engine) Run() error {
	e.window.ProcessMessages()
	if e.err != nil {
		return e.err
	}
	common.Logger().Info("window closed", "frames", e.frames)
	return nil
}

func (e *engine) Quit() {
	if e.closed {
		return
	}
	e.closed = true
	e.window.RequestClose()
}

func (e *engine) Resize(width, height int) {
	if e.closed {
		return
	}
	e.source.Resize(width, height)
	e.redraw()
}

func (e *engine) RenderFrame() error {
	if err := e.source.Compute(); err != nil {
		return err
	}

	frame, err := e.source.Acquire()
	if err != nil {
		return err
	}

	if err := e.source.Render(frame.View()); err != nil {
		frame.Discard()
		return err
	}
	frame.Present()
	e.frames++
	return nil
}

// redraw runs one frame unless the loop is stopping or the surface has no area.
// A frame error is recorded, logged and stops the loop.
func (e *engine) redraw() {
	if e.closed || e.err != nil || !e.source.Drawable() {
		return
	}

	start := time.Now()
	if err := e.RenderFrame(); err != nil {
		common.Logger().Error("frame failed", "err", err, "frames", e.frames)
		e.err = err
		e.Quit()
		return
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(e.source.Recoveries())
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

func (e *engine) Release() {
	if e.source != nil {
		e.source.Release()
		e.source = nil
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			common.Logger().Debug("window close", "err", err)
		}
	}
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
