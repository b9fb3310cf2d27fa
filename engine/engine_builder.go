package engine

import (
	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer"
	"github.com/Carmen-Shannon/oxy-compute/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets the window the engine presents to and takes its events from.
//
// Parameters:
//   - w: a spawned Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithImageSize sets the fixed size of the off-screen image. It defaults to the window's initial size.
//
// Parameters:
//   - width: image width in texels
//   - height: image height in texels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithImageSize(width, height int) EngineBuilderOption {
	return func(e *engine) {
		e.imageSize = common.Extent{Width: width, Height: height}
	}
}

// WithPresentMode sets the surface present mode. The default is renderer.PresentModeVSync.
func WithPresentMode(mode renderer.PresentMode) EngineBuilderOption {
	return func(e *engine) {
		e.contextOptions = append(e.contextOptions, renderer.WithPresentMode(mode))
	}
}

// WithForceSoftwareRenderer requests the software fallback adapter.
func WithForceSoftwareRenderer(force bool) EngineBuilderOption {
	return func(e *engine) {
		e.contextOptions = append(e.contextOptions, renderer.WithForceSoftwareRenderer(force))
	}
}

// WithFrameSource replaces the GPU frame source. NewEngine then creates no GPU objects itself.
//
// Parameters:
//   - source: the FrameSource to drive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameSource(source FrameSource) EngineBuilderOption {
	return func(e *engine) {
		e.source = source
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}
