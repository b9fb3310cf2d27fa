package renderer

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Context owns the WebGPU instance, adapter, device, queue and presentation surface, together with
// the surface configuration that is re-applied on every resize. A Context created without a surface
// descriptor is headless: it can create resources and submit work but cannot acquire frames.
//
// Context is not safe for concurrent use; it lives on the thread that created it.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	format   wgpu.TextureFormat
	config   wgpu.SurfaceConfiguration
	headless bool

	pipelines map[string]pipeline.Pipeline

	// configure applies a surface configuration. Swapped in tests.
	configure func(*wgpu.SurfaceConfiguration)
	// acquire returns the next surface texture. Swapped in tests.
	acquire func() (*wgpu.Texture, error)

	recoveries uint64

	// Pre-creation config collected from builder options
	presentMode          PresentMode
	forceFallbackAdapter bool
	deviceLabel          string
}

// NewContext creates the GPU instance, requests an adapter compatible with the surface, a device and its
// queue, negotiates the surface format and configures the surface at the given size.
// Passing a nil surfaceDescriptor creates a headless Context.
//
// Parameters:
//   - surfaceDescriptor: the platform surface to present to, or nil for headless use
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: a variadic list of ContextBuilderOption functions
//
// Returns:
//   - *Context: the ready Context
//   - error: ErrNoAdapter, or a wrapped device or surface error
func NewContext(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...ContextBuilderOption) (*Context, error) {
	runtime.LockOSThread()
	c := &Context{
		pipelines:   make(map[string]pipeline.Pipeline),
		presentMode: PresentModeVSync,
		deviceLabel: "Main Device",
		headless:    surfaceDescriptor == nil,
	}
	for _, opt := range options {
		opt(c)
	}

	c.instance = wgpu.CreateInstance(nil)
	if !c.headless {
		c.surface = c.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: c.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil || a == nil {
		c.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	c.adapter = a
	info := a.GetInfo()
	common.Logger().Info("adapter selected", "name", info.Name, "backend", info.BackendType.String(), "fallback", c.forceFallbackAdapter)

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: c.deviceLabel,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	c.device = d
	c.queue = d.GetQueue()

	if c.headless {
		c.format = headlessFormat
		c.config = wgpu.SurfaceConfiguration{Format: headlessFormat, Width: uint32(max(width, 0)), Height: uint32(max(height, 0))}
		return c, nil
	}

	capabilities := c.surface.GetCapabilities(c.adapter)
	if len(capabilities.Formats) == 0 {
		c.Release()
		return nil, fmt.Errorf("%w: surface reports no formats", ErrNoAdapter)
	}
	c.format = capabilities.Formats[0]
	c.config = wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.format,
		PresentMode: resolvePresentMode(c.presentMode, capabilities.PresentModes),
		AlphaMode:   resolveAlphaMode(capabilities.AlphaModes),
	}
	c.configure = func(cfg *wgpu.SurfaceConfiguration) {
		c.surface.Configure(c.adapter, c.device, cfg)
	}
	c.acquire = c.surface.GetCurrentTexture

	common.Logger().Info("surface negotiated", "format", c.format.String(), "present_mode", c.config.PresentMode, "alpha_mode", c.config.AlphaMode)
	c.Resize(width, height)
	return c, nil
}

// Device returns the logical device.
func (c *Context) Device() *wgpu.Device {
	return c.device
}

// Queue returns the device queue all command buffers are submitted to.
func (c *Context) Queue() *wgpu.Queue {
	return c.queue
}

// Format returns the negotiated surface format, or RGBA8Unorm for a headless Context.
func (c *Context) Format() wgpu.TextureFormat {
	return c.format
}

// SurfaceConfig returns a copy of the current surface configuration.
//
// Returns:
//   - wgpu.SurfaceConfiguration: the configuration last stored by Resize
func (c *Context) SurfaceConfig() wgpu.SurfaceConfiguration {
	return c.config
}

// Headless reports whether the Context was created without a surface.
func (c *Context) Headless() bool {
	return c.headless
}

// Drawable reports whether the surface can currently produce frames.
// A minimized window has a zero dimension and is not drawable.
//
// Returns:
//   - bool: true when a surface exists and both dimensions are non-zero
func (c *Context) Drawable() bool {
	return !c.headless && c.config.Width > 0 && c.config.Height > 0
}

// Recoveries returns how many frame acquisitions succeeded only after a reconfigure.
func (c *Context) Recoveries() uint64 {
	return c.recoveries
}

// Resize stores the new surface size and reconfigures the surface. It must be called for every
// resize notification. A zero dimension is stored but not applied; the surface is configured again
// once it becomes drawable.
//
// Parameters:
//   - width: the new width of the surface in pixels
//   - height: the new height of the surface in pixels
func (c *Context) Resize(width, height int) {
	c.config.Width = uint32(max(width, 0))
	c.config.Height = uint32(max(height, 0))
	common.Logger().Debug("surface resized", "width", c.config.Width, "height", c.config.Height, "drawable", c.Drawable())
	c.Reconfigure()
}

// Reconfigure re-applies the stored surface configuration unchanged.
// It does nothing while the surface is not drawable.
func (c *Context) Reconfigure() {
	if !c.Drawable() || c.configure == nil {
		return
	}
	cfg := c.config
	c.configure(&cfg)
}

// AcquireFrame acquires the next surface texture and creates a view of it. When acquisition fails the
// surface is reconfigured and acquisition is retried exactly once; a second failure is returned
// wrapping ErrFrameAcquisition and is meant to be treated as fatal.
//
// Returns:
//   - *Frame: the acquired frame, to be presented with Frame.Present
//   - error: ErrHeadless, or ErrFrameAcquisition wrapping the last acquisition error
func (c *Context) AcquireFrame() (*Frame, error) {
	if c.headless || c.acquire == nil {
		return nil, ErrHeadless
	}

	tex, recovered, err := acquireWithRecovery(c.acquire, c.Reconfigure)
	if recovered {
		c.recoveries++
	}
	if err != nil {
		return nil, err
	}
	return newFrame(tex, c.surface)
}

// NewCommandEncoder creates a labelled command encoder on the device.
//
// Parameters:
//   - label: debug label for the encoder
//
// Returns:
//   - *wgpu.CommandEncoder: the encoder
//   - error: a wrapped device error
func (c *Context) NewCommandEncoder(label string) (*wgpu.CommandEncoder, error) {
	encoder, err := c.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("renderer: create %s encoder: %w", label, err)
	}
	return encoder, nil
}

// Submit finishes the encoder and submits the resulting command buffer to the queue.
// The encoder is released in every case.
//
// Parameters:
//   - encoder: the encoder holding the recorded passes
//
// Returns:
//   - error: a wrapped error if the encoder could not be finished
func (c *Context) Submit(encoder *wgpu.CommandEncoder) error {
	defer encoder.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("renderer: finish command buffer: %w", err)
	}
	defer commandBuffer.Release()

	c.queue.Submit(commandBuffer)
	return nil
}

// Release releases all registered pipelines, then the device and the objects it was created from,
// in reverse creation order. The Context is unusable afterwards.
func (c *Context) Release() {
	for key, p := range c.pipelines {
		p.Release()
		delete(c.pipelines, key)
	}
	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
	c.configure = nil
	c.acquire = nil
}
