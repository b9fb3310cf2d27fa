package renderer

// ContextBuilderOption is a functional option applied to a Context during construction via NewContext.
type ContextBuilderOption func(*Context)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
// The default is PresentModeVSync.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - ContextBuilderOption: a function that applies the present mode option to a Context
func WithPresentMode(mode PresentMode) ContextBuilderOption {
	return func(c *Context) {
		c.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - ContextBuilderOption: a function that applies the force software renderer option to a Context
func WithForceSoftwareRenderer(force bool) ContextBuilderOption {
	return func(c *Context) {
		c.forceFallbackAdapter = force
	}
}

// WithDeviceLabel sets the debug label of the logical device.
func WithDeviceLabel(label string) ContextBuilderOption {
	return func(c *Context) {
		c.deviceLabel = label
	}
}
