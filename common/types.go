// package common contains common types that are used throughout this module. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// StorageTextureStagingData describes a texture that a compute shader writes to and a render pass later samples.
// This is used by the renderer Context to create the GPU texture before any bind group references it.
type StorageTextureStagingData struct {
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Format is the texel format. It must be a format valid for storage textures (e.g. RGBA8Unorm).
	Format wgpu.TextureFormat
	// Readable adds CopySrc usage so the texture contents can be read back to the host.
	Readable bool
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// Zero fields fall back to the renderer defaults (linear filtering, clamp-to-edge addressing).
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// Extent is a width and height pair in pixels.
type Extent struct {
	Width  int
	Height int
}

// Empty reports whether either dimension is zero or negative.
func (e Extent) Empty() bool {
	return e.Width <= 0 || e.Height <= 0
}
