package renderer

import (
	"errors"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing. This is the default.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency. Falls back to VSync when the
	// surface does not support immediate presentation.
	PresentModeUncapped
)

var (
	// ErrNoAdapter is returned when no GPU adapter compatible with the surface could be found.
	ErrNoAdapter = errors.New("renderer: no compatible adapter")

	// ErrFrameAcquisition is returned when the next surface texture could not be acquired,
	// even after reconfiguring the surface once.
	ErrFrameAcquisition = errors.New("renderer: frame acquisition failed")

	// ErrHeadless is returned by surface operations on a Context created without a surface.
	ErrHeadless = errors.New("renderer: context has no surface")
)

// headlessFormat is the color format reported by a Context that has no surface.
const headlessFormat = wgpu.TextureFormatRGBA8Unorm

// resolvePresentMode maps a PresentMode onto a wgpu present mode the surface supports.
// FIFO is always supported, so it is the fallback.
//
// Parameters:
//   - mode: the requested PresentMode
//   - supported: the present modes reported by the surface capabilities
//
// Returns:
//   - wgpu.PresentMode: the wgpu present mode to configure
func resolvePresentMode(mode PresentMode, supported []wgpu.PresentMode) wgpu.PresentMode {
	if mode == PresentModeUncapped {
		for _, candidate := range []wgpu.PresentMode{wgpu.PresentModeImmediate, wgpu.PresentModeMailbox} {
			if slices.Contains(supported, candidate) {
				return candidate
			}
		}
	}
	return wgpu.PresentModeFifo
}

// resolveAlphaMode prefers opaque composition so the cleared black background is never blended
// with whatever lies behind the window.
func resolveAlphaMode(supported []wgpu.CompositeAlphaMode) wgpu.CompositeAlphaMode {
	if len(supported) == 0 || slices.Contains(supported, wgpu.CompositeAlphaModeOpaque) {
		return wgpu.CompositeAlphaModeOpaque
	}
	return supported[0]
}

// mergeBindGroupLayouts merges the bind group layout descriptors from a vertex and fragment shader
// into a unified set of descriptors suitable for a render pipeline layout.
//
// For each group index present in either shader:
//   - Entries with the same binding number have their Visibility flags ORed together
//   - Entries unique to one shader are included with their original visibility
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex shader
//   - fragmentLayouts: bind group layout descriptors from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, layouts := range []map[int]wgpu.BindGroupLayoutDescriptor{vertexLayouts, fragmentLayouts} {
		for g, desc := range layouts {
			existing, ok := merged[g]
			if !ok {
				merged[g] = wgpu.BindGroupLayoutDescriptor{
					Label:   desc.Label,
					Entries: slices.Clone(desc.Entries),
				}
				continue
			}
			for _, e := range desc.Entries {
				i := slices.IndexFunc(existing.Entries, func(x wgpu.BindGroupLayoutEntry) bool {
					return x.Binding == e.Binding
				})
				if i >= 0 {
					existing.Entries[i].Visibility |= e.Visibility
				} else {
					existing.Entries = append(existing.Entries, e)
				}
			}
			slices.SortFunc(existing.Entries, func(a, b wgpu.BindGroupLayoutEntry) int {
				return int(a.Binding) - int(b.Binding)
			})
			merged[g] = existing
		}
	}
	return merged
}

// groupCount returns one past the highest group index, the length a pipeline layout's group slice needs.
func groupCount(layouts map[int]wgpu.BindGroupLayoutDescriptor) int {
	maxGroup := -1
	for g := range layouts {
		maxGroup = max(maxGroup, g)
	}
	return maxGroup + 1
}
