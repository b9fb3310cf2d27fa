package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// copyBytesPerRowAlignment is the row pitch alignment WebGPU requires for texture-to-buffer copies.
const copyBytesPerRowAlignment = 256

// rgba8BytesPerPixel is the texel size of the RGBA8 formats ReadTexture supports.
const rgba8BytesPerPixel = 4

// paddedBytesPerRow returns the row pitch of a copy of a width-texel RGBA8 row.
func paddedBytesPerRow(width uint32) uint32 {
	return common.AlignUp(width*rgba8BytesPerPixel, copyBytesPerRowAlignment)
}

// unpadRows strips the per-row padding of a texture copy, returning tightly packed rows.
//
// Parameters:
//   - padded: the mapped copy, height rows of paddedRow bytes
//   - width: the texture width in texels
//   - height: the texture height in rows
//   - paddedRow: the row pitch used by the copy
//
// Returns:
//   - []byte: width*height*4 bytes in row-major order
func unpadRows(padded []byte, width, height, paddedRow uint32) []byte {
	row := width * rgba8BytesPerPixel
	if row == paddedRow {
		return append([]byte(nil), padded[:row*height]...)
	}
	out := make([]byte, 0, row*height)
	for y := range height {
		start := y * paddedRow
		out = append(out, padded[start:start+row]...)
	}
	return out
}

// ReadTexture copies an RGBA8 texture into host memory. The texture must have been created with
// CopySrc usage. The call blocks until the GPU has finished all previously submitted work.
//
// Parameters:
//   - tex: the texture to read
//   - width: texture width in texels
//   - height: texture height in texels
//
// Returns:
//   - []byte: tightly packed RGBA rows, top row first
//   - error: a wrapped error if the copy or the mapping failed
func (c *Context) ReadTexture(tex *wgpu.Texture, width, height uint32) ([]byte, error) {
	bytesPerRow := paddedBytesPerRow(width)
	size := uint64(bytesPerRow) * uint64(height)

	staging, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Staging Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := c.NewCommandEncoder("readback")
	if err != nil {
		return nil, err
	}
	err = encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: height,
			},
			Buffer: staging,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		encoder.Release()
		return nil, fmt.Errorf("renderer: copy texture to buffer: %w", err)
	}
	if err := c.Submit(encoder); err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("failed to map buffer: %v", status)
		} else {
			done <- nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: map staging buffer: %w", err)
	}

	c.device.Poll(true, nil)
	if err := <-done; err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	mapped := staging.GetMappedRange(0, uint(size))
	pixels := unpadRows(mapped, width, height, bytesPerRow)
	staging.Unmap()

	return pixels, nil
}
