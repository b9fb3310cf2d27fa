package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Frame is one acquired surface texture and the view the render pass draws into.
// It must be presented exactly once with Present, which also releases it.
type Frame struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	surface *wgpu.Surface
}

func newFrame(tex *wgpu.Texture, surface *wgpu.Surface) (*Frame, error) {
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("%w: create frame view: %v", ErrFrameAcquisition, err)
	}
	return &Frame{texture: tex, view: view, surface: surface}, nil
}

// View returns the color target for this frame.
func (f *Frame) View() *wgpu.TextureView {
	return f.view
}

// Present queues the frame for display and releases the view and the surface texture.
// Calling Present more than once has no effect.
func (f *Frame) Present() {
	if f.texture == nil {
		return
	}
	f.surface.Present()
	f.Discard()
}

// Discard releases the frame without presenting it.
func (f *Frame) Discard() {
	if f.view != nil {
		f.view.Release()
		f.view = nil
	}
	if f.texture != nil {
		f.texture.Release()
		f.texture = nil
	}
}

// acquireWithRecovery runs acquire and, if it fails, calls reconfigure and runs acquire once more.
// There are never more than two attempts.
//
// Parameters:
//   - acquire: obtains the resource
//   - reconfigure: restores the state acquire depends on
//
// Returns:
//   - T: the acquired value, the zero value on failure
//   - bool: true if the value was obtained on the second attempt
//   - error: ErrFrameAcquisition wrapping the second failure
func acquireWithRecovery[T any](acquire func() (T, error), reconfigure func()) (T, bool, error) {
	var lastErr error
	for attempt := range 2 {
		v, err := acquire()
		if err == nil {
			return v, attempt > 0, nil
		}
		lastErr = err
		if attempt == 0 {
			common.Logger().Warn("frame acquisition failed, reconfiguring surface", "err", err)
			reconfigure()
		}
	}

	var zero T
	common.Logger().Error("frame acquisition failed after reconfigure", "err", lastErr)
	return zero, false, fmt.Errorf("%w: %w", ErrFrameAcquisition, lastErr)
}
