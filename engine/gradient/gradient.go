// Package gradient is the CPU reference for the image the compute program produces.
// It is used to check GPU output, not to draw anything on screen.
package gradient

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-compute/common"
)

// ErrSizeMismatch is returned by Compare and FromPixels when two images or a buffer and its
// declared dimensions disagree.
var ErrSizeMismatch = errors.New("gradient: size mismatch")

// Value returns the normalized color written at texel (x, y) of a width x height image.
// Red follows x, green follows y, blue is 0.5 and alpha is 1.
//
// Parameters:
//   - x: texel column
//   - y: texel row
//   - width: image width in texels
//   - height: image height in texels
//
// Returns:
//   - [4]float32: RGBA in the range [0, 1)
func Value(x, y, width, height uint32) [4]float32 {
	return [4]float32{
		float32(x) / float32(width),
		float32(y) / float32(height),
		0.5,
		1.0,
	}
}

// Texel returns Value quantized to 8-bit unsigned normalized channels.
func Texel(x, y, width, height uint32) color.RGBA {
	v := Value(x, y, width, height)
	return color.RGBA{R: unorm8(v[0]), G: unorm8(v[1]), B: unorm8(v[2]), A: unorm8(v[3])}
}

func unorm8(v float32) uint8 {
	return uint8(math.Round(float64(min(max(v, 0), 1)) * 255))
}

// Renderer builds reference images on a pool of reusable workers, one task per band of rows.
type Renderer struct {
	pool     worker.DynamicWorkerPool
	workers  int
	bandRows int
}

// NewRenderer creates a Renderer. The worker count defaults to one less than the number of CPUs
// and the band height to 32 rows.
//
// Parameters:
//   - options: functional options applied before the pool is created
//
// Returns:
//   - *Renderer: the renderer
func NewRenderer(options ...RendererOption) *Renderer {
	r := &Renderer{
		workers:  max(runtime.NumCPU()-1, 1),
		bandRows: 32,
	}
	for _, opt := range options {
		opt(r)
	}
	r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
	return r
}

// Render fills a width x height image with the reference gradient.
// Rows are split into bands that are rendered concurrently; Render returns once every band is done.
//
// Parameters:
//   - width: image width in pixels
//   - height: image height in pixels
//
// Returns:
//   - *image.RGBA: the reference image, row 0 first
func (r *Renderer) Render(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return img
	}

	// pool.Wait blocks until workers idle-exit, so bands are joined with a WaitGroup
	var wg sync.WaitGroup
	bands := int(common.CeilDiv(uint32(height), uint32(r.bandRows)))
	for band := range bands {
		y0 := band * r.bandRows
		y1 := min(y0+r.bandRows, height)

		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID: band,
			Do: func() (any, error) {
				defer wg.Done()
				fillRows(img, y0, y1)
				return nil, nil
			},
		})
	}
	wg.Wait()

	common.Logger().Debug("reference gradient rendered", "width", width, "height", height, "bands", bands)
	return img
}

// fillRows writes rows [y0, y1) of img. Bands never share rows, so concurrent calls on
// disjoint ranges do not race.
func fillRows(img *image.RGBA, y0, y1 int) {
	w, h := uint32(img.Rect.Dx()), uint32(img.Rect.Dy())
	for y := y0; y < y1; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+int(w)*4]
		for x := range w {
			c := Texel(x, uint32(y), w, h)
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
		}
	}
}

// Render builds the reference image with a default Renderer.
func Render(width, height int) *image.RGBA {
	return NewRenderer().Render(width, height)
}

// FromPixels wraps tightly packed RGBA rows in an image without copying.
//
// Parameters:
//   - pix: width*height*4 bytes, row 0 first
//   - width: image width in pixels
//   - height: image height in pixels
//
// Returns:
//   - *image.RGBA: an image backed by pix
//   - error: ErrSizeMismatch if len(pix) does not match the dimensions
func FromPixels(pix []byte, width, height int) (*image.RGBA, error) {
	if width < 0 || height < 0 || len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrSizeMismatch, len(pix), width, height)
	}
	return &image.RGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}, nil
}

// Diff summarizes a channel-by-channel comparison of two images.
type Diff struct {
	// MaxDelta is the largest absolute difference of any channel.
	MaxDelta uint8
	// Mismatches counts pixels with at least one channel differing by more than the tolerance.
	Mismatches int
	// First is the first mismatching pixel in row-major order, valid when Mismatches > 0.
	First image.Point
}

// Equal reports whether no pixel exceeded the tolerance.
func (d Diff) Equal() bool {
	return d.Mismatches == 0
}

// Compare compares two images of the same size channel by channel.
//
// Parameters:
//   - a: the first image
//   - b: the second image
//   - tolerance: the largest per-channel difference still counted as equal
//
// Returns:
//   - Diff: the comparison summary
//   - error: ErrSizeMismatch if the bounds differ
func Compare(a, b *image.RGBA, tolerance uint8) (Diff, error) {
	if a.Rect.Size() != b.Rect.Size() {
		return Diff{}, fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, a.Rect.Size(), b.Rect.Size())
	}

	var d Diff
	w, h := a.Rect.Dx(), a.Rect.Dy()
	for y := range h {
		ra := a.Pix[y*a.Stride : y*a.Stride+w*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+w*4]
		for x := range w {
			bad := false
			for c := range 4 {
				i := x*4 + c
				delta := absDiff(ra[i], rb[i])
				d.MaxDelta = max(d.MaxDelta, delta)
				if delta > tolerance {
					bad = true
				}
			}
			if bad {
				if d.Mismatches == 0 {
					d.First = image.Pt(x, y)
				}
				d.Mismatches++
			}
		}
	}
	return d, nil
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
