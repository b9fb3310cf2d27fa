package gradient

// RendererOption is a functional option applied to a Renderer by NewRenderer.
type RendererOption func(*Renderer)

// WithWorkers sets the maximum number of workers. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererOption: option function to apply
func WithWorkers(n int) RendererOption {
	return func(r *Renderer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithBandRows sets how many rows one task renders. Values below 1 are ignored.
//
// Parameters:
//   - rows: rows per band
//
// Returns:
//   - RendererOption: option function to apply
func WithBandRows(rows int) RendererOption {
	return func(r *Renderer) {
		if rows > 0 {
			r.bandRows = rows
		}
	}
}
