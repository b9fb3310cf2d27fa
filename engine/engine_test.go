package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer"
	"github.com/Carmen-Shannon/oxy-compute/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow replays a script of events. Each step runs as one message loop iteration
// followed by the update callback, like the GLFW loop.
type fakeWindow struct {
	width, height int
	running       bool
	closeNotified bool
	closedCalls   int
	script        []func(w *fakeWindow)

	onUpdate func()
	onResize func(width, height int)
	onClose  func()
}

var _ window.Window = &fakeWindow{}

func newFakeWindow(steps ...func(w *fakeWindow)) *fakeWindow {
	return &fakeWindow{width: 512, height: 512, running: true, script: steps}
}

func (w *fakeWindow) SetUpdateCallback(cb func())                 { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetCloseCallback(cb func())                  { w.onClose = cb }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor  { return nil }
func (w *fakeWindow) IsRunning() bool                             { return w.running }
func (w *fakeWindow) Width() int                                  { return w.width }
func (w *fakeWindow) Height() int                                 { return w.height }

func (w *fakeWindow) RequestClose() {
	w.running = false
	if !w.closeNotified {
		w.closeNotified = true
		if w.onClose != nil {
			w.onClose()
		}
	}
}

func (w *fakeWindow) Close() error {
	w.closedCalls++
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	for _, step := range w.script {
		if !w.running {
			return
		}
		step(w)
		if !w.running {
			return
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

// idle is a loop iteration with no events.
func idle(*fakeWindow) {}

func resize(width, height int) func(w *fakeWindow) {
	return func(w *fakeWindow) {
		w.width, w.height = width, height
		w.onResize(width, height)
	}
}

// userClose mimics the user closing the window.
func userClose(w *fakeWindow) {
	w.RequestClose()
}

type fakeFrame struct {
	log *[]string
}

func (f *fakeFrame) View() *wgpu.TextureView { return nil }
func (f *fakeFrame) Present()                { *f.log = append(*f.log, "present") }
func (f *fakeFrame) Discard()                { *f.log = append(*f.log, "discard") }

type fakeSource struct {
	log        []string
	width      int
	height     int
	computeErr error
	acquireErr error
	renderErr  error
	recoveries uint64
	released   bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{width: 512, height: 512}
}

func (s *fakeSource) Compute() error {
	s.log = append(s.log, "compute")
	return s.computeErr
}

func (s *fakeSource) Acquire() (Presenter, error) {
	s.log = append(s.log, "acquire")
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	return &fakeFrame{log: &s.log}, nil
}

func (s *fakeSource) Render(*wgpu.TextureView) error {
	s.log = append(s.log, "render")
	return s.renderErr
}

func (s *fakeSource) Resize(width, height int) {
	s.width, s.height = width, height
	s.log = append(s.log, fmt.Sprintf("resize %dx%d", width, height))
}

func (s *fakeSource) Drawable() bool     { return s.width > 0 && s.height > 0 }
func (s *fakeSource) Recoveries() uint64 { return s.recoveries }
func (s *fakeSource) Release()           { s.released = true }

var frameSteps = []string{"compute", "acquire", "render", "present"}

func frames(n int) []string {
	var out []string
	for range n {
		out = append(out, frameSteps...)
	}
	return out
}

func newTestEngine(t *testing.T, w *fakeWindow, src *fakeSource, options ...EngineBuilderOption) Engine {
	t.Helper()
	e, err := NewEngine(append([]EngineBuilderOption{WithWindow(w), WithFrameSource(src)}, options...)...)
	require.NoError(t, err)
	return e
}

func TestNewEngineRequiresWindow(t *testing.T) {
	_, err := NewEngine(WithFrameSource(newFakeSource()))
	assert.ErrorIs(t, err, ErrNoWindow)
}

func TestNewEngineWithoutSurfaceFails(t *testing.T) {
	_, err := NewEngine(WithWindow(newFakeWindow()))
	assert.Error(t, err)
}

func TestNewEngineImageSizeDefaultsToWindow(t *testing.T) {
	w := newFakeWindow()
	w.width, w.height = 640, 480
	e := newTestEngine(t, w, newFakeSource())
	assert.Equal(t, common.Extent{Width: 640, Height: 480}, e.ImageSize())

	e = newTestEngine(t, newFakeWindow(), newFakeSource(), WithImageSize(256, 128))
	assert.Equal(t, common.Extent{Width: 256, Height: 128}, e.ImageSize())
}

func TestRunOrdersFrameSteps(t *testing.T) {
	src := newFakeSource()
	w := newFakeWindow(idle, idle, idle)
	e := newTestEngine(t, w, src)

	require.NoError(t, e.Run())
	assert.Equal(t, frames(3), src.log)
	assert.Equal(t, uint64(3), e.Frames())
}

func TestResizeReconfiguresThenRedraws(t *testing.T) {
	src := newFakeSource()
	w := newFakeWindow(resize(800, 600), userClose)
	e := newTestEngine(t, w, src)

	require.NoError(t, e.Run())

	want := append([]string{"resize 800x600"}, frames(2)...)
	assert.Equal(t, want, src.log)
	// the image size is fixed at construction
	assert.Equal(t, common.Extent{Width: 512, Height: 512}, e.ImageSize())
}

func TestEveryResizeIsForwarded(t *testing.T) {
	src := newFakeSource()
	w := newFakeWindow(resize(100, 100), resize(200, 50), resize(512, 512))
	e := newTestEngine(t, w, src)

	require.NoError(t, e.Run())
	var resizes []string
	for _, entry := range src.log {
		if len(entry) > 6 && entry[:6] == "resize" {
			resizes = append(resizes, entry)
		}
	}
	assert.Equal(t, []string{"resize 100x100", "resize 200x50", "resize 512x512"}, resizes)
}

func TestCloseStopsWithoutFurtherFrames(t *testing.T) {
	src := newFakeSource()
	after := 0
	w := newFakeWindow(idle, userClose, func(*fakeWindow) { after++ })
	e := newTestEngine(t, w, src)

	require.NoError(t, e.Run())
	assert.Equal(t, frames(1), src.log)
	assert.Zero(t, after)

	e.Resize(300, 300)
	assert.Equal(t, frames(1), src.log)
}

func TestQuitIsIdempotent(t *testing.T) {
	w := newFakeWindow()
	e := newTestEngine(t, w, newFakeSource())
	e.Quit()
	e.Quit()
	assert.False(t, w.IsRunning())
}

func TestFatalAcquisitionStopsLoop(t *testing.T) {
	src := newFakeSource()
	src.acquireErr = fmt.Errorf("%w: lost", renderer.ErrFrameAcquisition)
	w := newFakeWindow(idle, idle, idle)
	e := newTestEngine(t, w, src)

	err := e.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, renderer.ErrFrameAcquisition)
	assert.Equal(t, []string{"compute", "acquire"}, src.log)
	assert.False(t, w.IsRunning())
	assert.Zero(t, e.Frames())
}

func TestComputeFailureSkipsAcquire(t *testing.T) {
	src := newFakeSource()
	src.computeErr = errors.New("device lost")
	e := newTestEngine(t, newFakeWindow(idle), src)

	assert.EqualError(t, e.Run(), "device lost")
	assert.Equal(t, []string{"compute"}, src.log)
}

func TestRenderFailureDiscardsFrame(t *testing.T) {
	src := newFakeSource()
	src.renderErr = errors.New("encoder")
	e := newTestEngine(t, newFakeWindow(idle), src)

	assert.Error(t, e.Run())
	assert.Equal(t, []string{"compute", "acquire", "render", "discard"}, src.log)
}

func TestNonDrawableSurfaceSkipsFrames(t *testing.T) {
	src := newFakeSource()
	w := newFakeWindow(resize(0, 0), idle, resize(300, 200))
	e := newTestEngine(t, w, src)

	require.NoError(t, e.Run())
	want := append([]string{"resize 0x0", "resize 300x200"}, frames(2)...)
	assert.Equal(t, want, src.log)
}

func TestRenderFrameLimit(t *testing.T) {
	src := newFakeSource()
	e := newTestEngine(t, newFakeWindow(idle, idle), src, WithRenderFrameLimit(50))

	start := time.Now()
	require.NoError(t, e.Run())
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), frameDuration(0))
	assert.Equal(t, time.Duration(0), frameDuration(-10))
	assert.Equal(t, 16666666*time.Nanosecond, frameDuration(60))
}

func TestReleaseOrder(t *testing.T) {
	src := newFakeSource()
	w := newFakeWindow()
	e := newTestEngine(t, w, src)

	e.Release()
	assert.True(t, src.released)
	assert.Equal(t, 1, w.closedCalls)
}

func TestProfilerOptions(t *testing.T) {
	e := newTestEngine(t, newFakeWindow(), newFakeSource(), WithProfiling(true)).(*engine)
	assert.True(t, e.profilingEnabled)
	e.DisableProfiler()
	assert.False(t, e.profilingEnabled)
	e.EnableProfiler()
	assert.True(t, e.profilingEnabled)

	e.SetRenderFrameLimit(100)
	assert.Equal(t, 10*time.Millisecond, e.renderFrameLimit)
}
