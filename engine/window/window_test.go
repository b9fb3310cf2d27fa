package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEngineWindowDefaults(t *testing.T) {
	w := newEngineWindow()
	assert.Equal(t, DefaultTitle, w.title)
	assert.Equal(t, "wgpu compute image", w.title)
	assert.Equal(t, 512, w.Width())
	assert.Equal(t, 512, w.Height())
	assert.True(t, w.resizable)
	assert.Zero(t, w.minWidth)
	assert.Zero(t, w.maxHeight)
}

func TestWindowOptions(t *testing.T) {
	w := newEngineWindow(
		WithTitle("test"),
		WithWidth(800),
		WithHeight(600),
		WithMinSize(100, 50),
		WithMaxSize(1920, 1080),
		WithResizable(false),
	)
	assert.Equal(t, "test", w.title)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())
	assert.Equal(t, 100, w.minWidth)
	assert.Equal(t, 50, w.minHeight)
	assert.Equal(t, 1920, w.maxWidth)
	assert.Equal(t, 1080, w.maxHeight)
	assert.False(t, w.resizable)
}

func TestNotifyResize(t *testing.T) {
	w := newEngineWindow()
	var got [][2]int
	w.SetResizeCallback(func(width, height int) {
		got = append(got, [2]int{width, height})
	})

	w.notifyResize(1024, 768)
	w.notifyResize(0, 0)
	assert.Equal(t, [][2]int{{1024, 768}, {0, 0}}, got)
	assert.Equal(t, 0, w.Width())
	assert.Equal(t, 0, w.Height())
}

func TestNotifyResizeWithoutCallback(t *testing.T) {
	w := newEngineWindow()
	w.notifyResize(300, 200)
	assert.Equal(t, 300, w.Width())
}

func TestCloseCallbackRunsOnce(t *testing.T) {
	w := newEngineWindow()
	calls := 0
	w.SetCloseCallback(func() { calls++ })

	w.RequestClose()
	w.notifyClose()
	w.RequestClose()
	assert.Equal(t, 1, calls)
}

func TestUninitializedWindow(t *testing.T) {
	w := newEngineWindow()
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())

	updates := 0
	w.SetUpdateCallback(func() { updates++ })
	w.ProcessMessages()
	assert.Zero(t, updates)
}

func TestSizeLimit(t *testing.T) {
	assert.Equal(t, 640, sizeLimit(640))
	assert.Equal(t, sizeLimit(0), sizeLimit(-5))
	assert.NotEqual(t, 0, sizeLimit(0))
}
