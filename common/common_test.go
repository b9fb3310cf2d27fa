package common

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "a", Coalesce("", "a"))
	assert.Equal(t, 0, Coalesce[int]())
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))

	b := SliceToBytes([]float32{1, -1})
	require.Len(t, b, 8)
	// 1.0f little-endian
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, b[:4])
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint32(256), AlignUp(1, 256))
	assert.Equal(t, uint32(2048), AlignUp(2048, 256))
	assert.Equal(t, uint32(2304), AlignUp(2049, 256))
	assert.Equal(t, uint32(7), AlignUp(7, 0))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, uint32(64), CeilDiv(512, 8))
	assert.Equal(t, uint32(65), CeilDiv(513, 8))
	assert.Equal(t, uint32(1), CeilDiv(1, 8))
	assert.Equal(t, uint32(0), CeilDiv(0, 8))
}

func TestExtentEmpty(t *testing.T) {
	assert.False(t, Extent{512, 512}.Empty())
	assert.True(t, Extent{0, 512}.Empty())
	assert.True(t, Extent{512, 0}.Empty())
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	require.NotNil(t, l)
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		assert.False(t, l.Enabled(context.Background(), level))
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	Logger().Info("surface configured", "width", 512)
	assert.Contains(t, buf.String(), "surface configured")
	assert.Contains(t, buf.String(), "width=512")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}
