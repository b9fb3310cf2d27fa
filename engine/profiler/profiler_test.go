package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/stretchr/testify/assert"
)

// fakeClock returns a controllable time source.
func fakeClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestTickReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer common.SetLogger(nil)

	start := time.Unix(0, 0)
	clock, advance := fakeClock(start)
	p := NewProfiler()
	p.now = clock
	p.lastTime = start

	for range 9 {
		advance(100 * time.Millisecond)
		assert.False(t, p.Tick(0))
	}
	assert.Empty(t, buf.String())

	advance(100 * time.Millisecond)
	assert.True(t, p.Tick(2))
	assert.Contains(t, buf.String(), "msg=profile")
	assert.Contains(t, buf.String(), "fps=10")
	assert.Contains(t, buf.String(), "recoveries=2")
	assert.Contains(t, buf.String(), "presented=10")

	buf.Reset()
	advance(time.Second)
	assert.True(t, p.Tick(3))
	assert.Contains(t, buf.String(), "recoveries=1")
	assert.Equal(t, uint64(11), p.Presented())
}

func TestTickCountsFrames(t *testing.T) {
	p := NewProfiler()
	for range 5 {
		p.Tick(0)
	}
	assert.Equal(t, uint64(5), p.Presented())
}
