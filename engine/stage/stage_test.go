package stage

import (
	"encoding/binary"
	"math"
	"os"
	"testing"

	"github.com/Carmen-Shannon/oxy-compute/engine/gradient"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkgroupCount(t *testing.T) {
	tests := []struct {
		name          string
		size          [3]uint32
		width, height uint32
		want          [3]uint32
	}{
		{"exact multiple", [3]uint32{8, 8, 1}, 512, 512, [3]uint32{64, 64, 1}},
		{"partial tile", [3]uint32{8, 8, 1}, 513, 7, [3]uint32{65, 1, 1}},
		{"one invocation per group", [3]uint32{1, 1, 1}, 3, 2, [3]uint32{3, 2, 1}},
		{"zero size treated as one", [3]uint32{0, 0, 0}, 4, 4, [3]uint32{4, 4, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, workgroupCount(tt.size, tt.width, tt.height))
		})
	}
}

func TestComputeStageWorkgroupCountUsesShader(t *testing.T) {
	set, err := shader.NewSet()
	if err != nil {
		t.Skipf("shader compiler unavailable: %v", err)
	}
	s := &ComputeStage{workgroupSize: set.Compute.WorkgroupSize()}
	assert.Equal(t, [3]uint32{64, 64, 1}, s.WorkgroupCount(512, 512))
}

func TestQuadVertices(t *testing.T) {
	data := quadBytes()
	require.Len(t, data, 4*16)

	want := [][4]float32{
		{-1, -1, 0, 1},
		{1, -1, 1, 1},
		{-1, 1, 0, 0},
		{1, 1, 1, 0},
	}
	for i, v := range want {
		for j, f := range v {
			off := i*16 + j*4
			got := math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			assert.Equal(t, f, got, "vertex %d component %d", i, j)
		}
	}
}

func TestQuadBytesIsACopy(t *testing.T) {
	data := quadBytes()
	data[0] = 0xFF
	assert.Equal(t, float32(-1), QuadVertices[0].Position[0])
}

func TestQuadMatchesVertexLayout(t *testing.T) {
	set, err := shader.NewSet()
	if err != nil {
		t.Skipf("shader compiler unavailable: %v", err)
	}
	layouts := set.Vertex.VertexLayouts()
	require.Len(t, layouts, 1)
	require.Len(t, layouts[0], 1)
	assert.Equal(t, uint64(16), layouts[0][0].ArrayStride)
	require.Len(t, layouts[0][0].Attributes, 2)
	assert.Equal(t, uint64(0), layouts[0][0].Attributes[0].Offset)
	assert.Equal(t, uint64(8), layouts[0][0].Attributes[1].Offset)
}

// requireGPU skips tests that need a real adapter unless OXY_GPU_TESTS is set.
func requireGPU(t *testing.T) {
	t.Helper()
	if os.Getenv("OXY_GPU_TESTS") == "" {
		t.Skip("set OXY_GPU_TESTS=1 to run tests that need a GPU adapter")
	}
}

func TestComputeStageMatchesReference(t *testing.T) {
	requireGPU(t)

	set, err := shader.NewSet()
	require.NoError(t, err)
	ctx, err := renderer.NewContext(nil, 512, 512)
	require.NoError(t, err)
	defer ctx.Release()

	compute, err := NewComputeStage(ctx, set, 512, 512)
	require.NoError(t, err)
	defer compute.Release()

	render, err := NewRenderStage(ctx, set, compute)
	require.NoError(t, err)
	defer render.Release()

	dispatch := func() []byte {
		encoder, err := ctx.NewCommandEncoder("test compute")
		require.NoError(t, err)
		compute.Dispatch(encoder, 512, 512)
		require.NoError(t, ctx.Submit(encoder))
		pix, err := ctx.ReadTexture(compute.Image(), 512, 512)
		require.NoError(t, err)
		return pix
	}

	first := dispatch()
	second := dispatch()
	assert.Equal(t, first, second, "dispatch is not idempotent")

	got, err := gradient.FromPixels(first, 512, 512)
	require.NoError(t, err)
	diff, err := gradient.Compare(got, gradient.Render(512, 512), 1)
	require.NoError(t, err)
	assert.True(t, diff.Equal(), "%d pixels differ, first at %v", diff.Mismatches, diff.First)
}

func TestNewComputeStageRejectsEmptyImage(t *testing.T) {
	_, err := NewComputeStage(nil, nil, 0, 512)
	assert.Error(t, err)
}
