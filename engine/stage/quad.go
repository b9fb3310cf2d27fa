package stage

import "github.com/Carmen-Shannon/oxy-compute/common"

// QuadVertex is one corner of the full-screen quad: clip-space position and texture coordinate.
type QuadVertex struct {
	Position [2]float32
	UV       [2]float32
}

// QuadVertices covers clip space as a triangle strip. The v coordinate is flipped so image row 0
// is drawn at the top of the window.
var QuadVertices = [4]QuadVertex{
	{Position: [2]float32{-1, -1}, UV: [2]float32{0, 1}},
	{Position: [2]float32{1, -1}, UV: [2]float32{1, 1}},
	{Position: [2]float32{-1, 1}, UV: [2]float32{0, 0}},
	{Position: [2]float32{1, 1}, UV: [2]float32{1, 0}},
}

// quadBytes returns the vertex buffer contents of the quad.
func quadBytes() []byte {
	v := QuadVertices
	return append([]byte(nil), common.SliceToBytes(v[:])...)
}
