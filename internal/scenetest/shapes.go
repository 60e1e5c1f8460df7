package scenetest

import (
	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/pkg/math"
)

// Cube returns an 8-point, 6-quad cube spanning [-1,1] with outward
// counter-clockwise faces.
func Cube() ([]math.Vec3, anim.Topology) {
	pts := []math.Vec3{
		{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: -1},
		{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1},
	}
	topo := anim.Topology{
		FaceCounts: []int32{4, 4, 4, 4, 4, 4},
		FaceIndices: []int32{
			0, 3, 2, 1,
			4, 5, 6, 7,
			0, 1, 5, 4,
			3, 7, 6, 2,
			0, 4, 7, 3,
			1, 2, 6, 5,
		},
	}
	return pts, topo
}

// CubeUVs returns one uv per cube point.
func CubeUVs() []math.Vec2 {
	return []math.Vec2{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
}

// Transform applies m to every point.
func Transform(m math.Mat4, pts []math.Vec3) []math.Vec3 {
	out := make([]math.Vec3, len(pts))
	for i, p := range pts {
		out[i] = m.TransformVec3(p)
	}
	return out
}

// RigidFrames returns n samples of pts, each rotated about Y by a growing
// angle and translated along X.
func RigidFrames(pts []math.Vec3, n int) [][]math.Vec3 {
	frames := make([][]math.Vec3, n)
	for i := range frames {
		m := math.Translate(float32(i)*0.5, 0, 0).Mul(math.RotateY(float32(i) * 0.1))
		frames[i] = Transform(m, pts)
	}
	return frames
}

// WobbleFrames returns n non-rigid samples of pts: each point is scaled
// away from the origin by a per-point, per-frame amount.
func WobbleFrames(pts []math.Vec3, n int) [][]math.Vec3 {
	frames := make([][]math.Vec3, n)
	for i := range frames {
		out := make([]math.Vec3, len(pts))
		for j, p := range pts {
			out[j] = p.Scale(1 + 0.2*float32((i+j)%3))
		}
		frames[i] = out
	}
	return frames
}
