package geom

import "github.com/Faultbox/scenejoin/pkg/math"

// TransformPoints returns points multiplied by m.
func TransformPoints(m math.Mat4, points []math.Vec3) []math.Vec3 {
	out := make([]math.Vec3, len(points))
	for i, p := range points {
		out[i] = m.TransformVec3(p)
	}
	return out
}

// TransformNormals returns unit normals transformed by the inverse
// transpose of m.
func TransformNormals(m math.Mat4, normals []math.Vec3) []math.Vec3 {
	nm := m.NormalMatrix()
	out := make([]math.Vec3, len(normals))
	for i, n := range normals {
		d := nm.TransformDirection([3]float32{n.X, n.Y, n.Z})
		out[i] = math.Vec3{X: d[0], Y: d[1], Z: d[2]}.Normalize()
	}
	return out
}
