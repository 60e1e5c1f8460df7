// Package math provides the vector and matrix types used for scene geometry and the rigid fit used to factor motion out of point samples.
package math

import "github.com/chewxy/math32"

// Vec3 is a 3D vector. It is comparable, so it can be used as a map key
// and checked for exact equality.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.LengthSquared())
}

// LengthSquared returns the squared magnitude.
func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalize returns a unit vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// DistanceSquared returns the squared distance to another point.
func (v Vec3) DistanceSquared(other Vec3) float32 {
	return v.Sub(other).LengthSquared()
}

// Less orders vectors lexicographically by X, then Y, then Z.
func (v Vec3) Less(other Vec3) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

// Vec3sFromFloats unpacks a flat xyz array. Trailing values that do not
// form a full triple are dropped.
func Vec3sFromFloats(f []float32) []Vec3 {
	out := make([]Vec3, len(f)/3)
	for i := range out {
		out[i] = Vec3{f[i*3], f[i*3+1], f[i*3+2]}
	}
	return out
}

// FloatsFromVec3s packs vectors into a flat xyz array.
func FloatsFromVec3s(v []Vec3) []float32 {
	out := make([]float32, len(v)*3)
	for i, p := range v {
		out[i*3] = p.X
		out[i*3+1] = p.Y
		out[i*3+2] = p.Z
	}
	return out
}
