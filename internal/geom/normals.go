// Package geom derives geometric data from topology and positions: face
// and vertex normals, normal redundancy tests and point transforms.
package geom

import (
	"errors"
	"fmt"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/pkg/math"
)

// ErrInvalidTopology reports face data that does not fit the point array.
var ErrInvalidTopology = errors.New("invalid topology")

// Thresholds controls the statistical normal redundancy test.
type Thresholds struct {
	// AgreementFraction is the share of elements that must agree; the count
	// must be strictly greater than this fraction.
	AgreementFraction float64
	// MinDot is the smallest dot product between unit normals that counts
	// as agreement.
	MinDot float32
}

// DefaultThresholds are 7/8 agreement at a dot product of 0.8.
func DefaultThresholds() Thresholds {
	return Thresholds{AgreementFraction: 7.0 / 8.0, MinDot: 0.8}
}

// ValidateTopology checks that face counts cover the index array and every
// index addresses a point.
func ValidateTopology(topo anim.Topology, numPoints int) error {
	total := 0
	for i, c := range topo.FaceCounts {
		if c < 0 {
			return fmt.Errorf("%w: face %d has %d vertices", ErrInvalidTopology, i, c)
		}
		total += int(c)
	}
	if total != len(topo.FaceIndices) {
		return fmt.Errorf("%w: face counts sum to %d, have %d indices", ErrInvalidTopology, total, len(topo.FaceIndices))
	}
	for i, idx := range topo.FaceIndices {
		if idx < 0 || int(idx) >= numPoints {
			return fmt.Errorf("%w: index %d = %d out of range [0,%d)", ErrInvalidTopology, i, idx, numPoints)
		}
	}
	return nil
}

// FaceNormals returns one unnormalized normal per face: the sum of the
// cross products of the face's triangle fan, counter-clockwise winding.
func FaceNormals(points []math.Vec3, topo anim.Topology) []math.Vec3 {
	out := make([]math.Vec3, len(topo.FaceCounts))
	corner := 0
	for f, count := range topo.FaceCounts {
		c := int(count)
		if c >= 3 {
			p0 := points[topo.FaceIndices[corner]]
			var n math.Vec3
			for k := 1; k+1 < c; k++ {
				e1 := points[topo.FaceIndices[corner+k]].Sub(p0)
				e2 := points[topo.FaceIndices[corner+k+1]].Sub(p0)
				n = n.Add(e1.Cross(e2))
			}
			out[f] = n
		}
		corner += c
	}
	return out
}

// VertexNormals accumulates unnormalized face normals onto each incident
// point and normalizes the sums.
func VertexNormals(points []math.Vec3, topo anim.Topology) []math.Vec3 {
	faces := FaceNormals(points, topo)
	out := make([]math.Vec3, len(points))
	corner := 0
	for f, count := range topo.FaceCounts {
		for k := 0; k < int(count); k++ {
			v := topo.FaceIndices[corner+k]
			out[v] = out[v].Add(faces[f])
		}
		corner += int(count)
	}
	for i := range out {
		out[i] = out[i].Normalize()
	}
	return out
}

// FaceVaryingNormals returns one unit normal per face-vertex: the normal
// of the face it belongs to.
func FaceVaryingNormals(points []math.Vec3, topo anim.Topology) []math.Vec3 {
	faces := FaceNormals(points, topo)
	out := make([]math.Vec3, 0, len(topo.FaceIndices))
	for f, count := range topo.FaceCounts {
		n := faces[f].Normalize()
		for k := 0; k < int(count); k++ {
			out = append(out, n)
		}
	}
	return out
}

// NormalsRedundant reports whether authored normals can be regenerated from
// topology and positions. Every face must be flat shaded (all its corners
// carry the identical authored normal), and more than th.AgreementFraction
// of the normals must point within th.MinDot of the computed direction.
func NormalsRedundant(points []math.Vec3, topo anim.Topology, normals []math.Vec3, scope anim.Scope, th Thresholds) bool {
	if len(normals) == 0 || ValidateTopology(topo, len(points)) != nil {
		return false
	}

	var at func(corner int) math.Vec3
	var computed []math.Vec3
	switch scope {
	case anim.ScopeVertex:
		if len(normals) != len(points) {
			return false
		}
		at = func(corner int) math.Vec3 { return normals[topo.FaceIndices[corner]] }
		computed = VertexNormals(points, topo)
	case anim.ScopeFaceVarying:
		if len(normals) != len(topo.FaceIndices) {
			return false
		}
		at = func(corner int) math.Vec3 { return normals[corner] }
		computed = FaceVaryingNormals(points, topo)
	default:
		return false
	}

	corner := 0
	for _, count := range topo.FaceCounts {
		first := at(corner)
		for k := 1; k < int(count); k++ {
			if at(corner+k) != first {
				return false
			}
		}
		corner += int(count)
	}

	agree := 0
	for i, n := range normals {
		if computed[i].Dot(n.Normalize()) >= th.MinDot {
			agree++
		}
	}
	return float64(agree) > th.AgreementFraction*float64(len(normals))
}
