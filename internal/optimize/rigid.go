package optimize

import (
	"slices"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/match"
	"github.com/Faultbox/scenejoin/pkg/math"
)

func (r *Runner) rigid(b match.Binding, leaf anim.Leaf) bool {
	d, ok := r.Matcher.FindLeaf(b, leaf.Path())
	if !ok {
		return false
	}
	return ExtractRigid(leaf, d.Points, r.Thresholds)
}

// ExtractRigid replaces the leaf's point samples with the rest points and a
// per-sample rigid motion on the parent. It applies only when the parent is
// a transform holding at most one static matrix and no other children, and
// every point of every sample lies within th.RigidEpsilon (squared) of the
// fitted motion applied to rest.
func ExtractRigid(leaf anim.Leaf, rest []math.Vec3, th Thresholds) bool {
	if leaf.Parent == nil {
		return false
	}
	x, ok := leaf.Parent.Xform()
	if !ok || len(x.Matrices) > 1 || len(x.Children) != 1 {
		return false
	}
	s := leaf.Shape
	if len(s.Points) < 2 || len(rest) < math.MinRigidCorrespondences {
		return false
	}

	var static *math.Mat4
	if len(x.Matrices) == 1 && !x.Matrices[0].IsIdentity() {
		static = &x.Matrices[0]
	}
	sel := sampleIndices(len(rest), th.RigidSampleCount)
	src := pick(rest, sel)

	motions := make([]math.Mat4, len(s.Points))
	for i, pts := range s.Points {
		if len(pts) != len(rest) {
			return false
		}
		m, err := math.FitRigid(src, pick(pts, sel))
		if err != nil {
			return false
		}
		for j, p := range rest {
			if m.TransformVec3(p).DistanceSquared(pts[j]) >= th.RigidEpsilon {
				return false
			}
		}
		if static != nil {
			m = static.Mul(m)
		}
		motions[i] = m
	}

	x.Matrices = motions
	if leaf.Node.Sampling != nil {
		ts := *leaf.Node.Sampling
		leaf.Parent.Sampling = &ts
	}
	leaf.Node.Sampling = nil
	s.Points = [][]math.Vec3{slices.Clone(rest)}
	s.Normals = nil
	s.Velocities = nil
	return true
}

// sampleIndices returns up to limit evenly spaced indices into n elements.
func sampleIndices(n, limit int) []int {
	if limit <= 0 || n <= limit {
		limit = n
	}
	out := make([]int, limit)
	for k := range out {
		out[k] = k * n / limit
	}
	return out
}

func pick(pts []math.Vec3, sel []int) []math.Vec3 {
	out := make([]math.Vec3, len(sel))
	for i, j := range sel {
		out[i] = pts[j]
	}
	return out
}
