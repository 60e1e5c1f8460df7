package anim

import "github.com/Faultbox/scenejoin/pkg/math"

// Normals holds a shape's normal samples, either dense or indexed.
type Normals struct {
	// Dense holds one normal array per sample.
	Dense [][]math.Vec3
	// Indexed replaces Dense once normals have been deduplicated.
	Indexed *IndexedNormals
}

// IndexedNormals stores normals as value tables plus per-element indices.
// Without FrameSlot, entry i belongs to sample i. With FrameSlot, Tables and
// Indices form a shared pool and FrameSlot[i] names sample i's entry.
type IndexedNormals struct {
	Tables    [][]math.Vec3
	Indices   [][]uint32
	FrameSlot []int
}

// Scope says which elements a normal array is attached to.
type Scope int

const (
	ScopeUnknown Scope = iota
	// ScopeVertex has one normal per point.
	ScopeVertex
	// ScopeFaceVarying has one normal per face-vertex index.
	ScopeFaceVarying
)

// NumSamples returns the number of normal samples.
func (n *Normals) NumSamples() int {
	if n == nil {
		return 0
	}
	if n.Indexed != nil {
		return n.Indexed.NumSamples()
	}
	return len(n.Dense)
}

// Sample returns the expanded normals of sample i.
func (n *Normals) Sample(i int) []math.Vec3 {
	if n.Indexed != nil {
		return n.Indexed.Expand(i)
	}
	return n.Dense[i]
}

// NumSamples returns the number of samples described.
func (ix *IndexedNormals) NumSamples() int {
	if ix.FrameSlot != nil {
		return len(ix.FrameSlot)
	}
	return len(ix.Tables)
}

// Entry returns the value table and index array used by sample i.
func (ix *IndexedNormals) Entry(i int) ([]math.Vec3, []uint32) {
	slot := i
	if ix.FrameSlot != nil {
		slot = ix.FrameSlot[i]
	}
	return ix.Tables[slot], ix.Indices[slot]
}

// Expand rebuilds the dense normals of sample i.
func (ix *IndexedNormals) Expand(i int) []math.Vec3 {
	table, index := ix.Entry(i)
	out := make([]math.Vec3, len(index))
	for v, slot := range index {
		out[v] = table[slot]
	}
	return out
}

// NormalScope classifies a normal array of length n against the shape.
func (s *Shape) NormalScope(n int) Scope {
	numPoints := 0
	if len(s.Points) > 0 {
		numPoints = len(s.Points[0])
	}
	// Vertex scope wins when both lengths agree.
	switch {
	case n == numPoints && n > 0:
		return ScopeVertex
	case n == len(s.Topology.FaceIndices) && n > 0:
		return ScopeFaceVarying
	}
	return ScopeUnknown
}
