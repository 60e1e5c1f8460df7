package anim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenejoin/pkg/math"
)

func quadShape() *Shape {
	return &Shape{
		Points:   [][]math.Vec3{{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}}},
		Topology: Topology{FaceCounts: []int32{4}, FaceIndices: []int32{0, 1, 2, 3}},
	}
}

func TestNodeKinds(t *testing.T) {
	leaf := NewShape("mesh", quadShape())
	root := NewXform("", NewXform("char", leaf))

	_, isShape := root.Shape()
	assert.False(t, isShape)
	_, isXform := leaf.Xform()
	assert.False(t, isXform)
	assert.Empty(t, leaf.Children())

	char, ok := root.Child("char")
	require.True(t, ok)
	assert.Equal(t, 1, char.NumSamples())
	assert.Equal(t, 1, leaf.NumSamples())
}

func TestLeaves(t *testing.T) {
	a := NewShape("a", quadShape())
	b := NewShape("b", quadShape())
	top := NewShape("top", quadShape())
	inner := NewXform("inner", b)
	char := NewXform("char", a, inner)
	root := NewXform("", char, top)

	leaves := Leaves(root)
	require.Len(t, leaves, 3)

	assert.Equal(t, []string{"char", "a"}, leaves[0].Path())
	assert.Same(t, char, leaves[0].Parent)
	assert.Equal(t, []string{"char", "inner", "b"}, leaves[1].Path())
	assert.Same(t, inner, leaves[1].Parent)
	assert.Equal(t, []string{"top"}, leaves[2].Path())
	assert.Nil(t, leaves[2].Parent)
}

func TestTopologyEqual(t *testing.T) {
	a := quadShape().Topology
	b := Topology{FaceCounts: []int32{4}, FaceIndices: []int32{0, 1, 2, 3}}
	assert.True(t, a.Equal(b))
	b.FaceIndices[3] = 0
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(Topology{FaceCounts: []int32{3}}))
}

func TestIndexedNormalsExpand(t *testing.T) {
	up := math.Vec3{Z: 1}
	side := math.Vec3{X: 1}
	ix := &IndexedNormals{
		Tables:    [][]math.Vec3{{side, up}, {up}},
		Indices:   [][]uint32{{1, 0, 1}, {0, 0, 0}},
		FrameSlot: []int{0, 1, 0},
	}
	n := &Normals{Indexed: ix}
	assert.Equal(t, 3, n.NumSamples())
	assert.Equal(t, []math.Vec3{up, side, up}, n.Sample(2))
	assert.Equal(t, []math.Vec3{up, up, up}, n.Sample(1))

	var none *Normals
	assert.Zero(t, none.NumSamples())
}

func TestNormalScope(t *testing.T) {
	s := quadShape()
	assert.Equal(t, ScopeVertex, s.NormalScope(4))
	s.Topology = Topology{FaceCounts: []int32{3, 3}, FaceIndices: []int32{0, 1, 2, 0, 2, 3}}
	assert.Equal(t, ScopeFaceVarying, s.NormalScope(6))
	assert.Equal(t, ScopeUnknown, s.NormalScope(5))
}

func TestFilesLookup(t *testing.T) {
	files := Files{
		{Name: "b.scn", Root: NewXform("")},
		{Name: "a.scn", Root: NewXform("")},
		{Name: "b.scn", Root: NewXform("")},
	}
	assert.True(t, files.HasDuplicates())
	files.SortByName()
	assert.Equal(t, "a.scn", files[0].Name)

	root, ok := files.Lookup("b.scn")
	require.True(t, ok)
	assert.NotNil(t, root)
	_, ok = files.Lookup("c.scn")
	assert.False(t, ok)
	assert.False(t, files[:2].HasDuplicates())
}
