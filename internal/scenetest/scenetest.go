// Package scenetest writes small scene archives for tests.
package scenetest

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/pkg/archive"
	"github.com/Faultbox/scenejoin/pkg/math"
)

// Node is an interior node, or a geometry leaf when Mesh is set.
type Node struct {
	Name       string
	Matrices   []math.Mat4
	Visible    []bool
	Attributes map[string]archive.Value
	Children   []*Node
	Mesh       *Mesh
}

// Mesh is the geometry of a leaf node.
type Mesh struct {
	Schema        archive.Schema
	Points        [][]math.Vec3
	Topology      anim.Topology
	Normals       [][]math.Vec3
	NormalIndices [][]int32
	Velocities    [][]math.Vec3
	UVs           []math.Vec2
	FaceSets      map[string][]int32
	Creases       *Creases
}

// Creases are subdivision crease edges.
type Creases struct {
	Indices     []int32
	Lengths     []int32
	Sharpnesses []float32
}

// Write creates path under a fresh temp directory with the given roots and
// returns the full path. Animated properties use sampling.
func Write(t testing.TB, name string, sampling archive.TimeSampling, roots ...*Node) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	WriteTo(t, path, sampling, roots...)
	return path
}

// WriteTo is Write with an explicit destination.
func WriteTo(t testing.TB, path string, sampling archive.TimeSampling, roots ...*Node) {
	t.Helper()
	w, err := archive.Create(path, archive.ContainerCompressed)
	require.NoError(t, err)
	ts := w.AddTimeSampling(sampling)
	for _, r := range roots {
		writeNode(t, w.Root(), r, ts)
	}
	require.NoError(t, w.Close())
}

func writeNode(t testing.TB, parent *archive.OObject, n *Node, ts uint32) {
	t.Helper()
	if n.Mesh != nil {
		schema := n.Mesh.Schema
		if schema == 0 {
			schema = archive.SchemaPolyMesh
		}
		obj := parent.NewChild(n.Name, schema)
		writeMesh(t, obj, n.Mesh, ts)
		writeCommon(t, obj, n, ts)
		return
	}
	obj := parent.NewChild(n.Name, archive.SchemaXform)
	if len(n.Matrices) > 0 {
		p := newProp(t, obj, archive.PropXform, archive.TypeFloat64, 16, sampled(len(n.Matrices), ts))
		for _, m := range n.Matrices {
			require.NoError(t, p.Append(archive.Float64s(m.Float64s())))
		}
	}
	writeCommon(t, obj, n, ts)
	for _, c := range n.Children {
		writeNode(t, obj, c, ts)
	}
}

func writeCommon(t testing.TB, obj *archive.OObject, n *Node, ts uint32) {
	t.Helper()
	if len(n.Visible) > 0 {
		p := newProp(t, obj, archive.PropVisible, archive.TypeBool, 1, sampled(len(n.Visible), ts))
		for _, v := range n.Visible {
			require.NoError(t, p.Append(archive.Bools([]bool{v})))
		}
	}
	names := make([]string, 0, len(n.Attributes))
	for name := range n.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := n.Attributes[name]
		p := newProp(t, obj, name, v.Type(), 1, 0)
		require.NoError(t, p.Append(v))
	}
}

func writeMesh(t testing.TB, obj *archive.OObject, m *Mesh, ts uint32) {
	t.Helper()
	p := newProp(t, obj, archive.PropPositions, archive.TypeFloat32, 3, sampled(len(m.Points), ts))
	for _, pts := range m.Points {
		require.NoError(t, p.Append(archive.Float32s(math.FloatsFromVec3s(pts))))
	}
	fc := newProp(t, obj, archive.PropFaceCounts, archive.TypeInt32, 1, 0)
	require.NoError(t, fc.Append(archive.Int32s(m.Topology.FaceCounts)))
	fi := newProp(t, obj, archive.PropFaceIndices, archive.TypeInt32, 1, 0)
	require.NoError(t, fi.Append(archive.Int32s(m.Topology.FaceIndices)))

	if len(m.Normals) > 0 {
		np := newProp(t, obj, archive.PropNormals, archive.TypeFloat32, 3, sampled(len(m.Normals), ts))
		for _, n := range m.Normals {
			require.NoError(t, np.Append(archive.Float32s(math.FloatsFromVec3s(n))))
		}
		if len(m.NormalIndices) > 0 {
			ip := newProp(t, obj, archive.IndicesName(archive.PropNormals), archive.TypeInt32, 1, sampled(len(m.NormalIndices), ts))
			for _, idx := range m.NormalIndices {
				require.NoError(t, ip.Append(archive.Int32s(idx)))
			}
		}
	}
	if len(m.Velocities) > 0 {
		vp := newProp(t, obj, archive.PropVelocities, archive.TypeFloat32, 3, sampled(len(m.Velocities), ts))
		for _, v := range m.Velocities {
			require.NoError(t, vp.Append(archive.Float32s(math.FloatsFromVec3s(v))))
		}
	}
	if len(m.UVs) > 0 {
		up := newProp(t, obj, archive.PropUV, archive.TypeFloat32, 2, 0)
		require.NoError(t, up.Append(archive.Float32s(math.FloatsFromVec2s(m.UVs))))
	}
	sets := make([]string, 0, len(m.FaceSets))
	for name := range m.FaceSets {
		sets = append(sets, name)
	}
	sort.Strings(sets)
	for _, name := range sets {
		fp := newProp(t, obj, archive.FaceSetPrefix+name, archive.TypeInt32, 1, 0)
		require.NoError(t, fp.Append(archive.Int32s(m.FaceSets[name])))
	}
	if m.Creases != nil {
		ci := newProp(t, obj, archive.PropCreaseIndices, archive.TypeInt32, 1, 0)
		require.NoError(t, ci.Append(archive.Int32s(m.Creases.Indices)))
		cl := newProp(t, obj, archive.PropCreaseLengths, archive.TypeInt32, 1, 0)
		require.NoError(t, cl.Append(archive.Int32s(m.Creases.Lengths)))
		cs := newProp(t, obj, archive.PropCreaseSharpnesses, archive.TypeFloat32, 1, 0)
		require.NoError(t, cs.Append(archive.Float32s(m.Creases.Sharpnesses)))
	}
}

func newProp(t testing.TB, obj *archive.OObject, name string, dt archive.DataType, extent int, ts uint32) *archive.OProperty {
	t.Helper()
	p, err := obj.NewProperty(name, dt, extent, ts)
	require.NoError(t, err)
	return p
}

// sampled puts multi-sample properties on ts and single samples on the
// identity sampling.
func sampled(n int, ts uint32) uint32 {
	if n > 1 {
		return ts
	}
	return 0
}
