package gather

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/geom"
	"github.com/Faultbox/scenejoin/internal/scenetest"
	"github.com/Faultbox/scenejoin/pkg/archive"
	"github.com/Faultbox/scenejoin/pkg/math"
)

func animatedCube(t *testing.T) string {
	t.Helper()
	pts, topo := scenetest.Cube()
	frames := scenetest.RigidFrames(pts, 4)
	normals := make([][]math.Vec3, len(frames))
	for i := range normals {
		normals[i] = make([]math.Vec3, len(pts))
		for j := range normals[i] {
			normals[i][j] = math.Vec3{Y: 1}
		}
	}
	return scenetest.Write(t, "anim.scn", archive.Uniform(1, 1.0/24),
		&scenetest.Node{
			Name:     "ns:rig",
			Matrices: []math.Mat4{math.Translate(0, 1, 0)},
			Visible:  []bool{true, false, true, true},
			Children: []*scenetest.Node{
				{
					Name: "body",
					Mesh: &scenetest.Mesh{Points: frames, Topology: topo, Normals: normals, Velocities: frames},
					Attributes: map[string]archive.Value{
						"user_id":   archive.Int32s([]int32{7}),
						"ignored":   archive.Int32s([]int32{1}),
						"user_name": archive.Strings([]string{"hero"}),
					},
				},
				{Name: "second", Mesh: &scenetest.Mesh{Points: [][]math.Vec3{pts}, Topology: topo}},
				{Name: "locator"},
			},
		})
}

func TestAnimFileStructure(t *testing.T) {
	for _, noLoadOpt := range []bool{false, true} {
		root, err := AnimFile(animatedCube(t), noLoadOpt)
		require.NoError(t, err)

		require.Len(t, root.Children(), 1)
		rig := root.Children()[0]
		assert.Equal(t, "ns:rig", rig.Name)
		x, ok := rig.Xform()
		require.True(t, ok)
		require.Len(t, x.Matrices, 1)
		assert.Equal(t, math.Translate(0, 1, 0), x.Matrices[0])
		assert.Nil(t, rig.Sampling, "single matrix has no time axis")
		require.NotNil(t, rig.Visibility)
		assert.Equal(t, []bool{true, false, true, true}, rig.Visibility.Samples)

		// Only the first geometry child is kept; transforms always are.
		require.Len(t, x.Children, 2)
		assert.Equal(t, "body", x.Children[0].Name)
		assert.Equal(t, "locator", x.Children[1].Name)

		body, ok := x.Children[0].Shape()
		require.True(t, ok)
		assert.Len(t, body.Points, 4)
		assert.Len(t, body.Velocities, 4)
		assert.Equal(t, 6, body.Topology.NumFaces())
		require.NotNil(t, body.Normals)
		assert.Len(t, body.Normals.Dense, 4)
		require.NotNil(t, x.Children[0].Sampling)
		assert.InDelta(t, 1.0/24, x.Children[0].Sampling.TimePerCycle, 1e-12)

		attrs := x.Children[0].Attributes
		require.Len(t, attrs, 2)
		assert.Equal(t, "user_id", attrs[0].Name)
		assert.Equal(t, []int32{7}, attrs[0].Samples[0].Int32)
		assert.Equal(t, "user_name", attrs[1].Name)
	}
}

func TestAnimFileIndexedNormals(t *testing.T) {
	pts, topo := scenetest.Cube()
	table := []math.Vec3{{X: 1}, {Y: 1}}
	idx := []int32{0, 1, 0, 1, 0, 1, 0, 1}
	path := scenetest.Write(t, "indexed.scn", archive.Uniform(0, 1),
		&scenetest.Node{Name: "mesh", Mesh: &scenetest.Mesh{
			Points:        [][]math.Vec3{pts, pts},
			Topology:      topo,
			Normals:       [][]math.Vec3{table, table},
			NormalIndices: [][]int32{idx, idx},
		}})

	root, err := AnimFile(path, false)
	require.NoError(t, err)
	leaves := anim.Leaves(root)
	require.Len(t, leaves, 1)
	n := leaves[0].Shape.Normals
	require.NotNil(t, n)
	require.NotNil(t, n.Indexed)
	assert.Equal(t, 2, n.NumSamples())
	assert.Equal(t, math.Vec3{Y: 1}, n.Sample(1)[3])
}

func TestAnimFileElidedNormals(t *testing.T) {
	pts, topo := scenetest.Cube()
	authored := geom.VertexNormals(pts, topo)

	tests := []struct {
		name    string
		normals [][]math.Vec3
		want    []int
	}{
		{"partially elided", [][]math.Vec3{authored, {}}, []int{8, 0}},
		{"fully elided", [][]math.Vec3{{}, {}}, nil},
		{"authored", [][]math.Vec3{authored, authored}, []int{8, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := scenetest.Write(t, "normals.scn", archive.Uniform(0, 1),
				&scenetest.Node{Name: "mesh", Mesh: &scenetest.Mesh{
					Points:   [][]math.Vec3{pts, pts},
					Topology: topo,
					Normals:  tt.normals,
				}})

			root, err := AnimFile(path, false)
			require.NoError(t, err)
			n := anim.Leaves(root)[0].Shape.Normals
			if tt.want == nil {
				assert.Nil(t, n)
				return
			}
			require.Equal(t, len(tt.want), n.NumSamples())
			for i, size := range tt.want {
				assert.Len(t, n.Sample(i), size, "sample %d", i)
			}
			assert.Equal(t, authored, n.Sample(0))
		})
	}
}

func TestAnimFileRejectsBadNormalIndices(t *testing.T) {
	pts, topo := scenetest.Cube()
	table := []math.Vec3{{Y: 1}}
	tests := []struct {
		name string
		idx  []int32
	}{
		{"past the table", []int32{0, 0, 0, 0, 0, 0, 0, 7}},
		{"negative", []int32{0, -1, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := scenetest.Write(t, "indexed.scn", archive.Uniform(0, 1),
				&scenetest.Node{Name: "mesh", Mesh: &scenetest.Mesh{
					Points:        [][]math.Vec3{pts},
					Topology:      topo,
					Normals:       [][]math.Vec3{table},
					NormalIndices: [][]int32{tt.idx},
				}})

			_, err := AnimFile(path, false)
			assert.ErrorIs(t, err, ErrUnreadable)
			assert.ErrorContains(t, err, "out of range")
		})
	}
}

func TestAnimFilesReportsFirstBadFile(t *testing.T) {
	good := animatedCube(t)
	bad := filepath.Join(t.TempDir(), "bad.scn")
	require.NoError(t, os.WriteFile(bad, []byte("not an archive"), 0644))

	files, err := AnimFiles([]string{good, bad, "/missing.scn"}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.Contains(t, err.Error(), bad)
	assert.Nil(t, files)

	files, err = AnimFiles([]string{good, good}, Options{NoLoadOpt: true})
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.True(t, files.HasDuplicates())
}
