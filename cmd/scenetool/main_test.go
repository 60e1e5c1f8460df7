package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenejoin/internal/scenetest"
	"github.com/Faultbox/scenejoin/pkg/archive"
	"github.com/Faultbox/scenejoin/pkg/math"
)

func fixture(t *testing.T) string {
	t.Helper()
	pts, topo := scenetest.Cube()
	return scenetest.Write(t, "scene.scn", archive.Uniform(1, 0.5), &scenetest.Node{
		Name:     "rig",
		Matrices: []math.Mat4{math.Identity()},
		Children: []*scenetest.Node{
			{Name: "body", Mesh: &scenetest.Mesh{Points: scenetest.WobbleFrames(pts, 3), Topology: topo}},
			{Name: "tail", Mesh: &scenetest.Mesh{Points: [][]math.Vec3{pts}, Topology: topo}},
		},
	})
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestInfo(t *testing.T) {
	out, err := run(t, "info", fixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Objects:  3")
	assert.Contains(t, out, "Samples:  3")
	assert.Contains(t, out, "compressed")
	assert.Contains(t, out, "start 1")
}

func TestList(t *testing.T) {
	path := fixture(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{name: "all", args: []string{"list", path}, want: []string{"/rig\n", "/rig/body", "/rig/tail"}},
		{name: "pattern", args: []string{"ls", path, "t*"}, want: []string{"/rig/tail"}, notWant: []string{"/rig/body"}},
		{name: "geometry", args: []string{"list", "-g", path}, want: []string{"/rig/body"}, notWant: []string{"/rig\n"}},
		{name: "limit", args: []string{"list", "-n", "1", path}, want: []string{"/rig\n"}, notWant: []string{"/rig/body"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, out, w)
			}
		})
	}
}

func TestProps(t *testing.T) {
	path := fixture(t)

	out, err := run(t, "props", path, "/rig/body")
	require.NoError(t, err)
	assert.Contains(t, out, archive.PropPositions)
	assert.Contains(t, out, archive.PropFaceIndices)

	_, err = run(t, "props", path, "/rig/missing")
	assert.Error(t, err)
}
