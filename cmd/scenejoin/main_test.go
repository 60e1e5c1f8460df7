package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenejoin/internal/scenetest"
	"github.com/Faultbox/scenejoin/pkg/archive"
	"github.com/Faultbox/scenejoin/pkg/math"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFixtures(t *testing.T, dir string) (model, anim string) {
	t.Helper()
	pts, topo := scenetest.Cube()
	model = filepath.Join(dir, "model.scn")
	scenetest.WriteTo(t, model, archive.IdentitySampling(), &scenetest.Node{
		Name:     "rig",
		Children: []*scenetest.Node{{Name: "body", Mesh: &scenetest.Mesh{Points: [][]math.Vec3{pts}, Topology: topo}}},
	})
	anim = filepath.Join(dir, "anim.scn")
	scenetest.WriteTo(t, anim, archive.Uniform(1, 1.0/24), &scenetest.Node{
		Name: "rig",
		Children: []*scenetest.Node{
			{Name: "body", Mesh: &scenetest.Mesh{Points: scenetest.WobbleFrames(pts, 3), Topology: topo}},
			{Name: "tail", Mesh: &scenetest.Mesh{Points: scenetest.WobbleFrames(pts, 3), Topology: topo}},
		},
	})
	return model, anim
}

func TestRootJoins(t *testing.T) {
	dir := t.TempDir()
	model, anim := writeFixtures(t, dir)
	out := filepath.Join(dir, "out.scn")

	_, _, err := execute(t, "-m", model, "-a", anim, "-o", out, "--no-block-check", "--optimize", "2")
	require.NoError(t, err)

	a, err := archive.Open(out)
	require.NoError(t, err)
	defer a.Close()
	_, ok := a.Root().Child("rig")
	assert.True(t, ok)
}

func TestRootReportsValidation(t *testing.T) {
	dir := t.TempDir()
	model, anim := writeFixtures(t, dir)
	out := filepath.Join(dir, "out.scn")

	_, stderr, err := execute(t, "-m", model, "-a", anim, "-o", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 validation messages")
	assert.Contains(t, stderr, "rig/tail: cannot find match")

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRootRejectsBadLevels(t *testing.T) {
	_, _, err := execute(t, "-a", "x.scn", "-o", "y.scn", "--validate", "5")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenejoin.toml")

	stdout, _, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, path)
	assert.FileExists(t, path)

	_, _, err = execute(t, "config", "init", path)
	assert.Error(t, err, "refuses to overwrite")

	_, _, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}
