package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/match"
	"github.com/Faultbox/scenejoin/internal/model"
	"github.com/Faultbox/scenejoin/internal/scenetest"
	"github.com/Faultbox/scenejoin/pkg/math"
)

func fixture(t *testing.T) (*match.Matcher, []*anim.Node) {
	t.Helper()
	pts, topo := scenetest.Cube()
	table, err := model.NewTable([]*model.Data{
		{Key: "/char/body", Points: pts, Topology: topo},
		{Key: "/char/head", Points: pts, Topology: topo},
	}, false)
	require.NoError(t, err)

	body := anim.NewShape("body", &anim.Shape{Points: [][]math.Vec3{pts, pts}, Topology: topo})
	head := anim.NewShape("head", &anim.Shape{Points: [][]math.Vec3{pts}, Topology: topo})
	return match.New(table), []*anim.Node{body, head}
}

func bind(root *anim.Node) []match.Binding {
	return []match.Binding{{File: anim.File{Name: "anim.scn", Root: root}}}
}

func TestLevel1Clean(t *testing.T) {
	m, leaves := fixture(t)
	root := anim.NewXform("", anim.NewXform("ns:char", leaves...))
	assert.Empty(t, Level1(bind(root), m))
	assert.Empty(t, Level2(bind(root), m))
}

func TestLevel1MissingMatch(t *testing.T) {
	m, leaves := fixture(t)
	pts, topo := scenetest.Cube()
	tail := anim.NewShape("tail", &anim.Shape{Points: [][]math.Vec3{pts}, Topology: topo})
	root := anim.NewXform("", anim.NewXform("char", append(leaves, tail)...))

	msgs := Level1(bind(root), m)
	require.Len(t, msgs, 1)
	assert.Equal(t, "anim.scn:/char/tail: cannot find match", msgs[0])
}

func TestLevel1PointCounts(t *testing.T) {
	m, _ := fixture(t)
	pts, topo := scenetest.Cube()
	tests := []struct {
		name string
		last []math.Vec3
		want string
	}{
		{"too few", pts[:7], "sample 2 has too few points (7, model has 8)"},
		{"too many", append(append([]math.Vec3{}, pts...), math.Vec3{}), "sample 2 has too many points (9, model has 8)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := anim.NewShape("body", &anim.Shape{Points: [][]math.Vec3{pts, pts, tt.last}, Topology: topo})
			msgs := Level1(bind(anim.NewXform("", anim.NewXform("char", body))), m)
			require.Len(t, msgs, 1)
			assert.True(t, strings.HasSuffix(msgs[0], tt.want), msgs[0])
		})
	}
}

func TestLevel1TopologyWithNormals(t *testing.T) {
	m, _ := fixture(t)
	pts, topo := scenetest.Cube()
	other := anim.Topology{FaceCounts: topo.FaceCounts, FaceIndices: append([]int32{}, topo.FaceIndices...)}
	other.FaceIndices[0], other.FaceIndices[1] = other.FaceIndices[1], other.FaceIndices[0]

	withNormals := anim.NewShape("body", &anim.Shape{
		Points:   [][]math.Vec3{pts},
		Topology: other,
		Normals:  &anim.Normals{Dense: [][]math.Vec3{pts}},
	})
	msgs := Level1(bind(anim.NewXform("", anim.NewXform("char", withNormals))), m)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "topology does not match")

	withoutNormals := anim.NewShape("body", &anim.Shape{Points: [][]math.Vec3{pts}, Topology: other})
	assert.Empty(t, Level1(bind(anim.NewXform("", anim.NewXform("char", withoutNormals))), m))
}

func TestLevel2NotUsed(t *testing.T) {
	m, leaves := fixture(t)
	root := anim.NewXform("", anim.NewXform("char", leaves[0]))
	msgs := Level2(bind(root), m)
	assert.Equal(t, []string{"/char/head: not used"}, msgs)
}
