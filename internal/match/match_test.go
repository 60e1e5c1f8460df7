package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/model"
)

func TestMatcherFind(t *testing.T) {
	table, err := model.NewTable([]*model.Data{{Key: "/char/body"}, {Key: "/char/head"}}, false)
	require.NoError(t, err)
	m := New(table)

	d, ok := m.Find([]string{"ns:char", "body"}, "ignored")
	require.True(t, ok)
	assert.Equal(t, "/char/body", d.Key)

	_, ok = m.Find([]string{"char", "tail"}, "")
	assert.False(t, ok)
	_, ok = m.Find(nil, "")
	assert.False(t, ok)

	_, ok = New(nil).Find([]string{"char"}, "")
	assert.False(t, ok)
}

func TestMatcherMultiModel(t *testing.T) {
	table, err := model.NewTable([]*model.Data{{Key: "A/char/body"}, {Key: "B/char/body"}}, true)
	require.NoError(t, err)
	m := New(table)

	d, ok := m.FindLeaf(Binding{Asset: "B"}, []string{"char", "body"})
	require.True(t, ok)
	assert.Equal(t, "B/char/body", d.Key)

	d, ok = m.FindLeaf(Binding{PerNamespace: true}, []string{"A:char", "body"})
	require.True(t, ok)
	assert.Equal(t, "A/char/body", d.Key)

	d, ok = m.FindLeaf(Binding{PerNamespace: true}, []string{"B", "char", "body"})
	require.True(t, ok)
	assert.Equal(t, "B/char/body", d.Key)
}

func TestBind(t *testing.T) {
	two := anim.Files{{Name: "a_anim.scn"}, {Name: "b_anim.scn", Index: 1}}
	one := anim.Files{{Name: "crowd.scn"}}

	tests := []struct {
		name    string
		files   anim.Files
		models  []string
		offsets []float64
		check   func(t *testing.T, b []Binding)
		wantErr error
	}{
		{
			name:   "one to one",
			files:  two,
			models: []string{"/m/A.scn", "/m/B.scn"},
			check: func(t *testing.T, b []Binding) {
				assert.Equal(t, "A", b[0].Asset)
				assert.Equal(t, "B", b[1].Asset)
			},
		},
		{
			name:    "many to one",
			files:   two,
			models:  []string{"/m/A.scn"},
			offsets: []float64{0, 2.5},
			check: func(t *testing.T, b []Binding) {
				assert.Empty(t, b[0].Asset)
				assert.Equal(t, 2.5, b[1].Offset)
				assert.Equal(t, "b_anim", b[1].InstanceName())
			},
		},
		{
			name:   "one to many",
			files:  one,
			models: []string{"A.scn", "B.scn", "C.scn"},
			check: func(t *testing.T, b []Binding) {
				assert.True(t, b[0].PerNamespace)
			},
		},
		{name: "mismatch", files: two, models: []string{"A", "B", "C"}, wantErr: ErrCardinality},
		{
			name:    "sorted duplicates keep input pairing",
			files:   anim.Files{{Name: "a_y.scn", Index: 1}, {Name: "x.scn"}, {Name: "x.scn", Index: 2}},
			models:  []string{"X1.scn", "Y.scn", "X2.scn"},
			offsets: []float64{10, 20, 30},
			check: func(t *testing.T, b []Binding) {
				assert.Equal(t, []float64{20, 10, 30}, []float64{b[0].Offset, b[1].Offset, b[2].Offset})
				assert.Equal(t, []string{"Y", "X1", "X2"}, []string{b[0].Asset, b[1].Asset, b[2].Asset})
			},
		},
		{name: "offsets", files: two, offsets: []float64{1}, wantErr: ErrOffsets},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Bind(tt.files, tt.models, tt.offsets)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, b, len(tt.files))
			tt.check(t, b)
		})
	}
}
