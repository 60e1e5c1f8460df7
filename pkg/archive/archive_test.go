package archive

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSample builds a small archive: /xf (Xform, 3 matrix samples) with a
// child mesh carrying points, topology and a user attribute.
func writeSample(t *testing.T, kind ContainerKind) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.scn")

	w, err := Create(path, kind)
	require.NoError(t, err)

	ts := w.AddTimeSampling(Uniform(1, 1.0/24))
	assert.Equal(t, ts, w.AddTimeSampling(Uniform(1, 1.0/24)), "identical samplings share an index")

	xf := w.Root().NewChild("xf", SchemaXform)
	xp, err := xf.NewProperty(PropXform, TypeFloat64, 16, ts)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		m := make([]float64, 16)
		m[0], m[5], m[10], m[15] = 1, 1, 1, 1
		m[12] = float64(i)
		require.NoError(t, xp.Append(Float64s(m)))
	}

	mesh := xf.NewChild("mesh", SchemaPolyMesh)
	p, err := mesh.NewProperty(PropPositions, TypeFloat32, 3, ts)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Append(Float32s([]float32{0, 0, 0, 1, 0, 0, 1, 1, float32(i)})))
	}
	fc, err := mesh.NewProperty(PropFaceCounts, TypeInt32, 1, 0)
	require.NoError(t, err)
	require.NoError(t, fc.Append(Int32s([]int32{3})))
	name, err := mesh.NewProperty(UserPrefix+"name", TypeString, 1, 0)
	require.NoError(t, err)
	require.NoError(t, name.Append(Strings([]string{"hero", ""})))
	vis, err := mesh.NewProperty(PropVisible, TypeBool, 1, ts)
	require.NoError(t, err)
	require.NoError(t, vis.Append(Bools([]bool{true})))
	require.NoError(t, vis.Append(Value{}))

	require.NoError(t, w.Close())
	assert.Positive(t, w.BytesWritten())
	return path
}

func TestRoundTripContainerKinds(t *testing.T) {
	kinds := []ContainerKind{ContainerRaw, ContainerCompressed, ContainerMemory, ContainerMemoryCompressed}
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			path := writeSample(t, kind)

			a, err := Open(path)
			require.NoError(t, err)
			defer a.Close()

			assert.Equal(t, kind.compressed(), a.Header().Compressed())
			assert.Equal(t, 3, a.NumObjects())

			xf, ok := a.Root().Child("xf")
			require.True(t, ok)
			assert.Equal(t, SchemaXform, xf.Schema())
			assert.Equal(t, "/xf", xf.FullName())

			mesh, ok := xf.Child("mesh")
			require.True(t, ok)
			assert.Equal(t, "/xf/mesh", mesh.FullName())
			assert.Equal(t, 3, mesh.NumSamples())

			p, ok := mesh.Property(PropPositions)
			require.True(t, ok)
			assert.Equal(t, 3, p.Extent())
			pts, err := p.Float32s(2)
			require.NoError(t, err)
			assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 1, 1, 2}, pts)

			ts := p.TimeSampling()
			assert.Equal(t, SamplingUniform, ts.Type)
			assert.InDelta(t, 1+2.0/24, ts.SampleTime(2), 1e-12)

			np, _ := mesh.Property(UserPrefix + "name")
			strs, err := np.Strings(0)
			require.NoError(t, err)
			assert.Equal(t, []string{"hero", ""}, strs)

			vp, _ := mesh.Property(PropVisible)
			first, err := vp.Bools(0)
			require.NoError(t, err)
			assert.Equal(t, []bool{true}, first)
			empty, err := vp.Sample(1)
			require.NoError(t, err)
			assert.Zero(t, empty.Len())

			xp, _ := xf.Property(PropXform)
			m, err := xp.Float64s(1)
			require.NoError(t, err)
			assert.Equal(t, 1.0, m[12])
		})
	}
}

func TestOpenBytesMatchesOpen(t *testing.T) {
	path := writeSample(t, ContainerCompressed)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	a, err := OpenBytes(path, data)
	require.NoError(t, err)
	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, b.ID(), a.ID())
	assert.Equal(t, b.NumObjects(), a.NumObjects())
}

func TestSampleIndexIsClamped(t *testing.T) {
	a, err := Open(writeSample(t, ContainerRaw))
	require.NoError(t, err)
	defer a.Close()

	xf, _ := a.Root().Child("xf")
	xp, _ := xf.Property(PropXform)

	last, err := xp.Float64s(99)
	require.NoError(t, err)
	assert.Equal(t, 2.0, last[12])
	first, err := xp.Float64s(-5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, first[12])
}

func TestIdenticalSamplesStoredOnce(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, distinct bool) int64 {
		w, err := Create(filepath.Join(dir, name), ContainerRaw)
		require.NoError(t, err)
		p, err := w.Root().NewChild("m", SchemaPolyMesh).NewProperty(PropNormals, TypeFloat32, 3, 0)
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			vals := make([]float32, 3000)
			if distinct {
				vals[0] = float32(i)
			}
			require.NoError(t, p.Append(Float32s(vals)))
		}
		require.NoError(t, w.Close())
		return w.BytesWritten()
	}
	shared := write("shared.scn", false)
	distinct := write("distinct.scn", true)
	assert.Less(t, shared*10, distinct)
}

func TestWriterErrors(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "e.scn"), ContainerRaw)
	require.NoError(t, err)
	obj := w.Root().NewChild("o", SchemaGroup)

	p, err := obj.NewProperty("a", TypeInt32, 1, 0)
	require.NoError(t, err)
	_, err = obj.NewProperty("a", TypeInt32, 1, 0)
	assert.ErrorIs(t, err, ErrPropertyExists)
	assert.ErrorIs(t, p.Append(Float32s([]float32{1})), ErrTypeMismatch)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, p.Append(Int32s([]int32{1})), ErrClosed)

	_, err = Create(filepath.Join(t.TempDir(), "x.scn"), ContainerKind(9))
	assert.ErrorIs(t, err, ErrUnknownContainer)
}

func TestAbortRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.scn")
	w, err := Create(path, ContainerRaw)
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrTruncated},
		{"short", []byte("SCENE"), ErrTruncated},
		{"bad magic", append([]byte("NOTSCENE"), make([]byte, 64)...), ErrInvalidMagic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenBytes(tt.name, tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := Open(filepath.Join(t.TempDir(), "missing.scn"))
	assert.Error(t, err)
}

func TestUnsupportedVersion(t *testing.T) {
	data, err := os.ReadFile(writeSample(t, ContainerRaw))
	require.NoError(t, err)
	data[8] = 9
	_, err = OpenBytes("v9", data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestCorruptSizes(t *testing.T) {
	tests := []struct {
		name    string
		at      int
		wantErr error
	}{
		{"table past end", 40, ErrTruncated},
		{"inflated table size", 44, ErrCorruptTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := os.ReadFile(writeSample(t, ContainerRaw))
			require.NoError(t, err)
			binary.LittleEndian.PutUint32(data[tt.at:], 0xFFFFFFF0)
			_, err = OpenBytes(tt.name, data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTimeSampling(t *testing.T) {
	cyclic := TimeSampling{Type: SamplingCyclic, TimePerCycle: 1, Times: []float64{0, 0.25}}
	assert.Equal(t, 1.25, cyclic.SampleTime(3))

	acyclic := Acyclic([]float64{0, 2, 5})
	assert.Equal(t, 5.0, acyclic.SampleTime(10))
	assert.Equal(t, 7.0, acyclic.Offset(2).SampleTime(2))
	assert.Equal(t, 5.0, acyclic.SampleTime(2), "Offset must not modify the receiver")

	assert.True(t, IdentitySampling().Equal(Uniform(0, 1)))
	assert.False(t, Uniform(0, 1).Equal(Uniform(1, 1)))
}
