package gather

import (
	"strings"

	"github.com/Faultbox/scenejoin/pkg/archive"
	"github.com/Faultbox/scenejoin/pkg/math"
)

// IsUserAttribute reports whether p is a carried user attribute: prefixed
// name, extent 1, and a scalar data type.
func IsUserAttribute(p *archive.Property) bool {
	if !strings.HasPrefix(p.Name(), archive.UserPrefix) || archive.IsIndicesName(p.Name()) {
		return false
	}
	if p.Extent() != 1 {
		return false
	}
	switch p.Type() {
	case archive.TypeBool, archive.TypeInt32, archive.TypeFloat32, archive.TypeFloat64, archive.TypeString:
		return true
	}
	return false
}

// samplingOf returns the property's time sampling, or nil for a single
// sample on the identity sampling.
func samplingOf(p *archive.Property, a *archive.Archive) *archive.TimeSampling {
	if p.NumSamples() <= 1 && p.TimeSamplingIndex() == 0 {
		return nil
	}
	ts := a.TimeSamplings()[p.TimeSamplingIndex()]
	return &ts
}

func int32Prop(obj *archive.Object, name string) ([]int32, error) {
	p, ok := obj.Property(name)
	if !ok || p.NumSamples() == 0 {
		return nil, nil
	}
	return p.Int32s(0)
}

func vec3s(v []float32) []math.Vec3 { return math.Vec3sFromFloats(v) }

func uint32s(v []int32) []uint32 {
	out := make([]uint32, len(v))
	for i, x := range v {
		out[i] = uint32(x)
	}
	return out
}

func mathMat4(v []float64) math.Mat4 { return math.Mat4FromFloat64s(v) }
