// Package model gathers rest-pose model archives into a sorted lookup table.
package model

import (
	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/pkg/archive"
	"github.com/Faultbox/scenejoin/pkg/math"
)

// Data is one rest-pose geometry leaf. It is not modified after gather.
type Data struct {
	// Key is the normalized lookup path.
	Key string
	// Names are the original ancestor names followed by the leaf name.
	Names  []string
	Asset  string
	Source string
	Type   archive.Schema

	WorldTransform math.Mat4
	// Points are the local-space rest points.
	Points   []math.Vec3
	Topology anim.Topology
	// RestPositions are the rest points emitted as Pref: world space when
	// positions were requested during gather.
	RestPositions []math.Vec3
	// RestNormals and RestNormalsLocal are authored or generated normals.
	RestNormals      []math.Vec3
	RestNormalsLocal []math.Vec3

	Creases    *Creases
	UVSets     []UVSet
	DefaultUV  *UVSet
	Attributes []Attribute
}

// Creases are subdivision crease edges.
type Creases struct {
	Indices     []int32
	Lengths     []int32
	Sharpnesses []float32
}

// UVSet is a named set of texture coordinates, optionally indexed.
type UVSet struct {
	Name    string
	Values  []math.Vec2
	Indices []uint32
}

// Attribute is a rest-pose user attribute. Indexed attributes (face sets)
// carry a value table in Value and one index per element in Indices.
type Attribute struct {
	Name    string
	Value   archive.Value
	Indices []uint32
}

// IsSubD reports whether the leaf must be written as a subdivision surface.
func (d *Data) IsSubD() bool {
	return d.Type == archive.SchemaSubD || d.Creases != nil
}
