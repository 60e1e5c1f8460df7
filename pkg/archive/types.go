// Package archive reads and writes scene archives: a hierarchy of named
// objects, each carrying typed, time-sampled properties.
//
// A file is a fixed 64-byte header, a run of sample blobs and a
// zlib-compressed table describing objects, properties, time samplings and
// the location of every sample blob.
package archive

import (
	"errors"
	"fmt"
)

// Archive errors.
var (
	ErrInvalidMagic       = errors.New("invalid scene archive magic")
	ErrUnsupportedVersion = errors.New("unsupported scene archive version")
	ErrTruncated          = errors.New("truncated scene archive")
	ErrCorruptTable       = errors.New("corrupt scene archive table")
	ErrTypeMismatch       = errors.New("sample type does not match property")
	ErrPropertyExists     = errors.New("property already exists")
	ErrNoSamples          = errors.New("property has no samples")
	ErrClosed             = errors.New("archive writer is closed")
	ErrUnknownContainer   = errors.New("unknown container kind")
)

// DataType identifies the element type of a property.
type DataType uint8

const (
	TypeBool DataType = iota + 1
	TypeInt32
	TypeFloat32
	TypeFloat64
	TypeString
)

// String returns a short type name.
func (t DataType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt32:
		return "int32"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Schema identifies what an object represents.
type Schema uint8

const (
	SchemaGroup Schema = iota
	SchemaXform
	SchemaPolyMesh
	SchemaSubD
)

// String returns a human-readable schema name.
func (s Schema) String() string {
	switch s {
	case SchemaGroup:
		return "Group"
	case SchemaXform:
		return "Xform"
	case SchemaPolyMesh:
		return "PolyMesh"
	case SchemaSubD:
		return "SubD"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// IsGeometry reports whether the schema carries shape data.
func (s Schema) IsGeometry() bool {
	return s == SchemaPolyMesh || s == SchemaSubD
}

// Value is one property sample. Exactly one of the slices is meaningful,
// selected by the property's DataType. The zero Value is an empty sample of
// any type.
type Value struct {
	Bool    []bool
	Int32   []int32
	Float32 []float32
	Float64 []float64
	String  []string
}

// Bools wraps v as a Value.
func Bools(v []bool) Value { return Value{Bool: v} }

// Int32s wraps v as a Value.
func Int32s(v []int32) Value { return Value{Int32: v} }

// Float32s wraps v as a Value.
func Float32s(v []float32) Value { return Value{Float32: v} }

// Float64s wraps v as a Value.
func Float64s(v []float64) Value { return Value{Float64: v} }

// Strings wraps v as a Value.
func Strings(v []string) Value { return Value{String: v} }

// Type returns the data type of the populated slice, or 0 for an empty Value.
func (v Value) Type() DataType {
	switch {
	case v.Bool != nil:
		return TypeBool
	case v.Int32 != nil:
		return TypeInt32
	case v.Float32 != nil:
		return TypeFloat32
	case v.Float64 != nil:
		return TypeFloat64
	case v.String != nil:
		return TypeString
	}
	return 0
}

// Len returns the number of scalar values held.
func (v Value) Len() int {
	switch v.Type() {
	case TypeBool:
		return len(v.Bool)
	case TypeInt32:
		return len(v.Int32)
	case TypeFloat32:
		return len(v.Float32)
	case TypeFloat64:
		return len(v.Float64)
	case TypeString:
		return len(v.String)
	}
	return 0
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	var out Value
	if v.Bool != nil {
		out.Bool = append([]bool{}, v.Bool...)
	}
	if v.Int32 != nil {
		out.Int32 = append([]int32{}, v.Int32...)
	}
	if v.Float32 != nil {
		out.Float32 = append([]float32{}, v.Float32...)
	}
	if v.Float64 != nil {
		out.Float64 = append([]float64{}, v.Float64...)
	}
	if v.String != nil {
		out.String = append([]string{}, v.String...)
	}
	return out
}
