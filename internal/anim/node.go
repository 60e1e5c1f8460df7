// Package anim holds the in-memory animated hierarchy read from animation
// archives: transforms, visibility, attributes and per-sample geometry.
package anim

import (
	"github.com/Faultbox/scenejoin/pkg/archive"
	"github.com/Faultbox/scenejoin/pkg/math"
)

// Node is one level of an animated hierarchy. Kind is either *Xform
// (interior) or *Shape (leaf), so a node never has both geometry and
// children.
type Node struct {
	Name string
	// Sampling is nil for a single sample with no time axis.
	Sampling   *archive.TimeSampling
	Visibility *Visibility
	Attributes []Attribute
	Kind       Kind
}

// Kind is implemented by *Xform and *Shape only.
type Kind interface {
	kind()
}

// Xform is an interior node: optional per-sample matrices and owned children.
type Xform struct {
	Matrices []math.Mat4
	Children []*Node
}

func (*Xform) kind() {}

// Shape is a leaf node carrying geometry samples.
type Shape struct {
	Type archive.Schema
	// Points holds one position array per sample; Points[0] is the base sample.
	Points     [][]math.Vec3
	Topology   Topology
	Normals    *Normals
	Velocities [][]math.Vec3
}

func (*Shape) kind() {}

// Visibility is a per-sample on/off flag with its own sampling.
type Visibility struct {
	Samples  []bool
	Sampling *archive.TimeSampling
}

// Attribute is a named, typed user value, one archive.Value per sample.
type Attribute struct {
	Name     string
	Type     archive.DataType
	Samples  []archive.Value
	Sampling *archive.TimeSampling
}

// Topology is the face description shared by every sample of a shape.
type Topology struct {
	FaceCounts  []int32
	FaceIndices []int32
}

// NumFaces returns the number of faces.
func (t Topology) NumFaces() int { return len(t.FaceCounts) }

// Equal reports whether both arrays are element-for-element identical.
func (t Topology) Equal(other Topology) bool {
	return int32sEqual(t.FaceCounts, other.FaceCounts) && int32sEqual(t.FaceIndices, other.FaceIndices)
}

func int32sEqual(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NewXform returns an interior node.
func NewXform(name string, children ...*Node) *Node {
	return &Node{Name: name, Kind: &Xform{Children: children}}
}

// NewShape returns a leaf node.
func NewShape(name string, shape *Shape) *Node {
	return &Node{Name: name, Kind: shape}
}

// Xform returns the interior data, if this is an interior node.
func (n *Node) Xform() (*Xform, bool) {
	x, ok := n.Kind.(*Xform)
	return x, ok
}

// Shape returns the geometry, if this is a leaf node.
func (n *Node) Shape() (*Shape, bool) {
	s, ok := n.Kind.(*Shape)
	return s, ok
}

// Children returns the node's children; leaves have none.
func (n *Node) Children() []*Node {
	if x, ok := n.Xform(); ok {
		return x.Children
	}
	return nil
}

// Child returns the named child.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumSamples returns the number of samples on the node's own time axis.
func (n *Node) NumSamples() int {
	switch k := n.Kind.(type) {
	case *Xform:
		return max(1, len(k.Matrices))
	case *Shape:
		return max(1, len(k.Points))
	}
	return 1
}

// Leaf pairs a shape node with its ancestry, root first. Ancestors excludes
// the archive root and the leaf itself; Parent is nil for top-level leaves.
type Leaf struct {
	Node      *Node
	Shape     *Shape
	Parent    *Node
	Ancestors []string
}

// Path returns the ancestor names followed by the leaf name.
func (l Leaf) Path() []string {
	path := make([]string, 0, len(l.Ancestors)+1)
	path = append(path, l.Ancestors...)
	return append(path, l.Node.Name)
}

// Leaves returns every shape under root in depth-first order. root itself is
// treated as the archive root and contributes no name.
func Leaves(root *Node) []Leaf {
	var out []Leaf
	var visit func(n, parent *Node, ancestors []string)
	visit = func(n, parent *Node, ancestors []string) {
		if s, ok := n.Shape(); ok {
			out = append(out, Leaf{Node: n, Shape: s, Parent: parent, Ancestors: ancestors})
			return
		}
		var next []string
		if n != root {
			next = make([]string, len(ancestors), len(ancestors)+1)
			copy(next, ancestors)
			next = append(next, n.Name)
		}
		p := n
		if n == root {
			p = nil
		}
		for _, c := range n.Children() {
			visit(c, p, next)
		}
	}
	visit(root, nil, nil)
	return out
}
