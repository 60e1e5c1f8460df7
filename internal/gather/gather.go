// Package gather reads animation archives into anim trees.
package gather

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/pkg/archive"
)

// ErrUnreadable reports an input file that does not open as an archive.
var ErrUnreadable = errors.New("cannot read archive")

// Options controls how animation archives are loaded.
type Options struct {
	// NoLoadOpt disables reading whole files into memory before parsing.
	NoLoadOpt bool
	Logger    *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Open opens an archive. Unless noLoadOpt is set, the file is read into
// memory and parsed from there first; a failed in-memory parse falls back
// to reading from disk.
func Open(path string, noLoadOpt bool) (*archive.Archive, error) {
	if !noLoadOpt {
		if data, err := os.ReadFile(path); err == nil {
			if a, err := archive.OpenBytes(path, data); err == nil {
				return a, nil
			}
		}
	}
	return archive.Open(path)
}

// AnimFiles gathers every path in order. The first file that cannot be read
// stops the gather and is named in the returned error.
func AnimFiles(paths []string, opts Options) (anim.Files, error) {
	log := opts.logger()
	files := make(anim.Files, 0, len(paths))
	for i, path := range paths {
		root, err := AnimFile(path, opts.NoLoadOpt)
		if err != nil {
			return nil, err
		}
		leaves := anim.Leaves(root)
		samples := 0
		for _, l := range leaves {
			samples = max(samples, l.Node.NumSamples())
		}
		log.Info("gathered animation",
			zap.String("file", path),
			zap.Int("leaves", len(leaves)),
			zap.Int("samples", samples))
		files = append(files, anim.File{Name: path, Root: root, Index: i})
	}
	return files, nil
}

// AnimFile reads one animation archive into a tree.
func AnimFile(path string, noLoadOpt bool) (*anim.Node, error) {
	a, err := Open(path, noLoadOpt)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrUnreadable, path, err)
	}
	defer a.Close()

	root, err := Tree(a)
	if err != nil {
		return nil, fmt.Errorf("%w %s (%s): %w", ErrUnreadable, path, humanize.Bytes(uint64(a.Size())), err)
	}
	return root, nil
}

// Tree converts an opened archive into an anim tree rooted at an unnamed
// interior node.
func Tree(a *archive.Archive) (*anim.Node, error) {
	root := anim.NewXform("")
	x, _ := root.Xform()
	children, err := visitChildren(a.Root(), a)
	if err != nil {
		return nil, err
	}
	x.Children = children
	return root, nil
}

// visitChildren keeps every transform child and only the first geometry
// child of obj.
func visitChildren(obj *archive.Object, a *archive.Archive) ([]*anim.Node, error) {
	var out []*anim.Node
	haveShape := false
	for _, c := range obj.Children() {
		if c.Schema().IsGeometry() {
			if haveShape {
				continue
			}
			haveShape = true
			n, err := readShape(c, a)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
			continue
		}
		n, err := readXform(c, a)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func readXform(obj *archive.Object, a *archive.Archive) (*anim.Node, error) {
	x := &anim.Xform{}
	n := &anim.Node{Name: obj.Name(), Kind: x}

	if p, ok := obj.Property(archive.PropXform); ok {
		for i := 0; i < p.NumSamples(); i++ {
			v, err := p.Float64s(i)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", obj.FullName(), err)
			}
			x.Matrices = append(x.Matrices, mathMat4(v))
		}
		n.Sampling = samplingOf(p, a)
	}
	if err := readCommon(obj, n, a); err != nil {
		return nil, err
	}

	children, err := visitChildren(obj, a)
	if err != nil {
		return nil, err
	}
	x.Children = children
	return n, nil
}

func readShape(obj *archive.Object, a *archive.Archive) (*anim.Node, error) {
	s := &anim.Shape{Type: obj.Schema()}
	n := &anim.Node{Name: obj.Name(), Kind: s}
	fail := func(err error) (*anim.Node, error) {
		return nil, fmt.Errorf("%s: %w", obj.FullName(), err)
	}

	if p, ok := obj.Property(archive.PropPositions); ok {
		for i := 0; i < p.NumSamples(); i++ {
			v, err := p.Float32s(i)
			if err != nil {
				return fail(err)
			}
			s.Points = append(s.Points, vec3s(v))
		}
		n.Sampling = samplingOf(p, a)
	}

	var err error
	if s.Topology.FaceCounts, err = int32Prop(obj, archive.PropFaceCounts); err != nil {
		return fail(err)
	}
	if s.Topology.FaceIndices, err = int32Prop(obj, archive.PropFaceIndices); err != nil {
		return fail(err)
	}
	if s.Normals, err = readNormals(obj); err != nil {
		return fail(err)
	}

	if p, ok := obj.Property(archive.PropVelocities); ok {
		for i := 0; i < p.NumSamples(); i++ {
			v, err := p.Float32s(i)
			if err != nil {
				return fail(err)
			}
			s.Velocities = append(s.Velocities, vec3s(v))
		}
	}

	if err := readCommon(obj, n, a); err != nil {
		return nil, err
	}
	return n, nil
}

// readNormals reads N, indexed when an N.indices companion is present. An
// empty sample was elided on write and stays empty; a leaf whose samples
// are all empty has no normals.
func readNormals(obj *archive.Object) (*anim.Normals, error) {
	p, ok := obj.Property(archive.PropNormals)
	if !ok || p.NumSamples() == 0 {
		return nil, nil
	}
	ip, indexed := obj.Property(archive.IndicesName(archive.PropNormals))

	out := &anim.Normals{}
	if indexed {
		out.Indexed = &anim.IndexedNormals{}
	}
	authored := false
	for i := 0; i < p.NumSamples(); i++ {
		v, err := p.Float32s(i)
		if err != nil {
			return nil, err
		}
		authored = authored || len(v) > 0
		table := vec3s(v)
		if !indexed {
			out.Dense = append(out.Dense, table)
			continue
		}
		idx, err := ip.Int32s(i)
		if err != nil {
			return nil, err
		}
		for _, slot := range idx {
			if slot < 0 || int(slot) >= len(table) {
				return nil, fmt.Errorf("sample %d: normal index %d out of range [0,%d)", i, slot, len(table))
			}
		}
		out.Indexed.Tables = append(out.Indexed.Tables, table)
		out.Indexed.Indices = append(out.Indexed.Indices, uint32s(idx))
	}
	if !authored {
		return nil, nil
	}
	return out, nil
}

// readCommon fills visibility and user attributes shared by both kinds.
func readCommon(obj *archive.Object, n *anim.Node, a *archive.Archive) error {
	if p, ok := obj.Property(archive.PropVisible); ok && p.Type() == archive.TypeBool {
		vis := &anim.Visibility{Sampling: samplingOf(p, a)}
		for i := 0; i < p.NumSamples(); i++ {
			v, err := p.Bools(i)
			if err != nil {
				return fmt.Errorf("%s: %w", obj.FullName(), err)
			}
			vis.Samples = append(vis.Samples, len(v) > 0 && v[0])
		}
		n.Visibility = vis
	}

	for _, p := range obj.Properties() {
		if !IsUserAttribute(p) {
			continue
		}
		attr := anim.Attribute{Name: p.Name(), Type: p.Type(), Sampling: samplingOf(p, a)}
		for i := 0; i < p.NumSamples(); i++ {
			v, err := p.Sample(i)
			if err != nil {
				return fmt.Errorf("%s: %w", obj.FullName(), err)
			}
			attr.Samples = append(attr.Samples, v)
		}
		n.Attributes = append(n.Attributes, attr)
	}
	return nil
}
