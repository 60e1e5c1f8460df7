package model

import (
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/scenejoin/internal/gather"
	"github.com/Faultbox/scenejoin/internal/geom"
	"github.com/Faultbox/scenejoin/internal/scenepath"
	"github.com/Faultbox/scenejoin/pkg/archive"
	"github.com/Faultbox/scenejoin/pkg/math"
)

// ShaderAttribute is the indexed string attribute built from face sets.
const ShaderAttribute = archive.UserPrefix + "shader"

// DefaultFaceSet names the shader of faces outside every face set.
const DefaultFaceSet = "default"

// Options selects what Gather records.
type Options struct {
	// Positions records rest positions in world space.
	Positions bool
	// Normals records rest normals in world space.
	Normals bool
	// GenerateNormals derives normals for leaves without authored ones.
	GenerateNormals bool
	NoUVs           bool
	ProjectName     string
	// ScaleFactor scales the root of every hierarchy; 0 means 1.
	ScaleFactor float32
	NoLoadOpt   bool
	Logger      *zap.Logger
}

func (o Options) needsWorld() bool {
	return o.Positions || o.Normals || o.GenerateNormals
}

// GatherContext is the transform stack threaded through one gather.
type GatherContext struct {
	stack []math.Mat4
}

// NewGatherContext returns a stack holding the root world scale.
func NewGatherContext(worldScale float32) *GatherContext {
	root := math.Identity()
	if worldScale != 0 && worldScale != 1 {
		root = math.Scale(worldScale, worldScale, worldScale)
	}
	return &GatherContext{stack: []math.Mat4{root}}
}

// Push composes m onto the current transform.
func (c *GatherContext) Push(m math.Mat4) {
	c.stack = append(c.stack, c.Top().Mul(m))
}

// Pop restores the previous transform. The root is never popped.
func (c *GatherContext) Pop() {
	if len(c.stack) > 1 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// Top returns the accumulated transform.
func (c *GatherContext) Top() math.Mat4 { return c.stack[len(c.stack)-1] }

// Depth returns the number of pushed transforms.
func (c *GatherContext) Depth() int { return len(c.stack) - 1 }

// Gather reads every model file and returns the sorted table. With more than
// one file each key is prefixed with the file's asset name.
func Gather(paths []string, opts Options) (*Table, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	multi := len(paths) > 1

	var entries []*Data
	for _, p := range paths {
		a, err := gather.Open(p, opts.NoLoadOpt)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", gather.ErrUnreadable, p, err)
		}
		asset := ""
		if multi {
			asset = scenepath.AssetName(p)
		}
		g := &modelGatherer{opts: opts, ctx: NewGatherContext(opts.ScaleFactor), source: p, asset: asset}
		err = g.visit(a.Root(), nil)
		a.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		log.Info("gathered model", zap.String("file", p), zap.String("asset", asset), zap.Int("leaves", len(g.out)))
		entries = append(entries, g.out...)
	}
	return NewTable(entries, multi)
}

type modelGatherer struct {
	opts   Options
	ctx    *GatherContext
	source string
	asset  string
	out    []*Data
}

func (g *modelGatherer) visit(obj *archive.Object, names []string) error {
	for _, c := range obj.Children() {
		path := append(names[:len(names):len(names)], c.Name())
		if c.Schema().IsGeometry() {
			d, err := g.leaf(c, path)
			if err != nil {
				return fmt.Errorf("%s: %w", c.FullName(), err)
			}
			g.out = append(g.out, d)
			continue
		}

		pushed := false
		if g.opts.needsWorld() {
			if p, ok := c.Property(archive.PropXform); ok && p.NumSamples() > 0 {
				v, err := p.Float64s(0)
				if err != nil {
					return fmt.Errorf("%s: %w", c.FullName(), err)
				}
				g.ctx.Push(math.Mat4FromFloat64s(v))
				pushed = true
			}
		}
		if err := g.visit(c, path); err != nil {
			return err
		}
		if pushed {
			g.ctx.Pop()
		}
	}
	return nil
}

func (g *modelGatherer) leaf(obj *archive.Object, names []string) (*Data, error) {
	d := &Data{
		Key:            scenepath.Key(names, g.asset),
		Names:          names,
		Asset:          g.asset,
		Source:         g.source,
		Type:           obj.Schema(),
		WorldTransform: g.ctx.Top(),
	}

	if p, ok := obj.Property(archive.PropPositions); ok && p.NumSamples() > 0 {
		v, err := p.Float32s(0)
		if err != nil {
			return nil, err
		}
		d.Points = math.Vec3sFromFloats(v)
	}
	var err error
	if d.Topology.FaceCounts, err = int32s(obj, archive.PropFaceCounts); err != nil {
		return nil, err
	}
	if d.Topology.FaceIndices, err = int32s(obj, archive.PropFaceIndices); err != nil {
		return nil, err
	}

	d.RestPositions = d.Points
	if g.opts.Positions {
		d.RestPositions = geom.TransformPoints(d.WorldTransform, d.Points)
	}

	if err := g.normals(obj, d); err != nil {
		return nil, err
	}
	if err := g.creases(obj, d); err != nil {
		return nil, err
	}
	if !g.opts.NoUVs {
		if err := g.uvSets(obj, d); err != nil {
			return nil, err
		}
	}
	if err := g.faceSets(obj, d); err != nil {
		return nil, err
	}
	if err := g.attributes(obj, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (g *modelGatherer) normals(obj *archive.Object, d *Data) error {
	p, ok := obj.Property(archive.PropNormals)
	if ok && p.NumSamples() > 0 {
		v, err := p.Float32s(0)
		if err != nil {
			return err
		}
		table := math.Vec3sFromFloats(v)
		if ip, indexed := obj.Property(archive.IndicesName(archive.PropNormals)); indexed {
			idx, err := ip.Int32s(0)
			if err != nil {
				return err
			}
			expanded := make([]math.Vec3, len(idx))
			for i, slot := range idx {
				if slot < 0 || int(slot) >= len(table) {
					return fmt.Errorf("normal index %d out of range", slot)
				}
				expanded[i] = table[slot]
			}
			table = expanded
		}
		d.RestNormalsLocal = table
	} else if g.opts.GenerateNormals && len(d.Points) > 0 {
		if err := geom.ValidateTopology(d.Topology, len(d.Points)); err != nil {
			return err
		}
		d.RestNormalsLocal = geom.VertexNormals(d.Points, d.Topology)
	}

	if d.RestNormalsLocal != nil {
		d.RestNormals = d.RestNormalsLocal
		if g.opts.needsWorld() {
			d.RestNormals = geom.TransformNormals(d.WorldTransform, d.RestNormalsLocal)
		}
	}
	return nil
}

func (g *modelGatherer) creases(obj *archive.Object, d *Data) error {
	if _, ok := obj.Property(archive.PropCreaseIndices); !ok {
		return nil
	}
	c := &Creases{}
	var err error
	if c.Indices, err = int32s(obj, archive.PropCreaseIndices); err != nil {
		return err
	}
	if c.Lengths, err = int32s(obj, archive.PropCreaseLengths); err != nil {
		return err
	}
	if p, ok := obj.Property(archive.PropCreaseSharpnesses); ok && p.NumSamples() > 0 {
		if c.Sharpnesses, err = p.Float32s(0); err != nil {
			return err
		}
	}
	d.Creases = c
	return nil
}

func (g *modelGatherer) uvSets(obj *archive.Object, d *Data) error {
	for _, p := range obj.Properties() {
		name := p.Name()
		var setName string
		switch {
		case name == archive.PropUV:
			setName = ""
		case strings.HasPrefix(name, archive.UVSetPrefix) && !archive.IsIndicesName(name):
			setName = strings.TrimPrefix(name, archive.UVSetPrefix)
		default:
			continue
		}
		if p.Extent() != 2 || p.NumSamples() == 0 {
			continue
		}
		v, err := p.Float32s(0)
		if err != nil {
			return err
		}
		set := UVSet{Name: setName, Values: math.Vec2sFromFloats(v)}
		if ip, ok := obj.Property(archive.IndicesName(name)); ok {
			idx, err := ip.Int32s(0)
			if err != nil {
				return err
			}
			set.Indices = toUint32s(idx)
		}
		if setName == "" {
			s := set
			d.DefaultUV = &s
			continue
		}
		d.UVSets = append(d.UVSets, set)
	}
	return nil
}

// faceSets resolves face-set membership into the shader attribute: one
// shader path per set plus the default, and one index per face.
func (g *modelGatherer) faceSets(obj *archive.Object, d *Data) error {
	numFaces := d.Topology.NumFaces()
	var shaders []string
	var assign []uint32
	for _, p := range obj.Properties() {
		if !strings.HasPrefix(p.Name(), archive.FaceSetPrefix) {
			continue
		}
		faces, err := p.Int32s(0)
		if err != nil {
			return err
		}
		if shaders == nil {
			shaders = []string{ShaderPath(g.opts.ProjectName, DefaultFaceSet)}
			assign = make([]uint32, numFaces)
		}
		slot := uint32(len(shaders))
		shaders = append(shaders, ShaderPath(g.opts.ProjectName, strings.TrimPrefix(p.Name(), archive.FaceSetPrefix)))
		for _, f := range faces {
			if f < 0 || int(f) >= numFaces {
				return fmt.Errorf("%s: face %d out of range", p.Name(), f)
			}
			assign[f] = slot
		}
	}
	if shaders != nil {
		d.Attributes = append(d.Attributes, Attribute{Name: ShaderAttribute, Value: archive.Strings(shaders), Indices: assign})
	}
	return nil
}

func (g *modelGatherer) attributes(obj *archive.Object, d *Data) error {
	for _, p := range obj.Properties() {
		if !gather.IsUserAttribute(p) || p.Name() == ShaderAttribute || p.NumSamples() == 0 {
			continue
		}
		v, err := p.Sample(0)
		if err != nil {
			return err
		}
		attr := Attribute{Name: p.Name(), Value: v}
		if ip, ok := obj.Property(archive.IndicesName(p.Name())); ok {
			idx, err := ip.Int32s(0)
			if err != nil {
				return err
			}
			attr.Indices = toUint32s(idx)
		}
		d.Attributes = append(d.Attributes, attr)
	}
	return nil
}

// ShaderPath returns the shader assigned to a face set.
func ShaderPath(project, faceSet string) string {
	return path.Join(project, "shaders", faceSet)
}

func int32s(obj *archive.Object, name string) ([]int32, error) {
	p, ok := obj.Property(name)
	if !ok || p.NumSamples() == 0 {
		return nil, nil
	}
	return p.Int32s(0)
}

func toUint32s(v []int32) []uint32 {
	out := make([]uint32, len(v))
	for i, x := range v {
		out[i] = uint32(x)
	}
	return out
}
