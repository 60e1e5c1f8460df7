package merge

import (
	"fmt"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/geom"
	"github.com/Faultbox/scenejoin/internal/model"
	"github.com/Faultbox/scenejoin/pkg/archive"
	"github.com/Faultbox/scenejoin/pkg/math"
)

// emitter writes anim nodes into an output archive with a time offset.
type emitter struct {
	w      *archive.Writer
	offset float64
}

// sampling registers ts shifted by the offset. nil means the identity
// sampling.
func (e *emitter) sampling(ts *archive.TimeSampling) uint32 {
	base := archive.IdentitySampling()
	if ts != nil {
		base = *ts
	}
	if e.offset != 0 {
		base = base.Offset(e.offset)
	}
	return e.w.AddTimeSampling(base)
}

func (e *emitter) prop(obj *archive.OObject, name string, t archive.DataType, extent int, ts uint32, samples ...archive.Value) error {
	p, err := obj.NewProperty(name, t, extent, ts)
	if err != nil {
		return err
	}
	for _, v := range samples {
		if err := p.Append(v); err != nil {
			return err
		}
	}
	return nil
}

// xform writes matrices, visibility and attributes of an interior node.
func (e *emitter) xform(obj *archive.OObject, n *anim.Node) error {
	if x, ok := n.Xform(); ok && len(x.Matrices) > 0 {
		samples := make([]archive.Value, len(x.Matrices))
		for i, m := range x.Matrices {
			samples[i] = archive.Float64s(m.Float64s())
		}
		if err := e.prop(obj, archive.PropXform, archive.TypeFloat64, 16, e.sampling(n.Sampling), samples...); err != nil {
			return err
		}
	}
	return e.common(obj, n)
}

func (e *emitter) common(obj *archive.OObject, n *anim.Node) error {
	if v := n.Visibility; v != nil {
		ts := v.Sampling
		if ts == nil {
			ts = n.Sampling
		}
		samples := make([]archive.Value, len(v.Samples))
		for i, b := range v.Samples {
			samples[i] = archive.Bools([]bool{b})
		}
		if err := e.prop(obj, archive.PropVisible, archive.TypeBool, 1, e.sampling(ts), samples...); err != nil {
			return err
		}
	}
	for _, a := range n.Attributes {
		if err := e.prop(obj, a.Name, a.Type, 1, e.sampling(a.Sampling), a.Samples...); err != nil {
			return err
		}
	}
	return nil
}

// shapePlan selects how a leaf is combined with its model counterpart.
type shapePlan struct {
	model *model.Data
	// rest substitutes the model rest points on sample 0.
	rest bool
	// attach writes the model's rest attributes.
	attach bool
	// elide writes redundant normal samples empty.
	elide *geom.Thresholds
	// restPositions and restNormals add Pref and Nref.
	restPositions bool
	restNormals   bool
}

func (e *emitter) shape(parent *archive.OObject, n *anim.Node, s *anim.Shape, plan shapePlan) error {
	schema := s.Type
	if schema == 0 {
		schema = archive.SchemaPolyMesh
	}
	d := plan.model
	if plan.attach && d.IsSubD() {
		schema = archive.SchemaSubD
	}
	obj := parent.NewChild(n.Name, schema)
	ts := e.sampling(n.Sampling)

	points := s.Points
	if plan.rest && len(points) > 0 {
		points = append([][]math.Vec3{d.Points}, points[1:]...)
	}
	topo := s.Topology
	if plan.rest && len(d.Topology.FaceCounts) > 0 {
		topo = d.Topology
	}

	if err := e.prop(obj, archive.PropPositions, archive.TypeFloat32, 3, ts, vec3Values(points)...); err != nil {
		return fmt.Errorf("%s: %w", n.Name, err)
	}
	if err := e.prop(obj, archive.PropFaceCounts, archive.TypeInt32, 1, 0, archive.Int32s(topo.FaceCounts)); err != nil {
		return err
	}
	if err := e.prop(obj, archive.PropFaceIndices, archive.TypeInt32, 1, 0, archive.Int32s(topo.FaceIndices)); err != nil {
		return err
	}
	if err := e.normals(obj, s, points, topo, ts, plan.elide); err != nil {
		return fmt.Errorf("%s: %w", n.Name, err)
	}
	if len(s.Velocities) > 0 {
		if err := e.prop(obj, archive.PropVelocities, archive.TypeFloat32, 3, ts, vec3Values(s.Velocities)...); err != nil {
			return err
		}
	}
	if err := e.common(obj, n); err != nil {
		return fmt.Errorf("%s: %w", n.Name, err)
	}
	if plan.attach {
		if err := e.restAttributes(obj, d, plan); err != nil {
			return fmt.Errorf("%s: %w", n.Name, err)
		}
	}
	return nil
}

// normals writes N, plus N.indices for indexed data. Redundant samples are
// written empty when elide is set.
func (e *emitter) normals(obj *archive.OObject, s *anim.Shape, points [][]math.Vec3, topo anim.Topology, ts uint32, elide *geom.Thresholds) error {
	ns := s.Normals
	if ns.NumSamples() == 0 {
		return nil
	}
	np, err := obj.NewProperty(archive.PropNormals, archive.TypeFloat32, 3, ts)
	if err != nil {
		return err
	}
	var ip *archive.OProperty
	if ns.Indexed != nil {
		if ip, err = obj.NewProperty(archive.IndicesName(archive.PropNormals), archive.TypeInt32, 1, ts); err != nil {
			return err
		}
	}

	for i := 0; i < ns.NumSamples(); i++ {
		if elide != nil && len(points) > 0 {
			expanded := ns.Sample(i)
			pts := points[min(i, len(points)-1)]
			if geom.NormalsRedundant(pts, topo, expanded, s.NormalScope(len(expanded)), *elide) {
				if err := np.Append(archive.Value{}); err != nil {
					return err
				}
				if ip != nil {
					if err := ip.Append(archive.Value{}); err != nil {
						return err
					}
				}
				continue
			}
		}
		if ns.Indexed == nil {
			if err := np.Append(archive.Float32s(math.FloatsFromVec3s(ns.Dense[i]))); err != nil {
				return err
			}
			continue
		}
		table, index := ns.Indexed.Entry(i)
		if err := np.Append(archive.Float32s(math.FloatsFromVec3s(table))); err != nil {
			return err
		}
		if err := ip.Append(archive.Int32s(int32s(index))); err != nil {
			return err
		}
	}
	return nil
}

// restAttributes writes UVs, creases, rest params and model attributes as
// single static samples.
func (e *emitter) restAttributes(obj *archive.OObject, d *model.Data, plan shapePlan) error {
	if plan.restPositions && d.RestPositions != nil {
		if err := e.prop(obj, archive.PropRestPositions, archive.TypeFloat32, 3, 0, archive.Float32s(math.FloatsFromVec3s(d.RestPositions))); err != nil {
			return err
		}
	}
	if plan.restNormals && d.RestNormals != nil {
		if err := e.prop(obj, archive.PropRestNormals, archive.TypeFloat32, 3, 0, archive.Float32s(math.FloatsFromVec3s(d.RestNormals))); err != nil {
			return err
		}
	}

	if d.DefaultUV != nil {
		if err := e.uvSet(obj, archive.PropUV, d.DefaultUV); err != nil {
			return err
		}
	}
	for i := range d.UVSets {
		if err := e.uvSet(obj, archive.UVSetPrefix+d.UVSets[i].Name, &d.UVSets[i]); err != nil {
			return err
		}
	}

	if c := d.Creases; c != nil {
		if err := e.prop(obj, archive.PropCreaseIndices, archive.TypeInt32, 1, 0, archive.Int32s(c.Indices)); err != nil {
			return err
		}
		if err := e.prop(obj, archive.PropCreaseLengths, archive.TypeInt32, 1, 0, archive.Int32s(c.Lengths)); err != nil {
			return err
		}
		if err := e.prop(obj, archive.PropCreaseSharpnesses, archive.TypeFloat32, 1, 0, archive.Float32s(c.Sharpnesses)); err != nil {
			return err
		}
	}

	for _, a := range d.Attributes {
		// Animated values win over rest values of the same name.
		if _, exists := obj.Property(a.Name); exists || a.Value.Type() == 0 {
			continue
		}
		if err := e.prop(obj, a.Name, a.Value.Type(), 1, 0, a.Value); err != nil {
			return err
		}
		if a.Indices != nil {
			if err := e.prop(obj, archive.IndicesName(a.Name), archive.TypeInt32, 1, 0, archive.Int32s(int32s(a.Indices))); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *emitter) uvSet(obj *archive.OObject, name string, uv *model.UVSet) error {
	if err := e.prop(obj, name, archive.TypeFloat32, 2, 0, archive.Float32s(math.FloatsFromVec2s(uv.Values))); err != nil {
		return err
	}
	if uv.Indices != nil {
		return e.prop(obj, archive.IndicesName(name), archive.TypeInt32, 1, 0, archive.Int32s(int32s(uv.Indices)))
	}
	return nil
}

func vec3Values(samples [][]math.Vec3) []archive.Value {
	out := make([]archive.Value, len(samples))
	for i, s := range samples {
		out[i] = archive.Float32s(math.FloatsFromVec3s(s))
	}
	return out
}

func int32s(v []uint32) []int32 {
	out := make([]int32, len(v))
	for i, x := range v {
		out[i] = int32(x)
	}
	return out
}
