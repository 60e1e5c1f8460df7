package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Archive represents an opened scene archive.
type Archive struct {
	name      string
	r         io.ReaderAt
	closer    io.Closer
	size      int64
	header    Header
	samplings []TimeSampling
	objects   []*Object
}

// Object is one node of the archive hierarchy.
type Object struct {
	archive  *Archive
	name     string
	schema   Schema
	parent   *Object
	children []*Object
	props    []*Property
	byName   map[string]*Property
}

// Property is a named, typed sequence of samples on an object.
type Property struct {
	object   *Object
	name     string
	dataType DataType
	extent   int
	sampling uint32
	samples  []blobRef
}

// Open opens a scene archive on disk for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	a, err := newArchive(path, file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	a.closer = file
	return a, nil
}

// OpenBytes parses a scene archive held entirely in memory.
func OpenBytes(name string, data []byte) (*Archive, error) {
	return newArchive(name, bytes.NewReader(data), int64(len(data)))
}

func newArchive(name string, r io.ReaderAt, size int64) (*Archive, error) {
	header, err := readHeader(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	a := &Archive{name: name, r: r, size: size, header: header}
	if err := a.readTable(); err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	return a, nil
}

// within reports whether size bytes at offset lie inside the archive.
func (a *Archive) within(offset uint64, size uint32) bool {
	return offset <= uint64(a.size) && uint64(size) <= uint64(a.size)-offset
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readTable() error {
	compressed := make([]byte, a.header.TableSize)
	if _, err := a.r.ReadAt(compressed, int64(a.header.TableOffset)); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	raw, err := decompress(compressed, int(a.header.RawTableSize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}

	d := &tableDecoder{data: raw}

	nSamplings := d.count(13)
	for i := 0; i < nSamplings; i++ {
		ts := TimeSampling{Type: SamplingType(d.u8()), TimePerCycle: d.f64()}
		nTimes := d.count(8)
		ts.Times = make([]float64, nTimes)
		for j := range ts.Times {
			ts.Times[j] = d.f64()
		}
		a.samplings = append(a.samplings, ts)
	}

	nObjects := d.count(13)
	for i := 0; i < nObjects; i++ {
		obj := &Object{archive: a, byName: make(map[string]*Property)}
		obj.name = d.str()
		parent := d.i32()
		obj.schema = Schema(d.u8())
		if d.err != nil {
			return d.err
		}
		if i == 0 {
			if parent != -1 {
				return fmt.Errorf("%w: root has a parent", ErrCorruptTable)
			}
		} else {
			if parent < 0 || int(parent) >= i {
				return fmt.Errorf("%w: object %d has parent %d", ErrCorruptTable, i, parent)
			}
			obj.parent = a.objects[parent]
			obj.parent.children = append(obj.parent.children, obj)
		}

		nProps := d.count(14)
		for j := 0; j < nProps; j++ {
			p := &Property{object: obj}
			p.name = d.str()
			p.dataType = DataType(d.u8())
			p.extent = int(d.u8())
			p.sampling = d.u32()
			nSamples := d.count(20)
			p.samples = make([]blobRef, nSamples)
			for k := range p.samples {
				p.samples[k] = blobRef{Offset: d.u64(), Size: d.u32(), RawSize: d.u32(), Count: d.u32()}
			}
			if d.err != nil {
				return d.err
			}
			if int(p.sampling) >= len(a.samplings) {
				return fmt.Errorf("%w: property %s uses sampling %d", ErrCorruptTable, p.name, p.sampling)
			}
			obj.props = append(obj.props, p)
			obj.byName[p.name] = p
		}
		a.objects = append(a.objects, obj)
	}
	if d.err != nil {
		return d.err
	}
	if len(a.objects) == 0 {
		return fmt.Errorf("%w: no root object", ErrCorruptTable)
	}
	return nil
}

// Name returns the path or name the archive was opened with.
func (a *Archive) Name() string { return a.name }

// Header returns the archive header.
func (a *Archive) Header() Header { return a.header }

// ID returns the archive's unique identifier.
func (a *Archive) ID() uuid.UUID { return uuid.UUID(a.header.ID) }

// Size returns the archive size in bytes.
func (a *Archive) Size() int64 { return a.size }

// Root returns the top object of the hierarchy.
func (a *Archive) Root() *Object { return a.objects[0] }

// NumObjects returns the number of objects including the root.
func (a *Archive) NumObjects() int { return len(a.objects) }

// TimeSamplings returns the archive's time samplings; index 0 is identity.
func (a *Archive) TimeSamplings() []TimeSampling { return a.samplings }

// Walk visits every object in depth-first pre-order. Returning false from
// fn skips the object's children.
func (a *Archive) Walk(fn func(*Object) bool) {
	var visit func(*Object)
	visit = func(o *Object) {
		if !fn(o) {
			return
		}
		for _, c := range o.children {
			visit(c)
		}
	}
	visit(a.Root())
}

// Name returns the object's name.
func (o *Object) Name() string { return o.name }

// Schema returns what the object represents.
func (o *Object) Schema() Schema { return o.schema }

// Parent returns the parent object, or nil for the root.
func (o *Object) Parent() *Object { return o.parent }

// Children returns the child objects in stored order.
func (o *Object) Children() []*Object { return o.children }

// Child returns the named child.
func (o *Object) Child(name string) (*Object, bool) {
	for _, c := range o.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// FullName returns the slash-separated path from the root.
func (o *Object) FullName() string {
	var parts []string
	for cur := o; cur != nil && cur.parent != nil; cur = cur.parent {
		parts = append(parts, cur.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// Properties returns the object's properties in stored order.
func (o *Object) Properties() []*Property { return o.props }

// Property returns the named property.
func (o *Object) Property(name string) (*Property, bool) {
	p, ok := o.byName[name]
	return p, ok
}

// NumSamples returns the largest sample count among the object's properties.
func (o *Object) NumSamples() int {
	n := 0
	for _, p := range o.props {
		if len(p.samples) > n {
			n = len(p.samples)
		}
	}
	return n
}

// Name returns the property name.
func (p *Property) Name() string { return p.name }

// Type returns the element type.
func (p *Property) Type() DataType { return p.dataType }

// Extent returns the number of scalars per element (3 for points, 16 for matrices).
func (p *Property) Extent() int { return p.extent }

// NumSamples returns the number of stored samples.
func (p *Property) NumSamples() int { return len(p.samples) }

// TimeSamplingIndex returns the index of the property's time sampling.
func (p *Property) TimeSamplingIndex() uint32 { return p.sampling }

// TimeSampling returns the property's time sampling.
func (p *Property) TimeSampling() TimeSampling {
	return p.object.archive.samplings[p.sampling]
}

// Sample reads sample i. Out-of-range indices are clamped to the first or
// last sample.
func (p *Property) Sample(i int) (Value, error) {
	if len(p.samples) == 0 {
		return Value{}, fmt.Errorf("%s: %w", p.name, ErrNoSamples)
	}
	if i < 0 {
		i = 0
	}
	if i >= len(p.samples) {
		i = len(p.samples) - 1
	}
	ref := p.samples[i]
	a := p.object.archive

	if ref.Offset+uint64(ref.Size) > uint64(a.size) {
		return Value{}, fmt.Errorf("%s sample %d: %w", p.name, i, ErrTruncated)
	}
	if !a.within(ref.Offset, ref.Size) {
		return Value{}, fmt.Errorf("%s sample %d: %w", p.name, i, ErrTruncated)
	}
	data := make([]byte, ref.Size)
	if ref.Size > 0 {
		if _, err := a.r.ReadAt(data, int64(ref.Offset)); err != nil {
			return Value{}, fmt.Errorf("%s sample %d: %w", p.name, i, err)
		}
	}
	if ref.Size != ref.RawSize {
		var err error
		if data, err = decompress(data, int(ref.RawSize)); err != nil {
			return Value{}, fmt.Errorf("%s sample %d: %w", p.name, i, err)
		}
	}
	v, err := decodeValue(data, p.dataType, int(ref.Count))
	if err != nil {
		return Value{}, fmt.Errorf("%s sample %d: %w", p.name, i, err)
	}
	return v, nil
}

// Float32s reads sample i of a float32 property.
func (p *Property) Float32s(i int) ([]float32, error) {
	if err := p.expect(TypeFloat32); err != nil {
		return nil, err
	}
	v, err := p.Sample(i)
	return v.Float32, err
}

// Float64s reads sample i of a float64 property.
func (p *Property) Float64s(i int) ([]float64, error) {
	if err := p.expect(TypeFloat64); err != nil {
		return nil, err
	}
	v, err := p.Sample(i)
	return v.Float64, err
}

// Int32s reads sample i of an int32 property.
func (p *Property) Int32s(i int) ([]int32, error) {
	if err := p.expect(TypeInt32); err != nil {
		return nil, err
	}
	v, err := p.Sample(i)
	return v.Int32, err
}

// Bools reads sample i of a bool property.
func (p *Property) Bools(i int) ([]bool, error) {
	if err := p.expect(TypeBool); err != nil {
		return nil, err
	}
	v, err := p.Sample(i)
	return v.Bool, err
}

// Strings reads sample i of a string property.
func (p *Property) Strings(i int) ([]string, error) {
	if err := p.expect(TypeString); err != nil {
		return nil, err
	}
	v, err := p.Sample(i)
	return v.String, err
}

func (p *Property) expect(t DataType) error {
	if p.dataType != t {
		return fmt.Errorf("%s is %s, not %s: %w", p.name, p.dataType, t, ErrTypeMismatch)
	}
	return nil
}
