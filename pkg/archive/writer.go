package archive

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// ContainerKind selects the on-disk encoding of a written archive.
type ContainerKind int

const (
	// ContainerRaw streams uncompressed samples straight to disk.
	ContainerRaw ContainerKind = iota
	// ContainerCompressed streams zlib-compressed samples straight to disk.
	ContainerCompressed
	// ContainerMemory buffers uncompressed samples in memory and writes the
	// file at Close.
	ContainerMemory
	// ContainerMemoryCompressed buffers compressed samples in memory.
	ContainerMemoryCompressed
)

// FlushChunkSize bounds each write when a memory container is flushed.
const FlushChunkSize = 2 << 20

// String returns a short name for the container kind.
func (k ContainerKind) String() string {
	switch k {
	case ContainerRaw:
		return "raw"
	case ContainerCompressed:
		return "compressed"
	case ContainerMemory:
		return "memory"
	case ContainerMemoryCompressed:
		return "memory-compressed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

func (k ContainerKind) compressed() bool {
	return k == ContainerCompressed || k == ContainerMemoryCompressed
}

func (k ContainerKind) buffered() bool {
	return k == ContainerMemory || k == ContainerMemoryCompressed
}

// Writer creates a scene archive. It is not safe for concurrent use.
type Writer struct {
	path      string
	kind      ContainerKind
	id        uuid.UUID
	file      *os.File
	stream    *bufio.Writer
	memory    *bytes.Buffer
	offset    uint64
	samplings []TimeSampling
	objects   []*OObject
	blobs     map[[sha256.Size]byte]blobRef
	written   int64
	closed    bool
}

// OObject is an object being written.
type OObject struct {
	w        *Writer
	index    int
	parent   int
	name     string
	schema   Schema
	children []*OObject
	props    []*OProperty
}

// OProperty is a property being written.
type OProperty struct {
	object   *OObject
	name     string
	dataType DataType
	extent   int
	sampling uint32
	samples  []blobRef
}

// Create creates the file at path and returns a writer for it.
func Create(path string, kind ContainerKind) (*Writer, error) {
	if kind < ContainerRaw || kind > ContainerMemoryCompressed {
		return nil, fmt.Errorf("%w: %d", ErrUnknownContainer, int(kind))
	}

	w := &Writer{
		path:      path,
		kind:      kind,
		id:        uuid.New(),
		offset:    headerSize,
		samplings: []TimeSampling{IdentitySampling()},
		blobs:     make(map[[sha256.Size]byte]blobRef),
	}
	w.objects = []*OObject{{w: w, index: 0, parent: -1, schema: SchemaGroup}}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	w.file = file

	if kind.buffered() {
		w.memory = &bytes.Buffer{}
		return w, nil
	}
	if _, err := file.Write(make([]byte, headerSize)); err != nil {
		file.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	w.stream = bufio.NewWriterSize(file, 1<<20)
	return w, nil
}

// Path returns the output path.
func (w *Writer) Path() string { return w.path }

// ID returns the identifier stamped into the archive header.
func (w *Writer) ID() uuid.UUID { return w.id }

// Kind returns the container kind.
func (w *Writer) Kind() ContainerKind { return w.kind }

// BytesWritten returns the file size after Close.
func (w *Writer) BytesWritten() int64 { return w.written }

// Root returns the top object.
func (w *Writer) Root() *OObject { return w.objects[0] }

// AddTimeSampling registers ts and returns its index. Identical samplings
// share one index.
func (w *Writer) AddTimeSampling(ts TimeSampling) uint32 {
	for i, existing := range w.samplings {
		if existing.Equal(ts) {
			return uint32(i)
		}
	}
	w.samplings = append(w.samplings, TimeSampling{
		Type:         ts.Type,
		TimePerCycle: ts.TimePerCycle,
		Times:        append([]float64{}, ts.Times...),
	})
	return uint32(len(w.samplings) - 1)
}

// NewChild appends a child object. Names are not checked for uniqueness;
// use Child first when re-visiting shared structure.
func (o *OObject) NewChild(name string, schema Schema) *OObject {
	child := &OObject{w: o.w, index: len(o.w.objects), parent: o.index, name: name, schema: schema}
	o.w.objects = append(o.w.objects, child)
	o.children = append(o.children, child)
	return child
}

// Child returns an existing child by name.
func (o *OObject) Child(name string) (*OObject, bool) {
	for _, c := range o.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Name returns the object name.
func (o *OObject) Name() string { return o.name }

// Schema returns the object's schema.
func (o *OObject) Schema() Schema { return o.schema }

// SetSchema changes the schema recorded for the object.
func (o *OObject) SetSchema(s Schema) { o.schema = s }

// NewProperty adds a property with the given element type, extent and time
// sampling index.
func (o *OObject) NewProperty(name string, t DataType, extent int, sampling uint32) (*OProperty, error) {
	for _, p := range o.props {
		if p.name == name {
			return nil, fmt.Errorf("%s on %s: %w", name, o.name, ErrPropertyExists)
		}
	}
	if extent < 1 {
		extent = 1
	}
	if int(sampling) >= len(o.w.samplings) {
		sampling = 0
	}
	p := &OProperty{object: o, name: name, dataType: t, extent: extent, sampling: sampling}
	o.props = append(o.props, p)
	return p, nil
}

// Property returns an existing property by name.
func (o *OObject) Property(name string) (*OProperty, bool) {
	for _, p := range o.props {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

// Name returns the property name.
func (p *OProperty) Name() string { return p.name }

// NumSamples returns the number of samples appended so far.
func (p *OProperty) NumSamples() int { return len(p.samples) }

// Append writes one sample. The value type must match the property, except
// that an empty Value is accepted for any property.
func (p *OProperty) Append(v Value) error {
	w := p.object.w
	if w.closed {
		return ErrClosed
	}
	if t := v.Type(); t != 0 && t != p.dataType {
		return fmt.Errorf("%s: appending %s to %s property: %w", p.name, t, p.dataType, ErrTypeMismatch)
	}
	ref, err := w.storeBlob(p.dataType, v)
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	p.samples = append(p.samples, ref)
	return nil
}

// storeBlob writes the encoded sample, reusing an identical earlier blob.
func (w *Writer) storeBlob(t DataType, v Value) (blobRef, error) {
	raw := encodeValue(v, t)
	count := uint32(v.Len())

	h := sha256.New()
	h.Write([]byte{byte(t)})
	h.Write(raw)
	var digest [sha256.Size]byte
	copy(digest[:], h.Sum(nil))
	if ref, ok := w.blobs[digest]; ok && ref.Count == count {
		return ref, nil
	}

	stored := raw
	if w.kind.compressed() && len(raw) > 0 {
		packed, err := compress(raw)
		if err != nil {
			return blobRef{}, err
		}
		if len(packed) < len(raw) {
			stored = packed
		}
	}

	ref := blobRef{Offset: w.offset, Size: uint32(len(stored)), RawSize: uint32(len(raw)), Count: count}
	var sink io.Writer = w.stream
	if w.memory != nil {
		sink = w.memory
	}
	if _, err := sink.Write(stored); err != nil {
		return blobRef{}, err
	}
	w.offset += uint64(len(stored))
	w.blobs[digest] = ref
	return ref, nil
}

func (w *Writer) encodeTable() []byte {
	e := &tableEncoder{}
	e.u32(uint32(len(w.samplings)))
	for _, ts := range w.samplings {
		e.u8(uint8(ts.Type))
		e.f64(ts.TimePerCycle)
		e.u32(uint32(len(ts.Times)))
		for _, t := range ts.Times {
			e.f64(t)
		}
	}
	e.u32(uint32(len(w.objects)))
	for _, o := range w.objects {
		e.str(o.name)
		e.i32(int32(o.parent))
		e.u8(uint8(o.schema))
		e.u32(uint32(len(o.props)))
		for _, p := range o.props {
			e.str(p.name)
			e.u8(uint8(p.dataType))
			e.u8(uint8(p.extent))
			e.u32(p.sampling)
			e.u32(uint32(len(p.samples)))
			for _, s := range p.samples {
				e.u64(s.Offset)
				e.u32(s.Size)
				e.u32(s.RawSize)
				e.u32(s.Count)
			}
		}
	}
	return e.buf
}

// Close writes the table and header and closes the file. Memory containers
// are written to disk here in FlushChunkSize blocks.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.file.Close()

	raw := w.encodeTable()
	table, err := compress(raw)
	if err != nil {
		return fmt.Errorf("compressing table: %w", err)
	}

	header := Header{
		Version:      archiveVersion,
		ID:           w.id,
		TableOffset:  w.offset,
		TableSize:    uint32(len(table)),
		RawTableSize: uint32(len(raw)),
	}
	copy(header.Magic[:], archiveMagic)
	if w.kind.compressed() {
		header.Flags |= flagCompressed
	}

	if w.memory != nil {
		for _, chunk := range [][]byte{header.encode(), w.memory.Bytes(), table} {
			if err := writeChunked(w.file, chunk); err != nil {
				return fmt.Errorf("flushing archive: %w", err)
			}
		}
	} else {
		if _, err := w.stream.Write(table); err != nil {
			return fmt.Errorf("writing table: %w", err)
		}
		if err := w.stream.Flush(); err != nil {
			return fmt.Errorf("writing samples: %w", err)
		}
		if _, err := w.file.WriteAt(header.encode(), 0); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	w.written = int64(w.offset) + int64(len(table))
	return w.file.Sync()
}

func writeChunked(dst io.Writer, data []byte) error {
	for len(data) > 0 {
		n := min(len(data), FlushChunkSize)
		if _, err := dst.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Abort closes the writer without producing a valid archive and removes the
// partially written file.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.file.Close()
	return os.Remove(w.path)
}
