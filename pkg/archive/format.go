package archive

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	archiveMagic   = "SCENEARC"
	archiveVersion = 1
	headerSize     = 64

	flagCompressed uint32 = 1 << 0
)

// Header contains the fixed archive header.
type Header struct {
	Magic        [8]byte
	Version      uint32
	Flags        uint32
	ID           [16]byte
	TableOffset  uint64
	TableSize    uint32 // compressed size on disk
	RawTableSize uint32
	Reserved     [16]byte
}

// Compressed reports whether sample blobs are zlib-compressed.
func (h Header) Compressed() bool {
	return h.Flags&flagCompressed != 0
}

func (h Header) encode() []byte {
	var buf bytes.Buffer
	buf.Grow(headerSize)
	_ = binary.Write(&buf, binary.LittleEndian, h)
	return buf.Bytes()
}

func readHeader(r io.ReaderAt, size int64) (Header, error) {
	var h Header
	if size < headerSize {
		return h, ErrTruncated
	}
	raw := make([]byte, headerSize)
	if _, err := r.ReadAt(raw, 0); err != nil {
		return h, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if string(h.Magic[:]) != archiveMagic {
		return h, ErrInvalidMagic
	}
	if h.Version != archiveVersion {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.TableOffset < headerSize || h.TableOffset > uint64(size) || uint64(h.TableSize) > uint64(size)-h.TableOffset {
		return h, ErrTruncated
	}
	return h, nil
}

// blobRef locates one stored sample.
type blobRef struct {
	Offset  uint64
	Size    uint32 // bytes on disk
	RawSize uint32 // bytes after decompression
	Count   uint32 // scalar values
}

// encodeValue serializes a sample to little-endian bytes.
func encodeValue(v Value, t DataType) []byte {
	switch t {
	case TypeBool:
		out := make([]byte, len(v.Bool))
		for i, b := range v.Bool {
			if b {
				out[i] = 1
			}
		}
		return out
	case TypeInt32:
		out := make([]byte, 0, len(v.Int32)*4)
		for _, x := range v.Int32 {
			out = binary.LittleEndian.AppendUint32(out, uint32(x))
		}
		return out
	case TypeFloat32:
		out := make([]byte, 0, len(v.Float32)*4)
		for _, x := range v.Float32 {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(x))
		}
		return out
	case TypeFloat64:
		out := make([]byte, 0, len(v.Float64)*8)
		for _, x := range v.Float64 {
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(x))
		}
		return out
	case TypeString:
		var out []byte
		for _, s := range v.String {
			out = binary.LittleEndian.AppendUint32(out, uint32(len(s)))
			out = append(out, s...)
		}
		return out
	}
	return nil
}

// decodeValue is the inverse of encodeValue.
func decodeValue(data []byte, t DataType, count int) (Value, error) {
	switch t {
	case TypeBool:
		if len(data) != count {
			return Value{}, ErrCorruptTable
		}
		out := make([]bool, count)
		for i := range out {
			out[i] = data[i] != 0
		}
		return Bools(out), nil
	case TypeInt32:
		if len(data) != count*4 {
			return Value{}, ErrCorruptTable
		}
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return Int32s(out), nil
	case TypeFloat32:
		if len(data) != count*4 {
			return Value{}, ErrCorruptTable
		}
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return Float32s(out), nil
	case TypeFloat64:
		if len(data) != count*8 {
			return Value{}, ErrCorruptTable
		}
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return Float64s(out), nil
	case TypeString:
		out := make([]string, 0, count)
		off := 0
		for i := 0; i < count; i++ {
			if off+4 > len(data) {
				return Value{}, ErrCorruptTable
			}
			n := int(binary.LittleEndian.Uint32(data[off:]))
			off += 4
			if off+n > len(data) {
				return Value{}, ErrCorruptTable
			}
			out = append(out, string(data[off:off+n]))
			off += n
		}
		return Strings(out), nil
	}
	return Value{}, fmt.Errorf("%w: data type %d", ErrCorruptTable, t)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// maxInflateRatio bounds how far zlib can expand its input, so a corrupt
// size field cannot force a huge allocation.
const maxInflateRatio = 1032

func decompress(data []byte, rawSize int) ([]byte, error) {
	if rawSize < 0 || int64(rawSize) > int64(len(data))*maxInflateRatio+64 {
		return nil, fmt.Errorf("declared size %d not reachable from %d compressed bytes", rawSize, len(data))
	}
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	out := make([]byte, rawSize)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}

// tableEncoder appends little-endian fields to a buffer.
type tableEncoder struct {
	buf []byte
}

func (e *tableEncoder) u8(v uint8)   { e.buf = append(e.buf, v) }
func (e *tableEncoder) u32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *tableEncoder) i32(v int32)  { e.u32(uint32(v)) }
func (e *tableEncoder) u64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }
func (e *tableEncoder) f64(v float64) {
	e.u64(math.Float64bits(v))
}
func (e *tableEncoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

// tableDecoder reads fields back; the first short read sticks in err.
type tableDecoder struct {
	data []byte
	off  int
	err  error
}

func (d *tableDecoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if d.off+n > len(d.data) {
		d.err = ErrCorruptTable
		return false
	}
	return true
}

func (d *tableDecoder) u8() uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.data[d.off]
	d.off++
	return v
}

func (d *tableDecoder) u32() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v
}

func (d *tableDecoder) i32() int32 { return int32(d.u32()) }

func (d *tableDecoder) u64() uint64 {
	if !d.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v
}

func (d *tableDecoder) f64() float64 { return math.Float64frombits(d.u64()) }

func (d *tableDecoder) str() string {
	n := int(d.u32())
	if !d.need(n) {
		return ""
	}
	s := string(d.data[d.off : d.off+n])
	d.off += n
	return s
}

// count reads a length prefix and rejects values that cannot fit in the
// remaining table bytes given a minimum per-element size.
func (d *tableDecoder) count(minElem int) int {
	n := int(d.u32())
	if d.err == nil && n*minElem > len(d.data)-d.off {
		d.err = ErrCorruptTable
		return 0
	}
	return n
}
