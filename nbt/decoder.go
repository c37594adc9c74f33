package nbt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxDepth is the deepest compound/list nesting the decoder accepts.
const MaxDepth = 512

// allocations for counted payloads grow in steps of at most this many elements, so a
// forged count cannot make the decoder allocate more than the stream can back.
const maxPrealloc = 4096

var ErrInvalidList = errors.New("nbt: list of End tags with non-zero length")

// Decoder reads NBT tags from a byte stream. A Decoder is not safe for concurrent use.
type Decoder struct {
	r       io.Reader
	scratch [8]byte
	depth   int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode parses a single NBT tag from b.
func Decode(b []byte) (NamedTag, error) {
	return NewDecoder(bytes.NewReader(b)).Decode()
}

// Decode consumes exactly one tag from the stream. If the tag id is End, the End
// sentinel is returned and no name is read. On failure no partial tag is returned.
func (d *Decoder) Decode() (tag NamedTag, err error) {
	d.depth = 0
	return d.readTag()
}

func (d *Decoder) readTag() (tag NamedTag, err error) {
	id, err := d.readByte()
	if err != nil {
		return NamedTag{}, err
	}
	kind := Kind(id)
	if kind == TagEnd {
		return NamedTag{Value: End{}}, nil
	}
	if !kind.Valid() {
		return NamedTag{}, &UnknownTagKindError{ID: id}
	}

	nameLength, err := d.readUint16()
	if err != nil {
		return NamedTag{}, err
	}
	name, err := d.readBytes(int(nameLength))
	if err != nil {
		return NamedTag{}, err
	}

	value, err := d.readPayload(kind)
	if err != nil {
		return NamedTag{}, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	return NamedTag{Name: name, Value: value}, nil
}

func (d *Decoder) readPayload(kind Kind) (Value, error) {
	switch kind {
	case TagByte:
		v, err := d.readByte()
		return Byte(int8(v)), err
	case TagShort:
		v, err := d.readUint16()
		return Short(int16(v)), err
	case TagInt:
		v, err := d.readUint32()
		return Int(int32(v)), err
	case TagLong:
		v, err := d.readUint64()
		return Long(int64(v)), err
	case TagFloat:
		v, err := d.readUint32()
		return Float(math.Float32frombits(v)), err
	case TagDouble:
		v, err := d.readUint64()
		return Double(math.Float64frombits(v)), err
	case TagByteArray:
		return d.readByteArray()
	case TagString:
		length, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		s, err := d.readBytes(int(length))
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case TagList:
		return d.readList()
	case TagCompound:
		return d.readCompound()
	case TagIntArray:
		return d.readIntArray()
	default:
		return nil, &UnknownTagKindError{ID: byte(kind)}
	}
}

func (d *Decoder) readList() (Value, error) {
	id, err := d.readByte()
	if err != nil {
		return nil, err
	}
	elemKind := Kind(id)
	if !elemKind.Valid() {
		return nil, &UnknownTagKindError{ID: id}
	}
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	if elemKind == TagEnd && count > 0 {
		return nil, ErrInvalidList
	}

	if err = d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	list := &List{ElemKind: elemKind, Elems: make([]Value, 0, min(count, maxPrealloc))}
	for i := 0; i < count; i++ {
		elem, err := d.readPayload(elemKind)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		list.Elems = append(list.Elems, elem)
	}
	return list, nil
}

func (d *Decoder) readCompound() (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	compound := Compound{}
	for {
		member, err := d.readTag()
		if err != nil {
			return nil, err
		}
		if member.IsEnd() {
			return compound, nil
		}
		compound = append(compound, member)
	}
}

func (d *Decoder) readByteArray() (Value, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	raw, err := d.readBytes(count)
	if err != nil {
		return nil, err
	}
	arr := make(ByteArray, len(raw))
	for i, b := range raw {
		arr[i] = int8(b)
	}
	return arr, nil
}

func (d *Decoder) readIntArray() (Value, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	arr := make(IntArray, 0, min(count, maxPrealloc))
	for i := 0; i < count; i++ {
		v, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		arr = append(arr, int32(v))
	}
	return arr, nil
}

func (d *Decoder) enter() error {
	if d.depth >= MaxDepth {
		return ErrMaxDepth
	}
	d.depth++
	return nil
}

func (d *Decoder) leave() {
	d.depth--
}

// readCount reads the signed 32-bit element count used by arrays and lists.
func (d *Decoder) readCount() (int, error) {
	v, err := d.readUint32()
	if err != nil {
		return 0, err
	}
	count := int32(v)
	if count < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeLength, count)
	}
	return int(count), nil
}

func (d *Decoder) readFull(b []byte) error {
	if _, err := io.ReadFull(d.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncatedStream
		}
		return err
	}
	return nil
}

func (d *Decoder) readByte() (byte, error) {
	if err := d.readFull(d.scratch[:1]); err != nil {
		return 0, err
	}
	return d.scratch[0], nil
}

func (d *Decoder) readUint16() (uint16, error) {
	if err := d.readFull(d.scratch[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(d.scratch[:2]), nil
}

func (d *Decoder) readUint32() (uint32, error) {
	if err := d.readFull(d.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d.scratch[:4]), nil
}

func (d *Decoder) readUint64() (uint64, error) {
	if err := d.readFull(d.scratch[:8]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(d.scratch[:8]), nil
}

// readBytes reads n raw bytes, growing the result as data arrives.
func (d *Decoder) readBytes(n int) ([]byte, error) {
	if n <= maxPrealloc {
		b := make([]byte, n)
		if err := d.readFull(b); err != nil {
			return nil, err
		}
		return b, nil
	}

	var buf bytes.Buffer
	buf.Grow(maxPrealloc)
	copied, err := io.CopyN(&buf, d.r, int64(n))
	if copied < int64(n) {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, ErrTruncatedStream
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
