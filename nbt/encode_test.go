package nbt

import (
	"bytes"
	"encoding/binary"
	"math"
)

// encodeTag is a minimal writer used to build test fixtures.
func encodeTag(tag NamedTag) []byte {
	var buf bytes.Buffer
	writeTag(&buf, tag)
	return buf.Bytes()
}

func writeTag(buf *bytes.Buffer, tag NamedTag) {
	kind := tag.Kind()
	buf.WriteByte(byte(kind))
	if kind == TagEnd {
		return
	}
	binary.Write(buf, binary.BigEndian, uint16(len(tag.Name)))
	buf.Write(tag.Name)
	writePayload(buf, tag.Value)
}

func writePayload(buf *bytes.Buffer, value Value) {
	switch v := value.(type) {
	case Byte:
		buf.WriteByte(byte(v))
	case Short:
		binary.Write(buf, binary.BigEndian, int16(v))
	case Int:
		binary.Write(buf, binary.BigEndian, int32(v))
	case Long:
		binary.Write(buf, binary.BigEndian, int64(v))
	case Float:
		binary.Write(buf, binary.BigEndian, math.Float32bits(float32(v)))
	case Double:
		binary.Write(buf, binary.BigEndian, math.Float64bits(float64(v)))
	case ByteArray:
		binary.Write(buf, binary.BigEndian, int32(len(v)))
		binary.Write(buf, binary.BigEndian, []int8(v))
	case String:
		binary.Write(buf, binary.BigEndian, uint16(len(v)))
		buf.Write(v)
	case *List:
		buf.WriteByte(byte(v.ElemKind))
		binary.Write(buf, binary.BigEndian, int32(len(v.Elems)))
		for _, elem := range v.Elems {
			writePayload(buf, elem)
		}
	case Compound:
		for _, member := range v {
			writeTag(buf, member)
		}
		buf.WriteByte(byte(TagEnd))
	case IntArray:
		binary.Write(buf, binary.BigEndian, int32(len(v)))
		binary.Write(buf, binary.BigEndian, []int32(v))
	}
}
