package nbt

import "fmt"

// Kind is the one-byte discriminator that precedes every tag in an NBT stream.
type Kind byte

const (
	TagEnd Kind = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
)

var kindNames = [...]string{
	TagEnd:       "End",
	TagByte:      "Byte",
	TagShort:     "Short",
	TagInt:       "Int",
	TagLong:      "Long",
	TagFloat:     "Float",
	TagDouble:    "Double",
	TagByteArray: "ByteArray",
	TagString:    "String",
	TagList:      "List",
	TagCompound:  "Compound",
	TagIntArray:  "IntArray",
}

// Valid reports whether k is one of the twelve defined tag kinds.
func (k Kind) Valid() bool {
	return k <= TagIntArray
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
	return kindNames[k]
}

// Value is the payload of a tag. The set of implementations is closed: End, Byte,
// Short, Int, Long, Float, Double, ByteArray, String, *List, Compound and IntArray.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	End       struct{}
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []int8
	// String holds the raw bytes of a string payload. They are not decoded as
	// text and may not be valid UTF-8.
	String   []byte
	IntArray []int32
)

// List is a homogeneous sequence of payloads. Every element has kind ElemKind.
// An empty list still carries the element kind it was declared with, usually TagEnd.
type List struct {
	ElemKind Kind
	Elems    []Value
}

// Compound is an ordered sequence of named tags. Stream order is kept and duplicate
// names are legal.
type Compound []NamedTag

// NamedTag is a tag as it appears at the top level of a stream or inside a compound.
// Name is the raw name bytes.
type NamedTag struct {
	Name  []byte
	Value Value
}

func (End) Kind() Kind       { return TagEnd }
func (Byte) Kind() Kind      { return TagByte }
func (Short) Kind() Kind     { return TagShort }
func (Int) Kind() Kind       { return TagInt }
func (Long) Kind() Kind      { return TagLong }
func (Float) Kind() Kind     { return TagFloat }
func (Double) Kind() Kind    { return TagDouble }
func (ByteArray) Kind() Kind { return TagByteArray }
func (String) Kind() Kind    { return TagString }
func (*List) Kind() Kind     { return TagList }
func (Compound) Kind() Kind  { return TagCompound }
func (IntArray) Kind() Kind  { return TagIntArray }

func (End) isValue()       {}
func (Byte) isValue()      {}
func (Short) isValue()     {}
func (Int) isValue()       {}
func (Long) isValue()      {}
func (Float) isValue()     {}
func (Double) isValue()    {}
func (ByteArray) isValue() {}
func (String) isValue()    {}
func (*List) isValue()     {}
func (Compound) isValue()  {}
func (IntArray) isValue()  {}

// Kind returns the kind of the tag's value, or TagEnd for a zero NamedTag.
func (t NamedTag) Kind() Kind {
	if t.Value == nil {
		return TagEnd
	}
	return t.Value.Kind()
}

// IsEnd reports whether t is the End sentinel.
func (t NamedTag) IsEnd() bool {
	return t.Kind() == TagEnd
}

// Get returns the value of the first member called name.
func (c Compound) Get(name string) (Value, bool) {
	for _, member := range c {
		if string(member.Name) == name {
			return member.Value, true
		}
	}
	return nil, false
}
