package nbt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// arrays longer than this are summarized instead of printed in full
const explainArrayLimit = 16

// Explain writes an indented, human-readable rendering of tag to w. Names and string
// payloads are printed quoted so non-UTF-8 bytes stay visible.
func Explain(tag NamedTag, w io.Writer) error {
	bw := bufio.NewWriter(w)
	explainTag(bw, tag.Name, tag.Value, 0)
	return bw.Flush()
}

func explainTag(w *bufio.Writer, name []byte, value Value, depth int) {
	w.WriteString(strings.Repeat("  ", depth))
	if value == nil {
		value = End{}
	}
	w.WriteString(value.Kind().String())
	if name != nil {
		w.WriteString("(")
		w.WriteString(strconv.Quote(string(name)))
		w.WriteString(")")
	}
	w.WriteString(": ")

	switch v := value.(type) {
	case End:
		w.WriteString("end\n")
	case Byte:
		fmt.Fprintf(w, "%d\n", v)
	case Short:
		fmt.Fprintf(w, "%d\n", v)
	case Int:
		fmt.Fprintf(w, "%d\n", v)
	case Long:
		fmt.Fprintf(w, "%d\n", v)
	case Float:
		fmt.Fprintf(w, "%g\n", v)
	case Double:
		fmt.Fprintf(w, "%g\n", v)
	case String:
		fmt.Fprintf(w, "%s\n", strconv.Quote(string(v)))
	case ByteArray:
		explainArray(w, []int8(v))
	case IntArray:
		explainArray(w, []int32(v))
	case *List:
		fmt.Fprintf(w, "%d entries of %s\n", len(v.Elems), v.ElemKind)
		for _, elem := range v.Elems {
			explainTag(w, nil, elem, depth+1)
		}
	case Compound:
		fmt.Fprintf(w, "%d entries\n", len(v))
		for _, member := range v {
			explainTag(w, member.Name, member.Value, depth+1)
		}
	}
}

func explainArray[T int8 | int32](w *bufio.Writer, arr []T) {
	if len(arr) > explainArrayLimit {
		fmt.Fprintf(w, "[%d values] %v ...\n", len(arr), arr[:explainArrayLimit])
		return
	}
	fmt.Fprintf(w, "%v\n", arr)
}
