package nbt

import (
	"errors"
	"fmt"
)

var ErrTruncatedStream = errors.New("nbt: truncated stream")
var ErrUnknownTagKind = errors.New("nbt: unknown tag kind")
var ErrNegativeLength = errors.New("nbt: negative length")
var ErrMaxDepth = errors.New("nbt: maximum nesting depth exceeded")

// UnknownTagKindError is returned when a tag id outside the defined kinds is read.
// It matches ErrUnknownTagKind with errors.Is.
type UnknownTagKindError struct {
	ID byte
}

func (e *UnknownTagKindError) Error() string {
	return fmt.Sprintf("nbt: unknown tag kind %d", e.ID)
}

func (e *UnknownTagKindError) Is(target error) bool {
	return target == ErrUnknownTagKind
}
