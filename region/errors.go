package region

import (
	"errors"
	"fmt"
)

var ErrNoChunk = errors.New("anvil: chunk not found")
var ErrInvalidChunkLength = errors.New("anvil: invalid chunk length")
var ErrMalformedHeader = errors.New("anvil: malformed region header")
var ErrUnsupportedCompression = errors.New("anvil: gzip-compressed chunks are not supported")
var ErrUnknownCompressionType = errors.New("anvil: unknown compression type")
var ErrDecompressionFailure = errors.New("anvil: chunk data does not inflate")
var ErrInvalidChunkRoot = errors.New("anvil: chunk root is not a compound")
var ErrLocked = errors.New("anvil: region file is locked by another process")

// UnknownCompressionTypeError carries the compression byte of a chunk that is
// neither gzip nor zlib. It matches ErrUnknownCompressionType with errors.Is.
type UnknownCompressionTypeError struct {
	Type byte
}

func (e *UnknownCompressionTypeError) Error() string {
	return fmt.Sprintf("anvil: unknown compression type %d", e.Type)
}

func (e *UnknownCompressionTypeError) Is(target error) bool {
	return target == ErrUnknownCompressionType
}
