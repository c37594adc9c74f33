package region

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/astei/anvilnbt/nbt"
)

const (
	// Slots is the number of chunk slots in every region file (32x32 chunks).
	Slots = 1024
	// SectorSize is the unit, in bytes, of chunk offsets and lengths.
	SectorSize = 4096

	headerSize = 2 * SectorSize
	// sector counts are stored in one byte, so no chunk can span more sectors than this
	maxChunkSectors = 255
)

type CompressionType byte

const (
	CompressionGzip CompressionType = 1
	CompressionZlib CompressionType = 2
)

// Slot is one entry of the region header: where a chunk is stored and when it was
// last written.
type Slot struct {
	// Offset of the chunk from the start of the file, in sectors. The top byte of the
	// location entry is always zero.
	Offset uint32
	// Sectors is the number of sectors reserved for the chunk.
	Sectors uint8
	// Timestamp is the last modification time in seconds since the Unix epoch.
	Timestamp uint32
}

// Empty reports whether the slot holds no chunk. Sectors 0 and 1 hold the header, so
// any offset below 2 means the slot is unallocated.
func (s Slot) Empty() bool {
	return s.Offset < 2
}

func (s Slot) ModTime() time.Time {
	return time.Unix(int64(s.Timestamp), 0).UTC()
}

// SlotIndex returns the slot index of the chunk at region-local coordinates x, z.
// It panics if either coordinate is outside 0..31.
func SlotIndex(x, z int) int {
	if x < 0 || z < 0 || x > 31 || z > 31 {
		panic("invalid position")
	}
	return x + z*32
}

// Reader allows you to read a region file and extract its chunks. Header access is
// lock-free and the chunk reads serialize on the underlying source, so a Reader may be
// shared between goroutines.
type Reader struct {
	mu     sync.Mutex
	source io.ReadSeeker
	slots  [Slots]Slot
	Name   string
}

// NewReader creates a Reader and parses the region header. The ownership of the source
// is transferred to this reader, even when an error is returned.
func NewReader(source io.ReadSeeker) (reader *Reader, err error) {
	reader = &Reader{source: source}

	if file, ok := source.(*os.File); ok {
		reader.Name = file.Name()
	}
	if err = reader.readHeader(); err != nil {
		return reader, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	return reader, nil
}

func (r *Reader) readHeader() (err error) {
	if _, err = r.source.Seek(0, io.SeekStart); err != nil {
		return err
	}

	rawHeader := make([]byte, headerSize)
	if _, err = io.ReadFull(r.source, rawHeader); err != nil {
		return err
	}

	var tables struct {
		Locations  [Slots]uint32
		Timestamps [Slots]uint32
	}
	if err = binary.Read(bytes.NewReader(rawHeader), binary.BigEndian, &tables); err != nil {
		return err
	}

	for i := range r.slots {
		r.slots[i] = Slot{
			Offset:    tables.Locations[i] >> 8,
			Sectors:   uint8(tables.Locations[i]),
			Timestamp: tables.Timestamps[i],
		}
	}
	return nil
}

// Slots returns a copy of the header table.
func (r *Reader) Slots() [Slots]Slot {
	return r.slots
}

func (r *Reader) ChunkExists(x, z int) bool {
	return !r.slots[SlotIndex(x, z)].Empty()
}

// ReadChunk reads the chunk at the specified X and Z coordinates. Note that these
// coordinates are relative to the region file and are not chunk coordinates.
func (r *Reader) ReadChunk(x, z int) (nbt.NamedTag, error) {
	return r.ReadSlot(SlotIndex(x, z))
}

// ReadSlot reads and decodes the chunk stored in slot i. Empty slots return ErrNoChunk.
func (r *Reader) ReadSlot(i int) (nbt.NamedTag, error) {
	payload, err := r.readPayload(i)
	if err != nil {
		return nbt.NamedTag{}, err
	}
	return decodePayload(payload)
}

// Chunks decodes every allocated slot in slot order. The first failure aborts the read.
func (r *Reader) Chunks(ctx context.Context) ([]nbt.NamedTag, error) {
	var chunks []nbt.NamedTag
	for i, slot := range r.slots {
		if slot.Empty() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := r.ReadSlot(i)
		if err != nil {
			return nil, r.slotError(i, err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// readPayload returns the compressed bytes of slot i after checking the payload header.
func (r *Reader) readPayload(i int) (payload []byte, err error) {
	if i < 0 || i >= Slots {
		return nil, fmt.Errorf("anvil: slot %d out of range", i)
	}
	slot := r.slots[i]
	if slot.Empty() {
		return nil, ErrNoChunk
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err = r.source.Seek(int64(slot.Offset)*SectorSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek: %w", err)
	}

	// Payload Header

	var payloadInfo struct {
		Length      uint32
		Compression CompressionType
	}
	if err = binary.Read(r.source, binary.BigEndian, &payloadInfo); err != nil {
		return nil, fmt.Errorf("could not read payload header: %w", truncated(err))
	}

	if payloadInfo.Length == 0 || payloadInfo.Length-1 > maxChunkSectors*SectorSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkLength, payloadInfo.Length)
	}

	switch payloadInfo.Compression {
	case CompressionGzip:
		return nil, ErrUnsupportedCompression
	case CompressionZlib:
	default:
		return nil, &UnknownCompressionTypeError{Type: byte(payloadInfo.Compression)}
	}

	// Payload

	payload = make([]byte, payloadInfo.Length-1)
	if _, err = io.ReadFull(r.source, payload); err != nil {
		return nil, fmt.Errorf("could not read payload data: %w", truncated(err))
	}
	return payload, nil
}

// decodePayload inflates a zlib chunk payload and decodes the chunk root from it.
func decodePayload(payload []byte) (nbt.NamedTag, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nbt.NamedTag{}, fmt.Errorf("%w: %w", ErrDecompressionFailure, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nbt.NamedTag{}, fmt.Errorf("%w: %w", ErrDecompressionFailure, err)
	}

	root, err := nbt.Decode(data)
	if err != nil {
		return nbt.NamedTag{}, err
	}
	if kind := root.Kind(); kind != nbt.TagCompound {
		return nbt.NamedTag{}, fmt.Errorf("%w: root is %s", ErrInvalidChunkRoot, kind)
	}
	return root, nil
}

func (r *Reader) slotError(i int, err error) error {
	name := r.Name
	if name == "" {
		name = "region"
	}
	return fmt.Errorf("could not read chunk %d,%d in %s: %w", i%32, i/32, name, err)
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nbt.ErrTruncatedStream
	}
	return err
}

func (r *Reader) Close() error {
	if closer, ok := r.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
