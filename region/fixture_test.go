package region

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

// chunkNBT returns an uncompressed chunk root holding xPos and zPos ints.
func chunkNBT(x, z int32) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x0A, 0x00, 0x00})
	for _, field := range []struct {
		name  string
		value int32
	}{{"xPos", x}, {"zPos", z}} {
		buf.WriteByte(0x03)
		binary.Write(&buf, binary.BigEndian, uint16(len(field.name)))
		buf.WriteString(field.name)
		binary.Write(&buf, binary.BigEndian, field.value)
	}
	buf.WriteByte(0x00)
	return buf.Bytes()
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// payload is one chunk as stored in a region file: everything after the length field.
type payload struct {
	compression byte
	data        []byte
	// length overrides the stored length field when non-nil
	length *uint32
}

func zlibPayload(t *testing.T, x, z int32) payload {
	return payload{compression: byte(CompressionZlib), data: deflate(t, chunkNBT(x, z))}
}

// buildRegion lays out the given slots after the header, one chunk after another,
// each padded to whole sectors.
func buildRegion(t *testing.T, slots map[int]payload) []byte {
	t.Helper()

	var header [Slots]uint32
	var timestamps [Slots]uint32
	var body bytes.Buffer
	sector := uint32(2)
	for i := 0; i < Slots; i++ {
		p, ok := slots[i]
		if !ok {
			continue
		}
		length := uint32(len(p.data) + 1)
		if p.length != nil {
			length = *p.length
		}

		var chunk bytes.Buffer
		binary.Write(&chunk, binary.BigEndian, length)
		chunk.WriteByte(p.compression)
		chunk.Write(p.data)
		sectors := (chunk.Len() + SectorSize - 1) / SectorSize
		chunk.Write(make([]byte, sectors*SectorSize-chunk.Len()))

		header[i] = sector<<8 | uint32(sectors)
		timestamps[i] = 1_600_000_000 + uint32(i)
		sector += uint32(sectors)
		body.Write(chunk.Bytes())
	}

	var out bytes.Buffer
	require.NoError(t, binary.Write(&out, binary.BigEndian, header))
	require.NoError(t, binary.Write(&out, binary.BigEndian, timestamps))
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeRegion(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
