package nbt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	gzipMagic0 = 0x1f
	gzipMagic1 = 0x8b
	zlibMagic  = 0x78
)

// DecodeCompressed decodes a standalone NBT blob such as level.dat. Blobs are usually
// gzip-wrapped; gzip and zlib streams are detected by their magic bytes and unwrapped,
// anything else is decoded as-is.
func DecodeCompressed(r io.Reader) (tag NamedTag, err error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return NamedTag{}, err
	}

	var source io.Reader = br
	switch {
	case len(magic) == 2 && magic[0] == gzipMagic0 && magic[1] == gzipMagic1:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return NamedTag{}, fmt.Errorf("could not open gzip stream: %w", err)
		}
		defer gz.Close()
		source = gz
	case len(magic) == 2 && magic[0] == zlibMagic && (uint16(magic[0])<<8|uint16(magic[1]))%31 == 0:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return NamedTag{}, fmt.Errorf("could not open zlib stream: %w", err)
		}
		defer zr.Close()
		source = zr
	}
	return NewDecoder(source).Decode()
}

// ReadFile decodes the standalone NBT blob stored at path.
func ReadFile(path string) (tag NamedTag, err error) {
	file, err := os.Open(path)
	if err != nil {
		return NamedTag{}, err
	}
	defer file.Close()

	if tag, err = DecodeCompressed(file); err != nil {
		return NamedTag{}, fmt.Errorf("could not decode %s: %w", path, err)
	}
	return tag, nil
}
