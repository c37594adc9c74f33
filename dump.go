package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/klauspost/compress/zstd"
	"github.com/urfave/cli/v2"

	"github.com/astei/anvilnbt/nbt"
	"github.com/astei/anvilnbt/region"
)

// output is where dump writes: the app's writer or a file, optionally through zstd.
type output struct {
	w    *bufio.Writer
	file *os.File
	zstd *zstd.Encoder
}

func openOutput(stdout io.Writer, path string, compress bool) (out *output, err error) {
	out = &output{}
	dst := stdout
	if path != "" {
		if out.file, err = os.Create(path); err != nil {
			return nil, err
		}
		dst = out.file
	}

	if compress {
		if out.zstd, err = zstd.NewWriter(dst); err != nil {
			out.closeFile()
			return nil, err
		}
		dst = out.zstd
	}
	out.w = bufio.NewWriter(dst)
	return out, nil
}

func (o *output) Close() (err error) {
	if err = o.w.Flush(); err != nil {
		o.closeFile()
		return err
	}
	if o.zstd != nil {
		if err = o.zstd.Close(); err != nil {
			o.closeFile()
			return err
		}
	}
	return o.closeFile()
}

func (o *output) closeFile() error {
	if o.file == nil {
		return nil
	}
	return o.file.Close()
}

func dumpAction(c *cli.Context) (err error) {
	if c.NArg() != 1 {
		return cli.Exit("dump needs exactly one region file", 2)
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	path := c.Args().First()

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	reader, err := region.NewReader(file)
	defer reader.Close()
	if err != nil {
		return err
	}

	out, err := openOutput(c.App.Writer, c.String("output"), c.Bool("zstd"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()

	slots := reader.Slots()
	if only := c.Int("slot"); only >= 0 {
		if only >= region.Slots {
			return cli.Exit(fmt.Sprintf("slot %d out of range", only), 2)
		}
		return dumpSlot(out.w, reader, only, slots[only])
	}

	dumped := 0
	for i, slot := range slots {
		if slot.Empty() {
			continue
		}
		if err = dumpSlot(out.w, reader, i, slot); err != nil {
			return err
		}
		dumped++
	}
	level.Info(logger).Log("msg", "dumped region", "path", path, "chunks", dumped)
	return nil
}

func dumpSlot(w io.Writer, reader *region.Reader, i int, slot region.Slot) error {
	chunk, err := reader.ReadSlot(i)
	if err != nil {
		return fmt.Errorf("slot %d: %w", i, err)
	}
	fmt.Fprintf(w, "# slot %d (%d,%d) written %s\n", i, i%32, i/32, slot.ModTime().Format(time.RFC3339))
	return nbt.Explain(chunk, w)
}

func statAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("stat needs exactly one region file or directory", 2)
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	loader := newLoader(c, logger)
	path := c.Args().First()

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		chunks, err := loader.Load(c.Context, path)
		if err != nil {
			return err
		}
		return statRegion(c.App.Writer, path, len(chunks))
	}

	world, err := region.OpenWorld(c.Context, path, loader)
	if err != nil {
		return err
	}
	for _, coord := range world.Regions() {
		chunks, _ := world.Chunks(coord)
		if err = statRegion(c.App.Writer, filepath.Join(path, coord.FileName()), len(chunks)); err != nil {
			return err
		}
	}
	for coord, loadErr := range world.Failed() {
		fmt.Fprintf(c.App.Writer, "%s: %v\n", coord.FileName(), loadErr)
	}
	return nil
}

// statRegion prints one summary line built from the region header.
func statRegion(w io.Writer, path string, chunks int) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	reader, err := region.NewReader(file)
	defer reader.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var reserved uint64
	var newest time.Time
	for _, slot := range reader.Slots() {
		if slot.Empty() {
			continue
		}
		reserved += uint64(slot.Sectors) * region.SectorSize
		if slot.ModTime().After(newest) {
			newest = slot.ModTime()
		}
	}

	lastWrite := "never"
	if !newest.IsZero() {
		lastWrite = humanize.Time(newest)
	}
	_, err = fmt.Fprintf(w, "%s: %d chunks, %s reserved, last write %s\n",
		filepath.Base(path), chunks, humanize.IBytes(reserved), lastWrite)
	return err
}

func nbtAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("nbt needs exactly one file", 2)
	}
	tag, err := nbt.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	return nbt.Explain(tag, c.App.Writer)
}
