package region

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/astei/anvilnbt/nbt"
)

// Options configures a Loader.
type Options struct {
	// Workers bounds how many slots are inflated and decoded concurrently. Zero means
	// runtime.GOMAXPROCS(0); one decodes sequentially.
	Workers int
	// SharedLock takes an advisory shared lock on the region file while it is read.
	// Tools rewriting the file under an exclusive lock are kept out for that time.
	SharedLock bool
	Logger     log.Logger
}

// Loader reads whole region files into slot-ordered chunk trees.
type Loader struct {
	opts   Options
	logger log.Logger
}

func NewLoader(opts Options) *Loader {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Loader{opts: opts, logger: logger}
}

// LoadRegion opens the region file at path and returns the chunk roots of every
// allocated slot in slot order. Any failing slot fails the whole call.
func LoadRegion(path string) ([]nbt.NamedTag, error) {
	return NewLoader(Options{Workers: 1}).Load(context.Background(), path)
}

// Load reads the region file at path. The file is closed before Load returns.
func (l *Loader) Load(ctx context.Context, path string) (chunks []nbt.NamedTag, err error) {
	start := time.Now()

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// flock creates missing files, so the lock is only taken once the open succeeded
	if l.opts.SharedLock {
		lock := flock.New(path)
		locked, err := lock.TryRLock()
		if err != nil {
			return nil, fmt.Errorf("could not lock %s: %w", path, err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		defer lock.Unlock()
	}

	reader, err := NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not read header of %s: %w", path, err)
	}

	if l.opts.Workers == 1 {
		chunks, err = reader.Chunks(ctx)
	} else {
		chunks, err = l.decodeConcurrently(ctx, reader)
	}
	if err != nil {
		level.Debug(l.logger).Log("msg", "failed to load region", "path", path, "err", err)
		return nil, err
	}

	level.Debug(l.logger).Log("msg", "loaded region", "path", path, "chunks", len(chunks), "duration", time.Since(start))
	return chunks, nil
}

// decodeConcurrently reads payloads through the reader's single handle and fans the
// inflate and decode work out to a bounded pool. Results land in a slot-indexed buffer
// so the output keeps slot order.
func (l *Loader) decodeConcurrently(ctx context.Context, reader *Reader) ([]nbt.NamedTag, error) {
	var results [Slots]*nbt.NamedTag

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)

	for i, slot := range reader.slots {
		if slot.Empty() {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			payload, err := reader.readPayload(i)
			if err != nil {
				return reader.slotError(i, err)
			}
			chunk, err := decodePayload(payload)
			if err != nil {
				return reader.slotError(i, err)
			}
			results[i] = &chunk
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chunks []nbt.NamedTag
	for _, chunk := range results {
		if chunk != nil {
			chunks = append(chunks, *chunk)
		}
	}
	return chunks, nil
}
