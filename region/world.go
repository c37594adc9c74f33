package region

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-kit/log/level"

	"github.com/astei/anvilnbt/nbt"
)

const defaultWorldCacheSize = 1024

// RegionCoord is the position of a region file, as encoded in its r.<x>.<z>.mca name.
type RegionCoord struct {
	X int
	Z int
}

func (c RegionCoord) FileName() string {
	return fmt.Sprintf("r.%d.%d.mca", c.X, c.Z)
}

// ParseRegionName extracts the region coordinates from a file name like r.-1.2.mca.
func ParseRegionName(name string) (RegionCoord, bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 4 || parts[0] != "r" || parts[3] != "mca" {
		return RegionCoord{}, false
	}
	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return RegionCoord{}, false
	}
	z, err := strconv.Atoi(parts[2])
	if err != nil {
		return RegionCoord{}, false
	}
	return RegionCoord{X: x, Z: z}, true
}

// World is the set of region files in one region directory.
type World struct {
	dir    string
	loader *Loader
	cache  *Cache

	regions map[RegionCoord][]nbt.NamedTag
	failed  map[RegionCoord]error
}

// OpenWorld loads every region file in dir. A region that fails to load is logged and
// left out; Failed reports it.
func OpenWorld(ctx context.Context, dir string, loader *Loader) (world *World, err error) {
	cache, err := NewCache(loader, defaultWorldCacheSize)
	if err != nil {
		return nil, err
	}
	world = &World{dir: dir, loader: loader, cache: cache}
	if err = world.Refresh(ctx); err != nil {
		return nil, err
	}
	return world, nil
}

type regionResult struct {
	coord  RegionCoord
	chunks []nbt.NamedTag
	err    error
}

// Refresh re-scans the directory. Region files unchanged since the last scan are not
// decoded again.
func (w *World) Refresh(ctx context.Context) error {
	files, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}

	paths := make(map[RegionCoord]string)
	for _, possibleRegionFile := range files {
		if possibleRegionFile.IsDir() {
			continue
		}
		coord, ok := ParseRegionName(possibleRegionFile.Name())
		if !ok {
			level.Debug(w.loader.logger).Log("msg", "skipping file", "name", possibleRegionFile.Name())
			continue
		}
		paths[coord] = filepath.Join(w.dir, possibleRegionFile.Name())
	}

	var wg sync.WaitGroup
	wg.Add(len(paths))
	resultChan := make(chan regionResult, len(paths))
	for coord, path := range paths {
		go func(coord RegionCoord, path string) {
			defer wg.Done()
			chunks, err := w.cache.Load(ctx, path)
			resultChan <- regionResult{coord: coord, chunks: chunks, err: err}
		}(coord, path)
	}

	wg.Wait()
	close(resultChan)

	regions := make(map[RegionCoord][]nbt.NamedTag, len(paths))
	failed := make(map[RegionCoord]error)
	for result := range resultChan {
		if result.err != nil {
			level.Warn(w.loader.logger).Log("msg", "unable to read region", "region", result.coord.FileName(), "err", result.err)
			failed[result.coord] = result.err
			continue
		}
		regions[result.coord] = result.chunks
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.regions = regions
	w.failed = failed
	level.Info(w.loader.logger).Log("msg", "discovered regions", "dir", w.dir, "regions", len(regions), "failed", len(failed))
	return nil
}

// Regions returns the coordinates of every loaded region, ordered by Z then X.
func (w *World) Regions() []RegionCoord {
	coords := make([]RegionCoord, 0, len(w.regions))
	for coord := range w.regions {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(one, two int) bool {
		if coords[one].Z != coords[two].Z {
			return coords[one].Z < coords[two].Z
		}
		return coords[one].X < coords[two].X
	})
	return coords
}

// Chunks returns the slot-ordered chunk roots of a loaded region.
func (w *World) Chunks(coord RegionCoord) ([]nbt.NamedTag, bool) {
	chunks, ok := w.regions[coord]
	return chunks, ok
}

// Failed returns the regions that could not be read during the last scan.
func (w *World) Failed() map[RegionCoord]error {
	return w.failed
}
