package region

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astei/anvilnbt/nbt"
)

func TestParseRegionName(t *testing.T) {
	for name, want := range map[string]RegionCoord{
		"r.0.0.mca":    {X: 0, Z: 0},
		"r.-1.2.mca":   {X: -1, Z: 2},
		"r.10.-33.mca": {X: 10, Z: -33},
	} {
		got, ok := ParseRegionName(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
		assert.Equal(t, name, got.FileName())
	}

	for _, name := range []string{"r.0.0.mcr", "r.0.mca", "level.dat", "r.a.0.mca", "x.0.0.mca", "r.0.0.0.mca"} {
		_, ok := ParseRegionName(name)
		assert.False(t, ok, name)
	}
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	path := writeRegion(t, dir, "r.0.0.mca", buildRegion(t, map[int]payload{0: zlibPayload(t, 1, 1)}))
	cache, err := NewCache(NewLoader(Options{Workers: 1}), 4)
	require.NoError(t, err)

	chunks, err := cache.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, cache.Len())

	// replacing entries in a returned slice leaves the cached region intact
	chunks[0] = nbt.NamedTag{Value: nbt.End{}}
	again, err := cache.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, nbt.Int(1), again[0].Lookup("xPos"))

	info, err := os.Stat(path)
	require.NoError(t, err)

	// same size and modification time: the cached decode is served
	replacement := buildRegion(t, map[int]payload{0: zlibPayload(t, 2, 2)})
	require.Equal(t, info.Size(), int64(len(replacement)))
	require.NoError(t, os.WriteFile(path, replacement, 0o644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	chunks, err = cache.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, nbt.Int(1), chunks[0].Lookup("xPos"))

	// a newer modification time forces a reload
	later := info.ModTime().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	chunks, err = cache.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, nbt.Int(2), chunks[0].Lookup("xPos"))

	require.NoError(t, os.Remove(path))
	_, err = cache.Load(context.Background(), path)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 0, cache.Len())
}

func TestOpenWorld(t *testing.T) {
	dir := t.TempDir()
	writeRegion(t, dir, "r.0.0.mca", buildRegion(t, map[int]payload{0: zlibPayload(t, 0, 0)}))
	writeRegion(t, dir, "r.-1.0.mca", buildRegion(t, map[int]payload{
		31: zlibPayload(t, -1, 0),
		32: zlibPayload(t, -32, 1),
	}))
	writeRegion(t, dir, "r.0.1.mca", buildRegion(t, map[int]payload{0: {compression: byte(CompressionGzip)}}))
	writeRegion(t, dir, "level.dat", []byte{0x0A, 0x00, 0x00, 0x00})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "r.5.5.mca"), 0o755))

	var logs bytes.Buffer
	loader := NewLoader(Options{Workers: 2, Logger: log.NewLogfmtLogger(log.NewSyncWriter(&logs))})
	world, err := OpenWorld(context.Background(), dir, loader)
	require.NoError(t, err)

	assert.Equal(t, []RegionCoord{{X: -1, Z: 0}, {X: 0, Z: 0}}, world.Regions())

	chunks, ok := world.Chunks(RegionCoord{X: -1, Z: 0})
	require.True(t, ok)
	require.Len(t, chunks, 2)
	assert.Equal(t, nbt.Int(-32), chunks[1].Lookup("xPos"))

	_, ok = world.Chunks(RegionCoord{X: 0, Z: 1})
	assert.False(t, ok)
	require.Contains(t, world.Failed(), RegionCoord{X: 0, Z: 1})
	assert.ErrorIs(t, world.Failed()[RegionCoord{X: 0, Z: 1}], ErrUnsupportedCompression)
	assert.Contains(t, logs.String(), "unable to read region")

	// fixing the broken region and refreshing picks it up
	fixed := filepath.Join(dir, "r.0.1.mca")
	writeRegion(t, dir, "r.0.1.mca", buildRegion(t, map[int]payload{0: zlibPayload(t, 0, 32)}))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(fixed, later, later))

	require.NoError(t, world.Refresh(context.Background()))
	assert.Len(t, world.Regions(), 3)
	assert.Empty(t, world.Failed())
}

func TestOpenWorldMissingDir(t *testing.T) {
	_, err := OpenWorld(context.Background(), filepath.Join(t.TempDir(), "missing"), NewLoader(Options{}))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
