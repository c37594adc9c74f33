package region

import (
	"context"
	"os"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/astei/anvilnbt/nbt"
)

// Cache keeps decoded regions in memory, keyed by path. An entry is reused only while
// the file's size and modification time are unchanged.
type Cache struct {
	loader  *Loader
	entries *lru.Cache[string, cacheEntry]
}

type cacheEntry struct {
	size    int64
	modTime time.Time
	chunks  []nbt.NamedTag
}

// NewCache returns a cache holding at most size regions.
func NewCache(loader *Loader, size int) (*Cache, error) {
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{loader: loader, entries: entries}, nil
}

// Load returns the chunks of the region file at path, decoding it only if it is not
// cached or has changed since it was cached. Every call gets its own slice, but the
// trees in it are shared with the cache and must not be modified.
func (c *Cache) Load(ctx context.Context, path string) ([]nbt.NamedTag, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.entries.Remove(path)
		return nil, err
	}

	if entry, ok := c.entries.Get(path); ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		return slices.Clone(entry.chunks), nil
	}

	chunks, err := c.loader.Load(ctx, path)
	if err != nil {
		c.entries.Remove(path)
		return nil, err
	}
	c.entries.Add(path, cacheEntry{size: info.Size(), modTime: info.ModTime(), chunks: chunks})
	return slices.Clone(chunks), nil
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached region.
func (c *Cache) Purge() {
	c.entries.Purge()
}
