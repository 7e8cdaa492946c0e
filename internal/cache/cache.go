// Package cache provides caching for encoded tiles and frames.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config contains cache configuration.
type Config struct {
	TileCacheSizeMB int
	TileTTL         time.Duration
	FrameCacheSize  int
}

// Manager manages the XYZ tile cache and the composed-frame cache.
// Both hold encoded PNG bytes; pixels are deterministic for a given
// key, so eviction is the only invalidation needed.
type Manager struct {
	tileCache  *bigcache.BigCache
	frameCache *lru.Cache[string, []byte]
}

// NewManager creates a cache manager.
func NewManager(cfg Config) (*Manager, error) {
	tileCacheConfig := bigcache.Config{
		Shards:             256,
		LifeWindow:         cfg.TileTTL,
		CleanWindow:        cfg.TileTTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       512 * 1024,
		HardMaxCacheSize:   cfg.TileCacheSizeMB,
		Verbose:            false,
	}

	tileCache, err := bigcache.New(context.Background(), tileCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile cache: %w", err)
	}

	frameCache, err := lru.New[string, []byte](cfg.FrameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame cache: %w", err)
	}

	return &Manager{
		tileCache:  tileCache,
		frameCache: frameCache,
	}, nil
}

// GetTile retrieves an encoded tile from cache.
func (m *Manager) GetTile(key string) ([]byte, bool) {
	data, err := m.tileCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetTile stores an encoded tile in cache.
func (m *Manager) SetTile(key string, data []byte) error {
	return m.tileCache.Set(key, data)
}

// GetFrame retrieves a composed frame from cache.
func (m *Manager) GetFrame(key string) ([]byte, bool) {
	return m.frameCache.Get(key)
}

// SetFrame stores a composed frame in cache.
func (m *Manager) SetFrame(key string, data []byte) {
	m.frameCache.Add(key, data)
}

// TileKey generates a cache key for an XYZ fractal tile.
func TileKey(variant string, z, x, y, iterations int, palette string) string {
	if palette == "" {
		palette = "default"
	}
	return fmt.Sprintf("tile:%s:%d/%d/%d:i%d:%s", variant, z, x, y, iterations, palette)
}

// FrameKey generates a cache key for a composed frame.
func FrameKey(generation int, promotions uint64, camX, camY, camZoom string) string {
	return fmt.Sprintf("frame:g%d:p%d:%s:%s:%s", generation, promotions, camX, camY, camZoom)
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"tile_cache_len":  m.tileCache.Len(),
		"tile_cache_cap":  m.tileCache.Capacity(),
		"frame_cache_len": m.frameCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.tileCache.Close()
}
