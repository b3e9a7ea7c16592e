package loader

import (
	"context"
	"os"
	"sync"
	"time"

	"waste-platform/internal/models"
	"waste-platform/pkg/logging"
	"waste-platform/pkg/metrics"
)

// CachedLoader memoizes Load results keyed by (path, mtime). A changed
// modification time invalidates the entry on the next lookup; Invalidate
// drops an entry explicitly.
type CachedLoader struct {
	loader  *Loader
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu      sync.Mutex
	entries map[string]*cacheEntry
	hits    int64
	misses  int64
}

type cacheEntry struct {
	modTime time.Time
	result  *Result
}

// NewCachedLoader wraps a Loader with a memoizing cache.
func NewCachedLoader(l *Loader, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CachedLoader {
	return &CachedLoader{
		loader:  l,
		logger:  logger,
		metrics: metricsCollector,
		entries: make(map[string]*cacheEntry),
	}
}

// Load returns the cached table for path when the file is unchanged,
// otherwise delegates to the underlying loader and caches the result.
func (c *CachedLoader) Load(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &models.LoadError{Path: path, Err: err}
	}

	c.mu.Lock()
	entry, ok := c.entries[path]
	if ok && entry.modTime.Equal(info.ModTime()) {
		c.hits++
		c.metrics.RecordCacheLookup(true, c.hits, c.misses)
		result := entry.result
		c.mu.Unlock()

		c.logger.Debug(ctx, "[LOAD_CACHE_HIT] Serving dataset from cache", logging.Fields{
			"path": path,
		})
		return result, nil
	}
	c.misses++
	c.metrics.RecordCacheLookup(false, c.hits, c.misses)
	c.mu.Unlock()

	result, err := c.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = &cacheEntry{modTime: info.ModTime(), result: result}
	c.mu.Unlock()

	return result, nil
}

// Invalidate drops the cached entry for path, forcing the next Load to
// reread the file.
func (c *CachedLoader) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}
