package catalog

import (
	"context"
	"encoding/json"
	"path"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/shadow/practice"
)

// Store is the byte cache used by Cached.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Cached serves scenes from a Store, falling back to the wrapped Source on a
// miss. Scenes do not change once published, so entries never expire.
type Cached struct {
	src    Source
	store  Store
	logger *log.Logger
}

// NewCached wraps src with store.
func NewCached(src Source, store Store, logger *log.Logger) *Cached {
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{src: src, store: store, logger: logger}
}

// CacheKey returns the cache key of an episode.
func CacheKey(showID, episodeID string) string {
	return path.Join("scenes", showID, episodeID)
}

// Scenes returns the cached scenes of an episode, fetching them on a miss.
func (c *Cached) Scenes(ctx context.Context, showID, episodeID string) ([]practice.Scene, error) {
	if err := checkEpisode(showID, episodeID); err != nil {
		return nil, err
	}

	key := CacheKey(showID, episodeID)
	if data, ok := c.store.Get(key); ok {
		var scenes []practice.Scene
		if err := json.Unmarshal(data, &scenes); err == nil {
			c.logger.Debug("scenes cache hit", "key", key)
			return scenes, nil
		}
		c.logger.Warn("dropping unreadable cache entry", "key", key)
		_ = c.store.Delete(key)
	}

	return c.Refresh(ctx, showID, episodeID)
}

// Refresh fetches the scenes of an episode and replaces the cached copy.
func (c *Cached) Refresh(ctx context.Context, showID, episodeID string) ([]practice.Scene, error) {
	scenes, err := c.src.Scenes(ctx, showID, episodeID)
	if err != nil {
		return nil, err
	}

	key := CacheKey(showID, episodeID)
	data, err := json.Marshal(scenes)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(key, data); err != nil {
		c.logger.Warn("failed to cache scenes", "key", key, "error", err)
	}
	return scenes, nil
}
