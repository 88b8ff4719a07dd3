// Package topn caches, per project, the ids of the first N activities of every task.
package topn

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultLimit is the number of activities kept per task
const DefaultLimit = 10

// Source computes the ranked ids
type Source interface {
	TopActivityIDs(ctx context.Context, projectID uint, limit int) ([]uint, error)
}

// Index is a read-through cache over Source. Concurrent misses on the same key
// both recompute; the last write wins.
type Index struct {
	cache  Cache
	source Source
	limit  int
	logger *slog.Logger
}

// NewIndex builds an index; limit < 1 selects DefaultLimit
func NewIndex(cache Cache, source Source, limit int, logger *slog.Logger) *Index {
	if limit < 1 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{cache: cache, source: source, limit: limit, logger: logger}
}

// Key is the cache key of a project
func Key(projectID uint) string {
	return fmt.Sprintf("activities_in_project_%d", projectID)
}

// Limit returns the per-task cap
func (ix *Index) Limit() int {
	return ix.limit
}

// ActivityIDs returns, ordered by activity id, at most Limit activity ids of
// every task of the project.
func (ix *Index) ActivityIDs(ctx context.Context, projectID uint) ([]uint, error) {
	key := Key(projectID)
	ids, ok, err := ix.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to a direct query.
		ix.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	} else if ok {
		return ids, nil
	}

	ids, err = ix.source.TopActivityIDs(ctx, projectID, ix.limit)
	if err != nil {
		return nil, err
	}
	if err := ix.cache.Set(ctx, key, ids); err != nil {
		ix.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return ids, nil
}

// InvalidateProject drops the cached entry of a project
func (ix *Index) InvalidateProject(ctx context.Context, projectID uint) error {
	key := Key(projectID)
	if err := ix.cache.Delete(ctx, key); err != nil {
		return err
	}
	ix.logger.InfoContext(ctx, "cache deleted", "key", key)
	return nil
}
