package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"toiler/internal/activity"
	"toiler/internal/config"
	"toiler/internal/db"
	"toiler/internal/notify"
	"toiler/internal/scheduler"
	"toiler/internal/topn"
)

// app holds the collaborators shared by commands and the HTTP server
type app struct {
	store      *db.Store
	logger     *slog.Logger
	redis      *redis.Client
	sink       notify.Sink
	index      *topn.Index
	engine     *scheduler.Engine
	activities *activity.Service
}

// newApp wires storage, notifier and cache from the loaded configuration
func newApp(ctx context.Context, c *config.Config) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.ResolveSecrets(); err != nil {
		return nil, err
	}

	a := &app{
		store:  db.NewStore(db.GetDB()),
		logger: c.Log.NewLogger(os.Stderr),
	}

	if c.UsesRedis() {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     c.Notifier.Redis.Addr,
			Password: c.Notifier.Redis.Password,
			DB:       c.Notifier.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", c.Notifier.Redis.Addr, err)
		}
	}

	if c.Notifier.Enabled {
		a.sink = notify.NewRedisSink(a.redis, c.Notifier.Channel)
	} else {
		a.sink = notify.LogSink{Logger: a.logger}
	}

	var cache topn.Cache = topn.NewMemoryCache()
	if c.Cache.Backend == config.CacheRedis {
		cache = topn.NewRedisCache(a.redis)
	}
	a.index = topn.NewIndex(cache, a.store, c.Schedule.TopActivityLimit, a.logger)
	a.engine = scheduler.NewEngine(a.store, a.store, a.sink, a.logger)
	a.activities = activity.NewService(a.store, a.index, a.sink, a.logger)
	return a, nil
}

func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
