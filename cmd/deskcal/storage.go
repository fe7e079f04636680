package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"deskcal/internal/config"
	appLog "deskcal/internal/log"
	"deskcal/internal/store"
)

// openStore builds the EventStore for the configured backend. The
// returned func releases backend resources.
func openStore(ctx context.Context, conf *config.Config) (*store.EventStore, func(), error) {
	sc := conf.Storage
	noop := func() {}

	var blob store.Blob
	closeFn := noop
	switch sc.Backend {
	case config.BackendMemory:
		appLog.Warn("memory storage selected; events are lost on exit")
		blob = store.NewMemoryBlob(nil)

	case config.BackendFile:
		blob = store.NewFileBlob(sc.Path)

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		})
		blob = store.NewRedisBlob(client, sc.Key)
		closeFn = func() {
			if err := client.Close(); err != nil {
				appLog.Error("redis close failed", err)
			}
		}

	case config.BackendSQLite:
		sb, err := store.OpenSQLiteBlob(ctx, sc.SQLitePath, sc.Key)
		if err != nil {
			return nil, noop, err
		}
		blob = sb
		closeFn = func() {
			if err := sb.Close(); err != nil {
				appLog.Error("sqlite close failed", err)
			}
		}

	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}

	appLog.Info("event storage opened", "backend", sc.Backend)
	return store.New(blob, store.WithQuota(sc.QuotaBytes)), closeFn, nil
}
