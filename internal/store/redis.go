package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSwapRetries = 8

// RedisBlob stores the payload under a single Redis key. It implements
// Swapper with WATCH/MULTI so several deskcal processes can share one key.
type RedisBlob struct {
	client  *redis.Client
	key     string
	retries int
}

// NewRedisBlob returns a blob stored at key on client.
func NewRedisBlob(client *redis.Client, key string) *RedisBlob {
	if client == nil {
		panic("store.NewRedisBlob: redis client is nil")
	}
	if key == "" {
		key = DefaultKey
	}
	return &RedisBlob{client: client, key: key, retries: defaultSwapRetries}
}

func (r *RedisBlob) Read(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (r *RedisBlob) Write(ctx context.Context, data []byte) error {
	return r.client.Set(ctx, r.key, data, 0).Err()
}

func (r *RedisBlob) Remove(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

// Ping writes and deletes a scratch key next to the payload, so a
// read-only replica is reported as unavailable.
func (r *RedisBlob) Ping(ctx context.Context) error {
	scratch := r.key + ":ping"
	if err := r.client.Set(ctx, scratch, "1", time.Minute).Err(); err != nil {
		return err
	}
	return r.client.Del(ctx, scratch).Err()
}

// Swap implements Swapper. It retries when another writer changes the key
// between the read and the write.
func (r *RedisBlob) Swap(ctx context.Context, fn func(old []byte) ([]byte, error)) error {
	var fnErr error
	txf := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, r.key).Bytes()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				return err
			}
			old = nil
		}
		next, err := fn(old)
		if err != nil {
			fnErr = err
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < r.retries; i++ {
		fnErr = nil
		err := r.client.Watch(ctx, txf, r.key)
		if err == nil {
			return nil
		}
		if fnErr != nil {
			return fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}
