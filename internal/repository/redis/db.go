package redis

import (
	"context"
	"fmt"

	"user-service/internal/config"

	"github.com/redis/go-redis/v9"
)

// DB wraps the Redis client together with the configured key prefix.
// All repository keys are built through it so a single prefix setting
// namespaces the whole service inside a shared Redis instance.
type DB struct {
	Client    *redis.Client
	keyPrefix string
}

func NewDB(ctx context.Context, cfg config.RedisConfig) (*DB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &DB{
		Client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (db *DB) Close() error {
	return db.Client.Close()
}

func (db *DB) userKey(id int64) string {
	return fmt.Sprintf("%susers:%d", db.keyPrefix, id)
}

func (db *DB) userEmailKey(email string) string {
	return db.keyPrefix + "users:email:" + email
}

func (db *DB) userSetKey() string {
	return db.keyPrefix + "users:all"
}

func (db *DB) userSeqKey() string {
	return db.keyPrefix + "users:seq"
}

func (db *DB) roleKey(id int64) string {
	return fmt.Sprintf("%sroles:%d", db.keyPrefix, id)
}

func (db *DB) roleNameKey(name string) string {
	return db.keyPrefix + "roles:name:" + name
}

func (db *DB) roleSetKey() string {
	return db.keyPrefix + "roles:all"
}

func (db *DB) roleSeqKey() string {
	return db.keyPrefix + "roles:seq"
}
