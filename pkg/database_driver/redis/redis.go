package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ErrNil is returned by Get when the key does not exist
var ErrNil = redis.Nil

// Client interface - the subset of redis commands the session store needs
type Client interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Close() error
}

var _ Client = (*DB)(nil)

// DB struct
type DB struct {
	Redis *redis.Client
}

// ConnectToRedis func - connects and pings the server
func ConnectToRedis(ctx context.Context, addr, password string, db int) (*DB, error) {
	if addr == "" {
		return nil, errors.New("cannot establish the connection: redis address is empty")
	}

	cli := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx).Err(); err != nil {
		logrus.Error(err)
		_ = cli.Close()
		return nil, err
	}

	logrus.Infof("Connected to redis at %s (db %d)", addr, db)
	return &DB{Redis: cli}, nil
}

// DisconnectRedis func
func DisconnectRedis(db *DB) {
	if db == nil || db.Redis == nil {
		return
	}
	if err := db.Redis.Close(); err != nil {
		logrus.Error(err)
	}
	logrus.Println("Connection with redis has closed")
}

func (d *DB) Ping(ctx context.Context) error { return d.Redis.Ping(ctx).Err() }

func (d *DB) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return d.Redis.Set(ctx, key, value, expiration).Err()
}

func (d *DB) Get(ctx context.Context, key string) (string, error) {
	return d.Redis.Get(ctx, key).Result()
}

func (d *DB) Del(ctx context.Context, keys ...string) error {
	return d.Redis.Del(ctx, keys...).Err()
}

func (d *DB) Close() error { return d.Redis.Close() }
