package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/99sellers/leadgen/internal/config"
)

// Redis реализует Store поверх redis. Значения хранятся без TTL:
// состояние сессии живёт до явного logout.
type Redis struct {
	db *redis.Client
}

// NewRedis подключается к redis и проверяет соединение.
func NewRedis(ctx context.Context, cfg config.RedisConnection) (*Redis, error) {
	const op = "kv.NewRedis"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})
	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Redis{db: db}, nil
}

// Get возвращает значение по ключу, false — если ключа нет
// или значение не читается текущей версией схемы.
func (r *Redis) Get(ctx context.Context, key string, out any) (bool, error) {
	const op = "kv.Get"
	raw, err := r.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return decode(raw, out), nil
}

// Set сохраняет значение по ключу.
func (r *Redis) Set(ctx context.Context, key string, value any) error {
	const op = "kv.Set"
	raw, err := encode(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.db.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет ключ; отсутствие ключа не считается ошибкой.
func (r *Redis) Delete(ctx context.Context, key string) error {
	const op = "kv.Delete"
	if err := r.db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
