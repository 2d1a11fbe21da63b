package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FeatureCache кэш агрегатов признаков перед таблицами *_fraud_features.
// Set* пишут результат пересчета, Fill* заполняют промах при чтении и не
// перетирают уже записанное значение.
type FeatureCache interface {
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*models.CustomerAggregate, error)
	SetCustomer(ctx context.Context, agg models.CustomerAggregate) error
	FillCustomer(ctx context.Context, agg models.CustomerAggregate) error
	GetTerminal(ctx context.Context, terminalID string) (*models.TerminalAggregate, error)
	SetTerminal(ctx context.Context, agg models.TerminalAggregate) error
	FillTerminal(ctx context.Context, agg models.TerminalAggregate) error
	Invalidate(ctx context.Context, customerID uuid.UUID, terminalID string) error
	Close() error
}

func customerKey(id uuid.UUID) string { return "features:customer:" + id.String() }
func terminalKey(id string) string    { return "features:terminal:" + id }

type RedisFeatureCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisFeatureCache(ctx context.Context, opts *redis.Options, ttl time.Duration, log *slog.Logger) (FeatureCache, error) {
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Info("redis кэш признаков подключен", slog.String("addr", opts.Addr), slog.Duration("ttl", ttl))

	return &RedisFeatureCache{client: client, ttl: ttl, log: log}, nil
}

func (c *RedisFeatureCache) GetCustomer(ctx context.Context, customerID uuid.UUID) (*models.CustomerAggregate, error) {
	var agg models.CustomerAggregate
	if err := c.getJSON(ctx, customerKey(customerID), &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

func (c *RedisFeatureCache) SetCustomer(ctx context.Context, agg models.CustomerAggregate) error {
	return c.setJSON(ctx, customerKey(agg.CustomerID), agg)
}

func (c *RedisFeatureCache) FillCustomer(ctx context.Context, agg models.CustomerAggregate) error {
	return c.setJSONNX(ctx, customerKey(agg.CustomerID), agg)
}

func (c *RedisFeatureCache) GetTerminal(ctx context.Context, terminalID string) (*models.TerminalAggregate, error) {
	var agg models.TerminalAggregate
	if err := c.getJSON(ctx, terminalKey(terminalID), &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

func (c *RedisFeatureCache) SetTerminal(ctx context.Context, agg models.TerminalAggregate) error {
	return c.setJSON(ctx, terminalKey(agg.TerminalID), agg)
}

func (c *RedisFeatureCache) FillTerminal(ctx context.Context, agg models.TerminalAggregate) error {
	return c.setJSONNX(ctx, terminalKey(agg.TerminalID), agg)
}

func (c *RedisFeatureCache) Invalidate(ctx context.Context, customerID uuid.UUID, terminalID string) error {
	if err := c.client.Del(ctx, customerKey(customerID), terminalKey(terminalID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *RedisFeatureCache) Close() error {
	return c.client.Close()
}

func (c *RedisFeatureCache) getJSON(ctx context.Context, key string, dst any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return custom_err.ErrCacheMiss
		}
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn("поврежденная запись в кэше, удаляем", slog.String("key", key), slog.String("error", err.Error()))
		_ = c.client.Del(ctx, key).Err()
		return custom_err.ErrCacheMiss
	}
	return nil
}

func (c *RedisFeatureCache) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// setJSONNX пишет ключ, только если его нет
func (c *RedisFeatureCache) setJSONNX(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := c.client.SetNX(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	return nil
}

// NoOpFeatureCache используется, когда Redis отключен
type NoOpFeatureCache struct{}

func NewNoOpFeatureCache() FeatureCache { return NoOpFeatureCache{} }

func (NoOpFeatureCache) GetCustomer(context.Context, uuid.UUID) (*models.CustomerAggregate, error) {
	return nil, custom_err.ErrCacheMiss
}

func (NoOpFeatureCache) SetCustomer(context.Context, models.CustomerAggregate) error { return nil }

func (NoOpFeatureCache) FillCustomer(context.Context, models.CustomerAggregate) error { return nil }

func (NoOpFeatureCache) GetTerminal(context.Context, string) (*models.TerminalAggregate, error) {
	return nil, custom_err.ErrCacheMiss
}

func (NoOpFeatureCache) SetTerminal(context.Context, models.TerminalAggregate) error { return nil }

func (NoOpFeatureCache) FillTerminal(context.Context, models.TerminalAggregate) error { return nil }

func (NoOpFeatureCache) Invalidate(context.Context, uuid.UUID, string) error { return nil }

func (NoOpFeatureCache) Close() error { return nil }
