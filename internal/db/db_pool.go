package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	MaxConns          int
	MinConns          int
	HealthCheckPeriod time.Duration
	PoolTimeout       time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	ApplicationName   string
}

func (c PoolConfig) validate() error {
	if c.MaxConns < 1 {
		return errors.New("MaxConns должен быть больше нуля")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("MinConns (%d) больше MaxConns (%d)", c.MinConns, c.MaxConns)
	}
	if c.RetryAttempts < 1 {
		return errors.New("RetryAttempts должен быть больше нуля")
	}
	return nil
}

// NewPool подключается к БД с экспоненциальной паузой между попытками; отмена ctx прерывает ожидание
func NewPool(ctx context.Context, dsn string, cfg PoolConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация пула: %w", err)
	}

	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось распарсить DSN: %w", err)
	}

	conf.MaxConns = int32(cfg.MaxConns)
	conf.MinConns = int32(cfg.MinConns)
	conf.HealthCheckPeriod = cfg.HealthCheckPeriod
	conf.MaxConnLifetime = 30 * time.Minute
	conf.MaxConnIdleTime = 5 * time.Minute
	if cfg.ApplicationName != "" {
		conf.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}
	conf.ConnConfig.ConnectTimeout = cfg.PoolTimeout

	for i := 0; i < cfg.RetryAttempts; i++ {
		var pool *pgxpool.Pool
		pool, err = connect(ctx, conf)
		if err == nil {
			stat := pool.Stat()
			log.Info("подключение к базе данных успешно",
				slog.Int("attempt", i+1),
				slog.Int("max_conns", int(stat.MaxConns())),
				slog.Int("idle_conns", int(stat.IdleConns())))
			return pool, nil
		}

		log.Warn("не удалось подключиться к БД",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", cfg.RetryAttempts),
			slog.String("error", err.Error()))

		if i == cfg.RetryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("подключение к БД прервано: %w", ctx.Err())
		case <-time.After(cfg.RetryDelay * time.Duration(1<<i)):
		}
	}

	return nil, fmt.Errorf("не удалось создать пул соединений после %d попыток: %w", cfg.RetryAttempts, err)
}

func connect(ctx context.Context, conf *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, conf.ConnConfig.ConnectTimeout+time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
