package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/agency-report/internal/api"
	"github.com/Sternrassler/agency-report/internal/config"
	"github.com/Sternrassler/agency-report/pkg/cache"
	"github.com/Sternrassler/agency-report/pkg/listings"
)

// deps holds the wired listings client and its optional Redis cache.
type deps struct {
	client *listings.Client
	redis  *redis.Client
}

// ready pings Redis when the page cache is enabled.
func (d *deps) ready() api.ReadinessCheck {
	if d.redis == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return d.redis.Ping(ctx).Err()
	}
}

// Close releases the Redis connection.
func (d *deps) Close() error {
	if d.redis == nil {
		return nil
	}
	return d.redis.Close()
}

// newDeps builds the listings client, connecting the Redis page cache when
// enabled.
func newDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}
	clientCfg := cfg.ListingsConfig()

	if cfg.Redis.Enabled {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := d.redis.Ping(ctx).Err(); err != nil {
			d.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

		clientCfg.Cache = cache.NewManager(d.redis,
			cache.WithDefaultTTL(cfg.Redis.DefaultTTL),
			cache.WithStaleRetention(cfg.Redis.StaleRetention),
		)
	}

	client, err := listings.New(clientCfg)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("create listings client: %w", err)
	}
	d.client = client
	return d, nil
}
