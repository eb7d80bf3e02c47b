// Package catalog serves the Stripe product catalog through a Redis read-through cache.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lbsconnect/examcenter/services/site-service/internal/metrics"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "catalog:"

type Source interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ProductsWithPrices(ctx context.Context) ([]model.ProductWithPrices, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)
	ListPrices(ctx context.Context, productID string) ([]model.Price, error)
}

type Service struct {
	src    Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New builds the service; a nil rdb disables caching.
func New(src Source, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{src: src, rdb: rdb, ttl: ttl, logger: logger}
}

func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	return cached(ctx, s, keyPrefix+"products", func() ([]model.Product, error) {
		return s.src.ListProducts(ctx)
	})
}

func (s *Service) ProductsWithPrices(ctx context.Context) ([]model.ProductWithPrices, error) {
	return cached(ctx, s, keyPrefix+"products-with-prices", func() ([]model.ProductWithPrices, error) {
		return s.src.ProductsWithPrices(ctx)
	})
}

// Prices returns model.ErrNotFound when the product does not exist.
func (s *Service) Prices(ctx context.Context, productID string) ([]model.Price, error) {
	return cached(ctx, s, keyPrefix+"prices:"+productID, func() ([]model.Price, error) {
		if _, err := s.src.GetProduct(ctx, productID); err != nil {
			return nil, err
		}
		return s.src.ListPrices(ctx, productID)
	})
}

// Invalidate drops every cached catalog entry.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	var keys []string
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				metrics.IncCatalog("hit")
				return v, nil
			}
			s.logger.Warn("catalog cache entry unreadable", "key", key)
		case errors.Is(err, redis.Nil):
		default:
			s.logger.Warn("catalog cache read failed", "key", key, "err", err)
		}
		metrics.IncCatalog("miss")
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if s.rdb != nil {
		if raw, err := json.Marshal(v); err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("catalog cache write failed", "key", key, "err", err)
			}
		}
	}
	return v, nil
}
