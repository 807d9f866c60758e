package seller

import (
	"context"
	"encoding/json"
	"time"

	"milkdirect-be/internal/logger"

	"go.uber.org/zap"
)

// StringCache is the slice of the redis client the catalog needs.
type StringCache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const listKey = "sellers:list"

type Service interface {
	ListSellers(ctx context.Context) ([]Seller, error)
	GetSeller(ctx context.Context, id int) (*Seller, error)
	UpdateTelemetry(ctx context.Context, id int, t Telemetry) error
}

type service struct {
	repo  Repository
	cache StringCache
	ttl   time.Duration
}

// NewService wraps the repository with a cache-aside layer. A nil cache
// disables caching entirely.
func NewService(repo Repository, cache StringCache, ttl time.Duration) Service {
	return &service{repo: repo, cache: cache, ttl: ttl}
}

// ListSellers serves from the cache when possible; a cold or unreachable
// cache falls through to Postgres and backfills.
func (s *service) ListSellers(ctx context.Context) ([]Seller, error) {
	log := logger.FromCtx(ctx)

	if s.cache != nil {
		if raw, err := s.cache.GetString(ctx, listKey); err == nil {
			var sellers []Seller
			if err := json.Unmarshal([]byte(raw), &sellers); err == nil {
				return sellers, nil
			}
			log.Warn("corrupt seller cache entry, refetching", zap.Error(err))
		}
	}

	sellers, err := s.repo.ListSellers(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(sellers); err == nil {
			_ = s.cache.SetString(ctx, listKey, string(raw), s.ttl)
		}
	}

	return sellers, nil
}

func (s *service) GetSeller(ctx context.Context, id int) (*Seller, error) {
	return s.repo.GetSeller(ctx, id)
}

// UpdateTelemetry records a fresh IoT reading and drops the stale list cache.
func (s *service) UpdateTelemetry(ctx context.Context, id int, t Telemetry) error {
	if err := s.repo.UpdateTelemetry(ctx, id, t); err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, listKey)
	}

	return nil
}
