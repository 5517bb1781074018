package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/repositories"
)

const (
	rankingCacheKey = "ranking:overall"
	rankingCacheTTL = 60 * time.Second
)

type RankingService interface {
	GetRanking(ctx context.Context) ([]*models.RankingEntry, error)
	RankingInvalidator
}

// rankingService aggregates standings from the database and keeps a
// short-lived cached copy in Redis. A nil cache client disables caching;
// cache failures degrade to a direct query and are only logged.
type rankingService struct {
	userRepo repositories.UserRepository
	cache    *redis.Client
	logger   *slog.Logger
}

func NewRankingService(userRepo repositories.UserRepository, cache *redis.Client, logger *slog.Logger) RankingService {
	return &rankingService{
		userRepo: userRepo,
		cache:    cache,
		logger:   logger,
	}
}

func (s *rankingService) GetRanking(ctx context.Context) ([]*models.RankingEntry, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, rankingCacheKey).Result()
		if err == nil {
			var entries []*models.RankingEntry
			if unmarshalErr := json.Unmarshal([]byte(cached), &entries); unmarshalErr == nil {
				return entries, nil
			}
			// A corrupt cache entry falls through to the database.
			s.logger.Warn("discarding unreadable ranking cache entry")
		} else if err != redis.Nil {
			s.logger.Warn("ranking cache read failed", slog.Any("error", err))
		}
	}

	entries, err := s.userRepo.ListRanking(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute ranking: %w", err)
	}

	if s.cache != nil {
		payload, err := json.Marshal(entries)
		if err == nil {
			if setErr := s.cache.Set(ctx, rankingCacheKey, payload, rankingCacheTTL).Err(); setErr != nil {
				s.logger.Warn("ranking cache write failed", slog.Any("error", setErr))
			}
		}
	}
	return entries, nil
}

// Invalidate drops the cached standings. Called after a match finalizes
// or scores are recalculated so the next read sees fresh totals.
func (s *rankingService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, rankingCacheKey).Err(); err != nil {
		s.logger.Warn("ranking cache invalidation failed", slog.Any("error", err))
	}
}
