package repository

import (
	"context"
	"errors"
	"time"

	"TechPulse/internal/domain/models"
	"TechPulse/pkg/cache"
)

const analysisKeyPrefix = "analysis:"

// AnalysisCache stores analyses in any cache.Service backend.
type AnalysisCache struct {
	svc cache.Service
	ttl time.Duration
}

// NewAnalysisCache wraps svc. A nil svc yields nil, meaning caching is off.
func NewAnalysisCache(svc cache.Service, ttl time.Duration) *AnalysisCache {
	if svc == nil {
		return nil
	}
	return &AnalysisCache{svc: svc, ttl: ttl}
}

func (c *AnalysisCache) Get(ctx context.Context, key string) (*models.Analysis, error) {
	var a models.Analysis
	if err := c.svc.Get(ctx, analysisKeyPrefix+key, &a); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (c *AnalysisCache) Set(ctx context.Context, key string, a *models.Analysis) error {
	return c.svc.Set(ctx, analysisKeyPrefix+key, a, c.ttl)
}
