package predict

import (
	"context"
	"log"
)

// AnalysisCache stores finished URL analyses keyed by URL. Satisfied by
// *cache.Cache.
type AnalysisCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
}

// CachedAnalyzer wraps URL prediction with a TTL cache so repeated
// lookups of the same article, and worker pre-warming, skip the model.
// Cache failures fall through to a fresh analysis.
type CachedAnalyzer struct {
	svc    *Service
	cache  AnalysisCache
	logger *log.Logger
}

func NewCachedAnalyzer(svc *Service, analysisCache AnalysisCache, logger *log.Logger) *CachedAnalyzer {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedAnalyzer{svc: svc, cache: analysisCache, logger: logger}
}

func (c *CachedAnalyzer) PredictURL(ctx context.Context, rawURL string) (URLResult, error) {
	key := "analysis:" + rawURL
	if c.cache != nil {
		var cached URLResult
		if hit, err := c.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			cached.CacheHit = true
			return cached, nil
		}
	}

	res, err := c.svc.PredictURL(ctx, rawURL)
	if err != nil {
		return URLResult{}, err
	}
	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, res); err != nil {
			c.logger.Printf("predict cache write failed url=%s err=%v", rawURL, err)
		}
	}
	return res, nil
}
