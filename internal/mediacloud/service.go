package mediacloud

import (
	"context"
	"fmt"
	"log"
	"time"

	"orbit/internal/predict"
	"orbit/internal/tiers"
)

const searchLimit = 20

// Searcher lists candidate stories for a query. Satisfied by *Client.
type Searcher interface {
	Configured() bool
	Search(ctx context.Context, query string, limit int) ([]Article, error)
}

// Scorer analyzes one article URL. Satisfied by *predict.Service.
type Scorer interface {
	PredictURL(ctx context.Context, url string) (predict.URLResult, error)
}

// ReportCache caches whole grouped reports per query. Satisfied by
// *cache.Cache; nil disables caching.
type ReportCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
}

// SearchRecorder audits executed searches. Satisfied by *store.Store.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, query string, totalArticles int, cacheHit bool) error
}

// JobQueue receives article URLs the report had no room for, so a
// worker can pre-warm their analyses. Satisfied by *cache.Cache.
type JobQueue interface {
	PushAnalysisJob(ctx context.Context, url string) error
}

// AnalyzedArticle is one scored search result.
type AnalyzedArticle struct {
	Title             string   `json:"title"`
	URL               string   `json:"url"`
	Domain            string   `json:"domain"`
	PublishDate       string   `json:"publish_date"`
	CredibilityScore  float64  `json:"credibility_score"`
	FakeNewsScore     *float64 `json:"fake_news_score,omitempty"`
	SarcasmScore      *float64 `json:"sarcasm_score,omitempty"`
	Planet            string   `json:"planet"`
	TierID            string   `json:"tier_id"`
	AnalysisTimestamp string   `json:"analysis_timestamp"`
}

// Report groups analyzed articles by credibility tier. Map keys are the
// tier display strings (glyph plus name); empty groups are omitted.
type Report struct {
	Query           string                       `json:"query"`
	ResultsByPlanet map[string][]AnalyzedArticle `json:"results_by_planet"`
	TotalArticles   int                          `json:"total_articles"`
	PerPlanetLimit  int                          `json:"articles_per_planet_limit"`
	SearchTimestamp string                       `json:"search_timestamp"`
	CacheHit        bool                         `json:"cache_hit"`
	Message         string                       `json:"message,omitempty"`
}

// Service runs search-then-analyze. Individual article failures are
// logged and skipped so one dead link never sinks the whole report.
type Service struct {
	searcher Searcher
	scorer   Scorer
	cache    ReportCache
	recorder SearchRecorder
	jobs     JobQueue
	logger   *log.Logger
	now      func() time.Time
}

func NewService(searcher Searcher, scorer Scorer, reportCache ReportCache, recorder SearchRecorder, jobs JobQueue, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		searcher: searcher,
		scorer:   scorer,
		cache:    reportCache,
		recorder: recorder,
		jobs:     jobs,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Configured() bool {
	return s != nil && s.searcher != nil && s.searcher.Configured()
}

// AnalyzeByPlanet searches for query, scores each hit, and fills tier
// buckets until every bucket holds perPlanet articles or candidates run
// out. perPlanet must already be validated to [1,10] by the caller.
func (s *Service) AnalyzeByPlanet(ctx context.Context, query string, perPlanet int) (Report, error) {
	if !s.Configured() {
		return Report{}, ErrNotConfigured
	}

	cacheKey := fmt.Sprintf("similar:%s:%d", query, perPlanet)
	if s.cache != nil {
		var cached Report
		if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			cached.CacheHit = true
			s.recordSearch(ctx, query, cached.TotalArticles, true)
			return cached, nil
		}
	}

	articles, err := s.searcher.Search(ctx, query, searchLimit)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Query:           query,
		ResultsByPlanet: map[string][]AnalyzedArticle{},
		PerPlanetLimit:  perPlanet,
		SearchTimestamp: s.now().UTC().Format(time.RFC3339),
	}
	if len(articles) == 0 {
		report.Message = "No articles found for the given query"
		s.recordSearch(ctx, query, 0, false)
		return report, nil
	}

	budget := perPlanet * len(tiers.All())
	var leftover []string
	for i, art := range articles {
		if report.TotalArticles >= budget {
			for _, rest := range articles[i:] {
				leftover = append(leftover, rest.URL)
			}
			break
		}
		res, err := s.scorer.PredictURL(ctx, art.URL)
		if err != nil {
			s.logger.Printf("mediacloud skip article url=%s err=%v", art.URL, err)
			continue
		}

		planet := res.Tier.Display()
		if len(report.ResultsByPlanet[planet]) >= perPlanet {
			leftover = append(leftover, art.URL)
			continue
		}
		report.ResultsByPlanet[planet] = append(report.ResultsByPlanet[planet], AnalyzedArticle{
			Title:             art.Title,
			URL:               art.URL,
			Domain:            art.Domain,
			PublishDate:       art.PublishDate,
			CredibilityScore:  res.Truth,
			FakeNewsScore:     res.FakeNewsScore,
			SarcasmScore:      res.SarcasmScore,
			Planet:            planet,
			TierID:            res.Tier.ID,
			AnalysisTimestamp: s.now().UTC().Format(time.RFC3339),
		})
		report.TotalArticles++
	}

	if report.TotalArticles == 0 {
		report.Message = "No articles could be analyzed for the given query"
	} else if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, report); err != nil {
			s.logger.Printf("mediacloud cache write failed query=%q err=%v", query, err)
		}
	}
	s.enqueue(ctx, leftover)
	s.recordSearch(ctx, query, report.TotalArticles, false)
	return report, nil
}

// enqueue hands unanalyzed candidates to the pre-warm queue, best effort.
func (s *Service) enqueue(ctx context.Context, urls []string) {
	if s.jobs == nil {
		return
	}
	for _, u := range urls {
		if err := s.jobs.PushAnalysisJob(ctx, u); err != nil {
			s.logger.Printf("mediacloud enqueue analysis job failed url=%s err=%v", u, err)
			return
		}
	}
}

func (s *Service) recordSearch(ctx context.Context, query string, total int, cacheHit bool) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordSearch(ctx, query, total, cacheHit); err != nil {
		s.logger.Printf("mediacloud record search failed query=%q err=%v", query, err)
	}
}
