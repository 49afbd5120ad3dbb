package mediacloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"orbit/internal/predict"
	"orbit/internal/tiers"
)

func TestRelevanceOrdering(t *testing.T) {
	query := "climate change"
	focused := Relevance("Climate change accelerates ice melt", query)
	partial := Relevance("Change is coming to the energy sector", query)
	unrelated := Relevance("Local team wins championship", query)

	if focused <= partial {
		t.Fatalf("full phrase match should beat partial: %v <= %v", focused, partial)
	}
	if partial <= unrelated {
		t.Fatalf("partial match should beat unrelated: %v <= %v", partial, unrelated)
	}
	if unrelated != 0 {
		t.Fatalf("unrelated title should score zero, got %v", unrelated)
	}
}

func TestRelevanceLongTitlePenalty(t *testing.T) {
	short := Relevance("Climate change report released", "climate change")
	long := Relevance("Climate change report released today after months of deliberation by an international panel of scientists and policy makers", "climate change")
	if long >= short {
		t.Fatalf("rambling title should score below focused one: %v >= %v", long, short)
	}
}

func TestClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token mc-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		q := r.URL.Query()
		if q.Get("q") != "climate change" || q.Get("page_size") != "20" {
			t.Errorf("unexpected query params: %v", q)
		}
		if q.Get("start_date") == "" || q.Get("end_date") == "" {
			t.Errorf("missing date window: %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"stories": []map[string]any{
				{"id": 1, "title": "Sports roundup", "url": "https://news.example.com/sports", "media_name": "example"},
				{"id": 2, "title": "Climate change hits coastlines", "url": "https://news.example.com/climate", "media_name": "example"},
				{"id": 3, "title": "", "url": "https://news.example.com/untitled"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "mc-key", 30)
	articles, err := c.Search(context.Background(), "climate change", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("untitled story should be dropped, got %d articles", len(articles))
	}
	if articles[0].Title != "Climate change hits coastlines" {
		t.Fatalf("expected relevance ordering, got %q first", articles[0].Title)
	}
}

func TestClientSearchRequiresKey(t *testing.T) {
	c := NewClient("https://search.mediacloud.org", "", 30)
	if _, err := c.Search(context.Background(), "anything", 5); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

type stubSearcher struct {
	articles []Article
	err      error
}

func (s stubSearcher) Configured() bool { return true }

func (s stubSearcher) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	return s.articles, s.err
}

type stubScorer struct {
	truthByURL map[string]float64
	failURL    string
}

func (s stubScorer) PredictURL(ctx context.Context, url string) (predict.URLResult, error) {
	if url == s.failURL {
		return predict.URLResult{}, errors.New("extraction failed")
	}
	truth := s.truthByURL[url]
	label := "REAL"
	score := truth
	if truth < 0.5 {
		label = "FAKE"
		score = 1 - truth
	}
	return predict.URLResult{
		Result: predict.Result{Label: label, Score: score, Truth: truth, Tier: tiers.Assign(truth), Chunks: 1},
		URL:    url,
	}, nil
}

type memoryCache map[string][]byte

func (m memoryCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m memoryCache) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m[key] = raw
	return nil
}

type recordedSearch struct {
	query    string
	total    int
	cacheHit bool
}

type stubRecorder struct {
	searches []recordedSearch
}

func (r *stubRecorder) RecordSearch(ctx context.Context, query string, total int, cacheHit bool) error {
	r.searches = append(r.searches, recordedSearch{query, total, cacheHit})
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestAnalyzeByPlanetGroupsByTier(t *testing.T) {
	searcher := stubSearcher{articles: []Article{
		{Title: "Trusted report", URL: "https://a.example.com/1", Domain: "a"},
		{Title: "Dubious claim", URL: "https://b.example.com/2", Domain: "b"},
		{Title: "Broken link", URL: "https://c.example.com/3", Domain: "c"},
	}}
	scorer := stubScorer{
		truthByURL: map[string]float64{
			"https://a.example.com/1": 0.92,
			"https://b.example.com/2": 0.10,
		},
		failURL: "https://c.example.com/3",
	}
	rec := &stubRecorder{}
	svc := NewService(searcher, scorer, nil, rec, nil, quietLogger())

	report, err := svc.AnalyzeByPlanet(context.Background(), "report", 1)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if report.TotalArticles != 2 {
		t.Fatalf("failed article should be skipped, got total %d", report.TotalArticles)
	}
	mercury := tiers.Assign(0.92).Display()
	neptune := tiers.Assign(0.10).Display()
	if len(report.ResultsByPlanet[mercury]) != 1 || len(report.ResultsByPlanet[neptune]) != 1 {
		t.Fatalf("unexpected grouping: %v", report.ResultsByPlanet)
	}
	if got := report.ResultsByPlanet[mercury][0]; got.CredibilityScore != 0.92 || got.TierID == "" {
		t.Fatalf("unexpected analyzed article: %+v", got)
	}
	if len(rec.searches) != 1 || rec.searches[0].total != 2 || rec.searches[0].cacheHit {
		t.Fatalf("unexpected search audit: %+v", rec.searches)
	}
}

func TestAnalyzeByPlanetHonorsPerPlanetLimit(t *testing.T) {
	searcher := stubSearcher{articles: []Article{
		{Title: "One", URL: "https://x.example.com/1"},
		{Title: "Two", URL: "https://x.example.com/2"},
		{Title: "Three", URL: "https://x.example.com/3"},
	}}
	scorer := stubScorer{truthByURL: map[string]float64{
		"https://x.example.com/1": 0.70,
		"https://x.example.com/2": 0.71,
		"https://x.example.com/3": 0.72,
	}}
	svc := NewService(searcher, scorer, nil, nil, nil, quietLogger())

	report, err := svc.AnalyzeByPlanet(context.Background(), "one", 1)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	earth := tiers.Assign(0.70).Display()
	if len(report.ResultsByPlanet[earth]) != 1 {
		t.Fatalf("per-planet limit ignored: %v", report.ResultsByPlanet)
	}
	if report.TotalArticles != 1 {
		t.Fatalf("overflow articles must not count, got %d", report.TotalArticles)
	}
}

func TestAnalyzeByPlanetCacheRoundTrip(t *testing.T) {
	searcher := stubSearcher{articles: []Article{
		{Title: "Cached story", URL: "https://a.example.com/1"},
	}}
	scorer := stubScorer{truthByURL: map[string]float64{"https://a.example.com/1": 0.80}}
	mem := memoryCache{}
	rec := &stubRecorder{}
	svc := NewService(searcher, scorer, mem, rec, nil, quietLogger())

	first, err := svc.AnalyzeByPlanet(context.Background(), "cached", 2)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if first.CacheHit {
		t.Fatalf("first call must miss the cache")
	}

	second, err := svc.AnalyzeByPlanet(context.Background(), "cached", 2)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if !second.CacheHit {
		t.Fatalf("second call should hit the cache")
	}
	if second.TotalArticles != first.TotalArticles {
		t.Fatalf("cached report diverged: %d vs %d", second.TotalArticles, first.TotalArticles)
	}
	if len(rec.searches) != 2 || !rec.searches[1].cacheHit {
		t.Fatalf("cache hit not audited: %+v", rec.searches)
	}
}

type stubQueue struct {
	urls []string
}

func (q *stubQueue) PushAnalysisJob(ctx context.Context, url string) error {
	q.urls = append(q.urls, url)
	return nil
}

func TestAnalyzeByPlanetEnqueuesOverflow(t *testing.T) {
	searcher := stubSearcher{articles: []Article{
		{Title: "One", URL: "https://x.example.com/1"},
		{Title: "Two", URL: "https://x.example.com/2"},
		{Title: "Three", URL: "https://x.example.com/3"},
	}}
	scorer := stubScorer{truthByURL: map[string]float64{
		"https://x.example.com/1": 0.70,
		"https://x.example.com/2": 0.71,
		"https://x.example.com/3": 0.72,
	}}
	queue := &stubQueue{}
	svc := NewService(searcher, scorer, nil, nil, queue, quietLogger())

	if _, err := svc.AnalyzeByPlanet(context.Background(), "one", 1); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(queue.urls) != 2 {
		t.Fatalf("overflow articles should be queued for pre-warming, got %v", queue.urls)
	}
}

func TestAnalyzeByPlanetNoResults(t *testing.T) {
	svc := NewService(stubSearcher{}, stubScorer{}, nil, nil, nil, quietLogger())
	report, err := svc.AnalyzeByPlanet(context.Background(), "nothing here", 1)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if report.TotalArticles != 0 || report.Message == "" {
		t.Fatalf("empty search should carry a message: %+v", report)
	}
}
