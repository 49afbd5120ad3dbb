package mediacloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
)

var ErrNotConfigured = errors.New("mediacloud: api key not configured")

const (
	DefaultBaseURL    = "https://search.mediacloud.org"
	DefaultWindowDays = 30
	defaultPageSize   = 20
)

// Article is the metadata we keep from a MediaCloud story.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	PublishDate string `json:"publish_date"`
	Language    string `json:"language"`
}

// Client talks to the MediaCloud search API. Queries cover a trailing
// window of recent stories; results come back relevance-ordered.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	windowDays int
	now        func() time.Time
}

func NewClient(baseURL, apiKey string, windowDays int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		windowDays: windowDays,
		now:        time.Now,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type storyListResponse struct {
	Stories []struct {
		ID          json.Number `json:"id"`
		Title       string      `json:"title"`
		URL         string      `json:"url"`
		MediaName   string      `json:"media_name"`
		PublishDate string      `json:"publish_date"`
		Language    string      `json:"language"`
	} `json:"stories"`
}

// Search lists recent stories matching query, best relevance first.
// Stories without a title or URL are dropped.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	end := c.now()
	start := end.AddDate(0, 0, -c.windowDays)

	params := url.Values{}
	params.Set("q", query)
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))
	params.Set("page_size", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/search/story-list?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mediacloud: search returned status %d", resp.StatusCode)
	}

	var payload storyListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("mediacloud: decode search response: %w", err)
	}

	articles := make([]Article, 0, len(payload.Stories))
	for _, s := range payload.Stories {
		if s.Title == "" || s.URL == "" {
			continue
		}
		articles = append(articles, Article{
			ID:          s.ID.String(),
			Title:       s.Title,
			URL:         s.URL,
			Domain:      s.MediaName,
			PublishDate: s.PublishDate,
			Language:    s.Language,
		})
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return Relevance(articles[i].Title, query) > Relevance(articles[j].Title, query)
	})
	return articles, nil
}
