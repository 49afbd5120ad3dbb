package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("missing database dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Analysis is one completed prediction, kept for the history and stats
// surfaces. Recording is best-effort; a failed insert never fails the
// prediction that produced it.
type Analysis struct {
	ID            string
	Source        string
	URL           string
	Title         string
	Label         string
	Score         float64
	Truth         float64
	TierID        string
	FakeNewsScore *float64
	SarcasmScore  *float64
	Chunks        int
	LatencyMS     int
	CreatedAt     time.Time
}

func (s *Store) RecordAnalysis(ctx context.Context, a Analysis) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO analyses (id, source, url, title, label, score, truth, tier_id, fake_news_score, sarcasm_score, chunks, latency_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.Source, nullString(a.URL), nullString(a.Title), a.Label, a.Score, a.Truth, a.TierID, a.FakeNewsScore, a.SarcasmScore, a.Chunks, a.LatencyMS)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *Store) RecentAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, url, title, label, score, truth, tier_id, fake_news_score, sarcasm_score, chunks, latency_ms, created_at
		FROM analyses ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		var url, title sql.NullString
		if err := rows.Scan(&a.ID, &a.Source, &url, &title, &a.Label, &a.Score, &a.Truth, &a.TierID, &a.FakeNewsScore, &a.SarcasmScore, &a.Chunks, &a.LatencyMS, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.URL = url.String
		a.Title = title.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// TierCounts returns how many stored analyses landed in each tier.
func (s *Store) TierCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tier_id, count(*) FROM analyses GROUP BY tier_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tierID string
		var count int
		if err := rows.Scan(&tierID, &count); err != nil {
			return nil, err
		}
		counts[tierID] = count
	}
	return counts, rows.Err()
}

func (s *Store) RecordSearch(ctx context.Context, query string, totalArticles int, cacheHit bool) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO search_queries (id, query, total_articles, cache_hit) VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), query, totalArticles, cacheHit)
	return err
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
