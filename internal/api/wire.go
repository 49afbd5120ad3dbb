package api

import (
	"fmt"
	"time"

	"orbit/internal/predict"
	"orbit/internal/store"
	"orbit/internal/tiers"
)

// optimizationStats mirrors what the pipeline did to produce a result,
// for clients that surface processing detail.
type optimizationStats struct {
	ChunksProcessed int   `json:"chunks_processed"`
	LatencyMS       int64 `json:"latency_ms"`
	CacheHit        bool  `json:"cache_hit"`
}

// predictionResponse is the wire shape for predictions. The combined
// planet display string stays for existing clients; glyph and tier are
// the structured fields new clients should read.
type predictionResponse struct {
	Label           string             `json:"label"`
	Score           float64            `json:"score"`
	Planet          string             `json:"planet"`
	Glyph           string             `json:"glyph"`
	Tier            string             `json:"tier"`
	TierID          string             `json:"tier_id"`
	TierDescription string             `json:"tier_description"`
	TiersVersion    string             `json:"tiers_version"`
	ExtractedText   string             `json:"extracted_text,omitempty"`
	FakeNewsScore   *float64           `json:"fake_news_score,omitempty"`
	SarcasmScore    *float64           `json:"sarcasm_score,omitempty"`
	Stats           *optimizationStats `json:"optimization_stats,omitempty"`
}

type detailedScores struct {
	FakeNewsProbability *float64 `json:"fake_news_probability,omitempty"`
	SarcasmProbability  *float64 `json:"sarcasm_probability,omitempty"`
	OverallCredibility  float64  `json:"overall_credibility"`
	CredibilityRating   string   `json:"credibility_rating"`
}

// analyzeResponse is the detailed payload behind /api/analyze-article,
// used by the credibility comparison view.
type analyzeResponse struct {
	URL               string         `json:"url"`
	CredibilityScore  float64        `json:"credibility_score"`
	FakeNewsScore     *float64       `json:"fake_news_score,omitempty"`
	SarcasmScore      *float64       `json:"sarcasm_score,omitempty"`
	Planet            string         `json:"planet"`
	Label             string         `json:"label"`
	Confidence        float64        `json:"confidence"`
	ChunksProcessed   int            `json:"chunks_processed"`
	AnalysisTimestamp string         `json:"analysis_timestamp"`
	DetailedScores    detailedScores `json:"detailed_scores"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func formatPrediction(res predict.Result) predictionResponse {
	return predictionResponse{
		Label:           res.Label,
		Score:           res.Score,
		Planet:          res.Tier.Display(),
		Glyph:           res.Tier.Glyph,
		Tier:            res.Tier.Name,
		TierID:          res.Tier.ID,
		TierDescription: res.Tier.Description,
		TiersVersion:    tiers.Version,
		FakeNewsScore:   res.FakeNewsScore,
		SarcasmScore:    res.SarcasmScore,
		Stats: &optimizationStats{
			ChunksProcessed: res.Chunks,
			LatencyMS:       res.Elapsed.Milliseconds(),
		},
	}
}

func formatURLPrediction(res predict.URLResult) predictionResponse {
	out := formatPrediction(res.Result)
	out.ExtractedText = fmt.Sprintf("Article analyzed with %d text chunks processed.", res.Chunks)
	out.Stats.CacheHit = res.CacheHit
	return out
}

type historyEntry struct {
	ID            string   `json:"id"`
	Source        string   `json:"source"`
	URL           string   `json:"url,omitempty"`
	Title         string   `json:"title,omitempty"`
	Label         string   `json:"label"`
	Score         float64  `json:"score"`
	Truth         float64  `json:"truth"`
	Planet        string   `json:"planet"`
	TierID        string   `json:"tier_id"`
	FakeNewsScore *float64 `json:"fake_news_score,omitempty"`
	SarcasmScore  *float64 `json:"sarcasm_score,omitempty"`
	Chunks        int      `json:"chunks"`
	LatencyMS     int      `json:"latency_ms"`
	CreatedAt     string   `json:"created_at"`
}

type historyResponse struct {
	Recent     []historyEntry `json:"recent"`
	TierCounts map[string]int `json:"tier_counts"`
}

func formatHistory(rows []store.Analysis, counts map[string]int) historyResponse {
	out := historyResponse{
		Recent:     make([]historyEntry, 0, len(rows)),
		TierCounts: counts,
	}
	for _, a := range rows {
		planet := a.TierID
		if t, ok := tiers.ByID(a.TierID); ok {
			planet = t.Display()
		}
		out.Recent = append(out.Recent, historyEntry{
			ID:            a.ID,
			Source:        a.Source,
			URL:           a.URL,
			Title:         a.Title,
			Label:         a.Label,
			Score:         a.Score,
			Truth:         a.Truth,
			Planet:        planet,
			TierID:        a.TierID,
			FakeNewsScore: a.FakeNewsScore,
			SarcasmScore:  a.SarcasmScore,
			Chunks:        a.Chunks,
			LatencyMS:     a.LatencyMS,
			CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func formatAnalysis(res predict.URLResult, now time.Time) analyzeResponse {
	return analyzeResponse{
		URL:               res.URL,
		CredibilityScore:  res.Truth,
		FakeNewsScore:     res.FakeNewsScore,
		SarcasmScore:      res.SarcasmScore,
		Planet:            res.Tier.Display(),
		Label:             res.Label,
		Confidence:        res.Score,
		ChunksProcessed:   res.Chunks,
		AnalysisTimestamp: now.UTC().Format(time.RFC3339),
		DetailedScores: detailedScores{
			FakeNewsProbability: res.FakeNewsScore,
			SarcasmProbability:  res.SarcasmScore,
			OverallCredibility:  res.Truth,
			CredibilityRating:   res.Tier.Display(),
		},
	}
}
